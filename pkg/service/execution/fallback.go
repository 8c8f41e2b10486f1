package execution

// fallbackCursor is the bounded iterator over fallback attempts. The
// chain itself is realized by re-resolving with failed rails excluded,
// so the cursor only tracks exclusions and the remaining budget.
type fallbackCursor struct {
	excluded  map[string]bool
	remaining int
}

func newFallbackCursor(budget int) *fallbackCursor {
	return &fallbackCursor{
		excluded:  make(map[string]bool),
		remaining: budget,
	}
}

// fail records a rail failure and consumes one unit of fallback
// budget. It returns false when the budget is exhausted.
func (c *fallbackCursor) fail(railID string) bool {
	if !c.excluded[railID] {
		c.excluded[railID] = true
	}
	if c.remaining == 0 {
		return false
	}
	c.remaining--
	return true
}
