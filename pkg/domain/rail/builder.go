package rail

import (
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

// Builder provides a fluent API for constructing FundingSource
// instances, ensuring only valid sources are built.
type Builder struct {
	id                string
	userID            uuid.UUID
	kind              Kind
	name              string
	balance           int64
	currency          money.Code
	priorityRank      int
	linkedStatus      LinkedStatus
	available         bool
	capabilities      Capabilities
	maxAutoTopUp      int64
	extraConfirmAbove int64
}

// New creates a Builder with sensible defaults: linked, available,
// priority rank 1, default currency.
func New() *Builder {
	return &Builder{
		currency:     money.DefaultCode,
		priorityRank: 1,
		linkedStatus: StatusLinked,
		available:    true,
		capabilities: NewCapabilities(),
	}
}

// WithID sets the rail identifier. Mandatory.
func (b *Builder) WithID(id string) *Builder {
	b.id = id
	return b
}

// WithUserID sets the owning user.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.userID = userID
	return b
}

// WithKind sets the rail kind.
func (b *Builder) WithKind(kind Kind) *Builder {
	b.kind = kind
	return b
}

// WithName sets the display name.
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// WithCurrency sets the currency for all monetary fields.
func (b *Builder) WithCurrency(code money.Code) *Builder {
	b.currency = code
	return b
}

// WithBalance sets the balance in the smallest currency unit.
func (b *Builder) WithBalance(balance int64) *Builder {
	b.balance = balance
	return b
}

// WithPriorityRank sets the user-configured preference rank (1 = most
// preferred).
func (b *Builder) WithPriorityRank(rank int) *Builder {
	b.priorityRank = rank
	return b
}

// WithLinkedStatus sets the linking state.
func (b *Builder) WithLinkedStatus(status LinkedStatus) *Builder {
	b.linkedStatus = status
	return b
}

// WithAvailable sets availability.
func (b *Builder) WithAvailable(available bool) *Builder {
	b.available = available
	return b
}

// WithCapabilities sets the capability tags.
func (b *Builder) WithCapabilities(caps ...Capability) *Builder {
	b.capabilities = NewCapabilities(caps...)
	return b
}

// WithMaxAutoTopUp sets the auto top-up allowance in the smallest
// currency unit.
func (b *Builder) WithMaxAutoTopUp(amount int64) *Builder {
	b.maxAutoTopUp = amount
	return b
}

// WithExtraConfirmAbove sets the extra-confirmation threshold in the
// smallest currency unit.
func (b *Builder) WithExtraConfirmAbove(amount int64) *Builder {
	b.extraConfirmAbove = amount
	return b
}

// Build validates all invariants and returns the FundingSource.
func (b *Builder) Build() (*FundingSource, error) {
	if b.id == "" {
		return nil, ErrRailIDRequired
	}
	if b.priorityRank < 1 {
		return nil, ErrInvalidPriorityRank
	}
	balance, err := money.NewFromSmallestUnit(b.balance, b.currency)
	if err != nil {
		return nil, err
	}
	maxTopUp, err := money.NewFromSmallestUnit(b.maxAutoTopUp, b.currency)
	if err != nil {
		return nil, err
	}
	extraConfirm, err := money.NewFromSmallestUnit(b.extraConfirmAbove, b.currency)
	if err != nil {
		return nil, err
	}
	return &FundingSource{
		ID:                b.id,
		UserID:            b.userID,
		Kind:              b.kind,
		Name:              b.name,
		Balance:           balance,
		PriorityRank:      b.priorityRank,
		LinkedStatus:      b.linkedStatus,
		Available:         b.available,
		Capabilities:      b.capabilities,
		MaxAutoTopUp:      maxTopUp,
		ExtraConfirmAbove: extraConfirm,
	}, nil
}
