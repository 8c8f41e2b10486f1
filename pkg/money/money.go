// Package money provides a value object for monetary amounts.
//
// Invariants:
//   - Amount is always stored in the smallest currency unit (e.g., sen for MYR).
//   - Currency code must be valid ISO 4217 (3 uppercase letters).
//   - All arithmetic operations require matching currencies.
package money

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
)

var (
	// ErrInvalidAmount is returned when an amount has more decimal
	// places than the currency allows or cannot be represented.
	ErrInvalidAmount = fmt.Errorf("invalid amount")

	// ErrAmountExceedsMaxSafeInt is returned when an amount exceeds the
	// maximum safe integer value.
	ErrAmountExceedsMaxSafeInt = fmt.Errorf("amount exceeds maximum safe integer value")

	// ErrInvalidCurrency is returned when a currency code is invalid.
	ErrInvalidCurrency = fmt.Errorf("invalid currency code")

	// ErrCurrencyMismatch is returned when performing operations on
	// money with different currencies.
	ErrCurrencyMismatch = fmt.Errorf("currency mismatch")
)

// Amount represents a monetary amount as an integer in the smallest
// currency unit (e.g., sen for MYR).
type Amount = int64

// Money represents a monetary value in a specific currency.
type Money struct {
	amount   Amount
	currency Currency
}

// New creates a new Money value object with the given amount in main
// units and a currency given as a Code, Currency, or string.
// Invariants enforced:
//   - Currency must be valid.
//   - Amount must not have more decimal places than allowed by the currency.
//   - Amount is converted to the smallest currency unit.
func New(amount float64, currency any) (Money, error) {
	c, err := coerceCurrency(currency)
	if err != nil {
		return Money{}, err
	}

	smallest, err := convertToSmallestUnit(amount, c)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: smallest, currency: c}, nil
}

// NewFromSmallestUnit creates a Money object directly from the smallest
// currency unit. Used for repository hydration and test setup.
func NewFromSmallestUnit(amount int64, currency any) (Money, error) {
	c, err := coerceCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: c}, nil
}

// Must creates a Money object and panics if any invariant is violated.
// Intended for fixtures and package-level constants only.
func Must(amount float64, currency any) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(fmt.Sprintf("money.Must(%v, %v): %v", amount, currency, err))
	}
	return m
}

// Zero creates a Money object with zero amount in the given currency.
func Zero(c Code) Money {
	return Money{amount: 0, currency: c.ToCurrency()}
}

// Amount returns the amount in the smallest currency unit.
func (m Money) Amount() Amount {
	return m.amount
}

// AmountFloat returns the amount as a float64 in the main currency unit.
func (m Money) AmountFloat() float64 {
	divisor := math.Pow10(m.currency.Decimals)
	return float64(m.amount) / divisor
}

// Currency returns the currency of the Money object.
func (m Money) Currency() Currency {
	return m.currency
}

// Code returns the currency code of the Money object.
func (m Money) Code() Code {
	return m.currency.Code
}

// Add adds another Money object; currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Subtract subtracts another Money object; currencies must match.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// Equals checks value and currency equality.
func (m Money) Equals(other Money) bool {
	return m.IsSameCurrency(other) && m.amount == other.amount
}

// GreaterThan reports whether m > other; currencies must match.
func (m Money) GreaterThan(other Money) (bool, error) {
	if !m.IsSameCurrency(other) {
		return false, ErrCurrencyMismatch
	}
	return m.amount > other.amount, nil
}

// LessThan reports whether m < other; currencies must match.
func (m Money) LessThan(other Money) (bool, error) {
	if !m.IsSameCurrency(other) {
		return false, ErrCurrencyMismatch
	}
	return m.amount < other.amount, nil
}

// IsSameCurrency checks if both Money objects share a currency.
func (m Money) IsSameCurrency(other Money) bool {
	return m.currency.Code == other.currency.Code
}

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.amount < 0 }

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// String returns a human-readable representation, e.g. "12.50 MYR".
func (m Money) String() string {
	return fmt.Sprintf("%.*f %s", m.currency.Decimals, m.AmountFloat(), m.currency.Code)
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"amount":   m.amount,
		"currency": m.currency.Code,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var aux struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c := Code(aux.Currency).ToCurrency()
	if !c.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidCurrency, aux.Currency)
	}
	m.amount = aux.Amount
	m.currency = c
	return nil
}

func coerceCurrency(currency any) (Currency, error) {
	var c Currency
	switch v := currency.(type) {
	case string:
		code := Code(v)
		if !code.IsValid() {
			return Currency{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, v)
		}
		c = code.ToCurrency()
	case Code:
		c = v.ToCurrency()
	case Currency:
		c = v
	default:
		return Currency{}, fmt.Errorf(
			"invalid currency type: %T, expected string, Code, or Currency", currency)
	}
	if !c.IsValid() {
		return Currency{}, fmt.Errorf("%w: %v", ErrInvalidCurrency, c)
	}
	return c, nil
}

// convertToSmallestUnit converts a float64 amount to the smallest
// currency unit using big.Rat to avoid floating-point drift.
func convertToSmallestUnit(amount float64, c Currency) (int64, error) {
	amountStr := fmt.Sprintf("%.10f", amount)
	parts := strings.Split(amountStr, ".")
	if len(parts) > 1 {
		decimals := strings.TrimRight(parts[1], "0")
		if len(decimals) > c.Decimals {
			return 0, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, c.Decimals)
		}
	}

	amountStr = fmt.Sprintf("%.*f", c.Decimals, amount)
	amountRat, ok := new(big.Rat).SetString(amountStr)
	if !ok {
		return 0, fmt.Errorf("%w: %f", ErrInvalidAmount, amount)
	}

	multiplier := int64(math.Pow10(c.Decimals))
	smallestRat := new(big.Rat).Mul(amountRat, big.NewRat(multiplier, 1))
	if !smallestRat.IsInt() {
		return 0, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, c.Decimals)
	}

	smallest := smallestRat.Num()
	if !smallest.IsInt64() {
		return 0, ErrAmountExceedsMaxSafeInt
	}
	return smallest.Int64(), nil
}
