package money

// Code represents a 3-letter ISO 4217 currency code (e.g., "MYR", "USD").
type Code string

// Common currency codes.
const (
	MYR Code = "MYR"
	SGD Code = "SGD"
	USD Code = "USD"
	IDR Code = "IDR"
	THB Code = "THB"
)

// IsValid checks if the currency code is three uppercase ASCII letters.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	return c[0] >= 'A' && c[0] <= 'Z' &&
		c[1] >= 'A' && c[1] <= 'Z' &&
		c[2] >= 'A' && c[2] <= 'Z'
}

// String returns the string representation of the currency code.
func (c Code) String() string {
	return string(c)
}

// Currency represents a monetary unit with its standard decimal places.
type Currency struct {
	Code     Code // 3-letter ISO 4217 code (e.g., "MYR")
	Decimals int  // Number of decimal places (0-8)
}

// IsValid checks if the currency is valid.
func (c Currency) IsValid() bool {
	return c.Code.IsValid() && c.Decimals >= 0 && c.Decimals <= 8
}

// String returns the currency code as a string.
func (c Currency) String() string { return string(c.Code) }

// Common currency instances.
var (
	MYRCurrency = Currency{Code: MYR, Decimals: 2}
	SGDCurrency = Currency{Code: SGD, Decimals: 2}
	USDCurrency = Currency{Code: USD, Decimals: 2}
	IDRCurrency = Currency{Code: IDR, Decimals: 2}
	THBCurrency = Currency{Code: THB, Decimals: 2}
)

// DefaultCurrency is the default currency (MYR).
var DefaultCurrency = MYRCurrency

// DefaultCode is the default currency code (MYR).
var DefaultCode = MYR

// ToCurrency converts a Code to a Currency with its standard decimals.
func (c Code) ToCurrency() Currency {
	switch c {
	case MYR:
		return MYRCurrency
	case SGD:
		return SGDCurrency
	case USD:
		return USDCurrency
	case IDR:
		return IDRCurrency
	case THB:
		return THBCurrency
	default:
		return Currency{Code: c, Decimals: 2}
	}
}
