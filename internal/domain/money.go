package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money is an exact monetary value: a signed amount in minor units
// (cents for USD) tagged with an ISO 4217 currency code. All ledger
// arithmetic happens on the integer amount, never on floats.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Minor-unit exponents per currency. Currencies not listed use 2.
var currencyExponents = map[string]int32{
	"USD": 2, "EUR": 2, "GBP": 2, "CHF": 2,
	"CAD": 2, "AUD": 2, "PLN": 2, "SEK": 2,
	"JPY": 0, "KRW": 0,
	"BHD": 3, "KWD": 3,
}

// CurrencyExponent returns the number of minor-unit digits for a currency.
func CurrencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[currency]; ok {
		return exp
	}

	return 2
}

// NewMoney creates a Money value from an amount in minor units.
func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// ParseMoney parses a decimal string ("12.34") into minor units.
// It fails with ErrInvalidAmount if the value cannot be represented
// exactly in the currency's minor unit.
func ParseMoney(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}

	shifted := d.Shift(CurrencyExponent(currency))
	if !shifted.IsInteger() {
		return Money{}, fmt.Errorf("%w: %q has sub-minor-unit precision", ErrInvalidAmount, value)
	}

	big := shifted.BigInt()
	if !big.IsInt64() {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, value)
	}

	return Money{Amount: big.Int64(), Currency: currency}, nil
}

// addInt64 returns a + b and whether the sum fits in an int64.
func addInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, false
	}

	return sum, true
}

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}

	sum, ok := addInt64(m.Amount, other.Amount)
	if !ok {
		return Money{}, fmt.Errorf("%w: %s + %s overflows", ErrInvalidAmount, m, other)
	}

	return Money{Amount: sum, Currency: m.Currency}, nil
}

// Sub returns m - other. Both operands must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}

	if other.Amount == math.MinInt64 {
		return Money{}, fmt.Errorf("%w: %s - %s overflows", ErrInvalidAmount, m, other)
	}

	diff, ok := addInt64(m.Amount, -other.Amount)
	if !ok {
		return Money{}, fmt.Errorf("%w: %s - %s overflows", ErrInvalidAmount, m, other)
	}

	return Money{Amount: diff, Currency: m.Currency}, nil
}

// Neg returns the exact negation of m.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// Equal reports whether two values have the same amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// String renders the value in major units, e.g. "-12.34 USD".
func (m Money) String() string {
	exp := CurrencyExponent(m.Currency)
	d := decimal.New(m.Amount, -exp)

	return d.StringFixed(exp) + " " + m.Currency
}
