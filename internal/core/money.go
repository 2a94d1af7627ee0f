// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Parsing goes through shopspring/decimal
// so user input never touches float64, and display formatting goes through
// go-money so the currency symbol and grouping follow the currency code.
package core

import (
	"bytes"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency code is configured.
const DefaultCurrency = "USD"

// maxCents bounds parsed amounts so that sums of a few thousand
// transactions cannot overflow int64.
const maxCents = int64(1) << 52

type Money struct {
	Cents int64
}

// NewMoney returns an amount of whole currency units.
func NewMoney(units int64) Money {
	return Money{Cents: units * 100}
}

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for empty input, non-numeric input, signs,
// zero, or values too large to represent.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() || d.Shift(2).GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, ErrInvalidAmount
	}
	return d.Shift(2).IntPart(), nil
}

// ParseAmount parses user input into a strictly positive Money.
func ParseAmount(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > maxCents {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(n Money) Money        { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money        { return Money{Cents: m.Cents - n.Cents} }
func (m Money) IsZero() bool             { return m.Cents == 0 }
func (m Money) IsNegative() bool         { return m.Cents < 0 }
func (m Money) LessThan(n Money) bool    { return m.Cents < n.Cents }
func (m Money) GreaterThan(n Money) bool { return m.Cents > n.Cents }
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.Cents, -2) }

// String returns the plain decimal representation, e.g. "4900.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount in the given currency, e.g. "$5,000.00".
// Unknown currency codes fall back to DefaultCurrency.
func (m Money) Format(currency string) string {
	if !IsKnownCurrency(currency) {
		currency = DefaultCurrency
	}
	return money.New(m.Cents, strings.ToUpper(currency)).Display()
}

// IsKnownCurrency reports whether go-money knows the ISO code.
func IsKnownCurrency(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && money.GetCurrency(strings.ToUpper(code)) != nil
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	data = bytes.Trim(data, `"`)
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = d.Round(2).Shift(2).IntPart()
	return nil
}
