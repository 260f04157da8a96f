// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings,
// converting between cents and peso representations and encoding amounts
// as plain JSON numbers.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

// CurrencySymbol is prepended to every formatted amount.
const CurrencySymbol = "₱"

// MaxCents bounds every accepted amount (one trillion pesos). Allocation
// percentages and monthly projections stay within int64 below it.
const MaxCents int64 = 100_000_000_000_000

// ParseAmount converts a decimal string to Money with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. A leading minus sign is kept so
// that callers can decide whether negative values are acceptable.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents (rounds up)
//	ParseAmount("-5")     -> -500 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return Money{}, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64-1 {
		return Money{}, ErrInvalidAmount
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

// FromFloat converts a currency-unit float to Money, rounding half away from zero.
func FromFloat(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, ErrInvalidAmount
	}
	scaled := math.Round(v * 100)
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if scaled >= math.MaxInt64 || scaled < math.MinInt64 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: int64(scaled)}, nil
}

// Pesos returns the value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Pesos() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool { return m.Cents == 0 }

// Times multiplies by an integer factor (monthly projections use 4).
func (m Money) Times(n int64) Money { return Money{Cents: m.Cents * n} }

// String renders the amount in currency units without a symbol, e.g. "-12.05".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// MarshalJSON encodes the amount as a plain JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts any JSON number; null leaves the zero value.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decode amount %q: %w", s, ErrInvalidAmount)
	}
	parsed, err := FromFloat(v)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// FormatPeso formats an amount with the peso sign, thousands separators and
// two decimals, e.g. "₱1,234.50" or "-₱20.00".
func FormatPeso(m Money) string {
	c := m.Cents
	neg := c < 0
	if neg {
		c = -c
	}
	s := CurrencySymbol + humanize.Comma(c/100) + fmt.Sprintf(".%02d", c%100)
	if neg {
		return "-" + s
	}
	return s
}
