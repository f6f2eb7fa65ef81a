// Package money converts between wire/text amounts and int64 minor currency units.
//
// Parsing is exact: a value that cannot be represented as a whole number of minor
// units is rejected instead of rounded.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultExponent is the number of minor-unit digits of the default currency (cents).
const DefaultExponent int32 = 2

var (
	ErrInvalidFormat = errors.New("invalid amount format")
	ErrNotIntegral   = errors.New("amount is not a whole number of minor units")
	ErrOutOfRange    = errors.New("amount out of range")
)

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// ParseMinor parses a decimal string that is already expressed in minor units
// (e.g., "1234" for 12.34). Fractional minor units are rejected.
//
//	ParseMinor("1234")   -> 1234, nil
//	ParseMinor("1234.0") -> 1234, nil
//	ParseMinor("12.5")   -> 0, ErrNotIntegral
func ParseMinor(s string) (int64, error) {
	return parse(s, 0)
}

// ParseMajor parses a decimal string in major units (e.g., "12.34") into minor
// units using the given exponent. Values with more fractional digits than the
// exponent allows are rejected.
//
//	ParseMajor("12.34", 2)  -> 1234, nil
//	ParseMajor("12,5", 2)   -> 1250, nil
//	ParseMajor("12.345", 2) -> 0, ErrNotIntegral
func ParseMajor(s string, exponent int32) (int64, error) {
	return parse(s, exponent)
}

func parse(s string, exponent int32) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidFormat
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	d = d.Shift(exponent)
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %q", ErrNotIntegral, s)
	}
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return d.IntPart(), nil
}

// Format renders minor units as a fixed-point major-unit string.
//
//	Format(1234, 2) -> "12.34"
//	Format(-5, 2)   -> "-0.05"
func Format(minor int64, exponent int32) string {
	return decimal.New(minor, -exponent).StringFixed(exponent)
}
