// Package core provides the energy record model and the value types derived from it.
//
// This file contains amount parsing and the two-decimal rounding used for every
// monetary and volume figure that leaves the statistics engine.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimal places.
//
// Examples:
//
//	Round2(4.455)  -> 4.46
//	Round2(-4.455) -> -4.46
//	Round2(1.004)  -> 1
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatFixed2 renders v with exactly two decimals, the way amounts are displayed.
func FormatFixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// ParseAmount converts a user-entered decimal string to a non-negative float.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. An empty
// string is zero, since a record only fills in the quantity matching its type.
// Returns ErrInvalidAmount for malformed input and ErrNegativeAmount for
// values below zero.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	return d.InexactFloat64(), nil
}
