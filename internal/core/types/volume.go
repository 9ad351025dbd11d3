// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Volume represents a fuel volume in litres with full precision.
// Uses decimal.Decimal to avoid floating-point errors in the
// reconciliation arithmetic.
type Volume = decimal.Decimal

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// Epsilon is the comparison tolerance for accumulated volumes (0.01 L).
// Meter readings are recorded to two decimals; the tolerance absorbs
// rounding noise when received quantities are summed across deliveries.
var Epsilon = decimal.New(1, -2)

// NewVolume creates a Volume value from a float.
// WARNING: Use NewVolumeFromString for precise values.
func NewVolume(f float64) Volume {
	return decimal.NewFromFloat(f)
}

// NewVolumeFromString creates a Volume value from a string.
// This is the preferred method for persisted values.
func NewVolumeFromString(s string) (Volume, error) {
	return decimal.NewFromString(s)
}

// MustVolume creates a Volume value from a string, panics on error.
// Use only for constants and tests.
func MustVolume(s string) Volume {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Volume value.
func Zero() Volume {
	return decimal.Zero
}

// WithinEpsilon reports whether a and b differ by at most Epsilon.
func WithinEpsilon(a, b Volume) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// ExceedsCeiling reports whether total exceeds ceiling by more than Epsilon.
// Used for the ordered-quantity check: total <= ceiling + ε passes.
func ExceedsCeiling(total, ceiling Volume) bool {
	return total.GreaterThan(ceiling.Add(Epsilon))
}

// IsEffectivelyZero reports whether v is within Epsilon of zero.
// Deltas this small produce no tank mutation and no ledger entry.
func IsEffectivelyZero(v Volume) bool {
	return v.Abs().LessThanOrEqual(Epsilon)
}
