// Package money holds the 2-decimal amount helpers shared by the ledger,
// allocator and projections. Amounts are float64 columns of scale 2; every
// arithmetic result that lands in the database goes through Round2 first.
package money

import "math"

// Tolerance is the slack allowed when comparing caller-supplied totals
// against ledger balances.
const Tolerance = 0.01

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Equal reports whether two amounts match within Tolerance.
func Equal(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}

// GreaterThan reports a > b beyond Tolerance.
func GreaterThan(a, b float64) bool {
	return a > b+Tolerance
}

// IsZero reports whether an amount rounds to zero at 2 decimals.
func IsZero(v float64) bool {
	return math.Abs(v) < 0.005
}
