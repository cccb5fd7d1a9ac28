// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/hp12c/pkg/constants"
)

// maxFactorial is the largest n whose factorial fits in a float64.
const maxFactorial = 170

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.Tolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// IsInteger reports whether val is a finite whole number.
func IsInteger(val float64) bool {
	return IsFinite(val) && val == math.Trunc(val)
}

// Factorial returns n! for non-negative integers. Any other input, or a
// result too large for a float64, yields NaN.
func Factorial(n float64) float64 {
	if !IsInteger(n) || n < 0 || n > maxFactorial {
		return math.NaN()
	}
	result := 1.0
	for k := 2.0; k <= n; k++ {
		result *= k
	}
	return result
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}

// PercentChange returns the change from base to value as a percentage of
// base. A zero base yields NaN.
func PercentChange(base, value float64) float64 {
	if base == 0 {
		return math.NaN()
	}
	return (value - base) / base * constants.PercentageMultiplier
}

// PercentOfTotal returns what percentage value is of total. A zero total
// yields NaN.
func PercentOfTotal(value, total float64) float64 {
	if total == 0 {
		return math.NaN()
	}
	return value / total * constants.PercentageMultiplier
}
