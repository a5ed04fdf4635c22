// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"
)

// Damp returns the relaxed update step*proposed + (1-step)*current.
// A step of 1 returns proposed unchanged.
func Damp(step, proposed, current float64) float64 {
	return step*proposed + (1-step)*current
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// AllFinite reports whether every value is finite.
func AllFinite(vals ...float64) bool {
	for _, v := range vals {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

// SameSign reports whether a and b are both strictly positive or both
// strictly negative. Zero has no sign.
func SameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
