package core

import "math"

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// OrElse returns v when it is finite and fallback otherwise.
//
// Gain-path quantities use a fallback of 1 (unity), level-path quantities
// use 0 (silence).
func OrElse(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}

	return v
}

// Sanitize maps NaN and infinite input samples to silence.
func Sanitize(x float64) float64 {
	return OrElse(x, 0)
}

// FlushDenormals converts values below 1e-30 in magnitude to exact zero,
// keeping decaying filter state out of the denormal range.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db*0.05)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Negative amplitudes are treated as zero, so the result for any
// non-positive input is -Inf. NaN propagates.
func LinearToDB(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// ToRange maps a normalized value in [0, 1] onto [bottom, top].
func ToRange(bottom, top, x float64) float64 {
	return x*(top-bottom) + bottom
}

// FromRange maps value from [bottom, top] onto the normalized range [0, 1].
// A degenerate range maps everything to 0.
func FromRange(bottom, top, x float64) float64 {
	span := top - bottom
	if span == 0 {
		return 0
	}

	return (x - bottom) / span
}
