//go:build fastmath

package dynamics

import (
	"github.com/meko-christian/algo-approx"
)

// ln10 is the natural logarithm of 10, used for base conversions.
const ln10 = 2.302585092994045684017991454684

// mathLog10 computes log10(x) using fast approximation.
// Uses the identity: log10(x) = ln(x) / ln(10)
func mathLog10(x float64) float64 {
	return approx.FastLog(x) / ln10
}

// mathPower10 computes 10^x using fast approximation.
// Uses the identity: 10^x = e^(x * ln(10))
func mathPower10(x float64) float64 {
	return approx.FastExp(x * ln10)
}

// mathSqrt computes sqrt(x) using fast approximation.
func mathSqrt(x float64) float64 {
	return approx.FastSqrt(x)
}
