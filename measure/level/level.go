// Package level computes block level statistics used to compare a signal
// before and after dynamic-range processing.
package level

import "math"

// Stats holds the level statistics of a block.
//
//nolint:revive
type Stats struct {
	Length         int
	Peak           float64 // max |x|
	Peak_dB        float64
	RMS            float64
	RMS_dB         float64
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
}

// Change is the difference wet - dry of two Stats, in dB.
//
//nolint:revive
type Change struct {
	Peak_dB        float64
	RMS_dB         float64
	CrestFactor_dB float64
}

// Calculate computes the statistics of signal in a single pass.
// Non-finite samples are skipped.
func Calculate(signal []float64) Stats {
	var (
		peak  float64
		sumSq float64
		n     int
	)

	for _, x := range signal {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}

		peak = math.Max(peak, math.Abs(x))
		sumSq += x * x
		n++
	}

	s := Stats{Length: n, Peak: peak}
	if n > 0 {
		s.RMS = math.Sqrt(sumSq / float64(n))
	}

	if s.RMS > 0 {
		s.CrestFactor = s.Peak / s.RMS
	}

	s.Peak_dB = ampTodB(s.Peak)
	s.RMS_dB = ampTodB(s.RMS)
	s.CrestFactor_dB = ampTodB(s.CrestFactor)

	return s
}

// Compare returns how the levels of wet differ from dry. A compressor
// lowers the crest factor, so CrestFactor_dB is negative when it works.
func Compare(dry, wet []float64) Change {
	d := Calculate(dry)
	w := Calculate(wet)

	return Change{
		Peak_dB:        w.Peak_dB - d.Peak_dB,
		RMS_dB:         w.RMS_dB - d.RMS_dB,
		CrestFactor_dB: w.CrestFactor_dB - d.CrestFactor_dB,
	}
}

// ampTodB converts an amplitude to decibels. Returns -Inf for zero.
func ampTodB(value float64) float64 {
	if value == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(value)
}
