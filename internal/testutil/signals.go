package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Step generates a signal that holds before until index at and after from
// there on.
func Step(before, after float64, at, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		if i < at {
			out[i] = before
		} else {
			out[i] = after
		}
	}
	return out
}

// Hostile returns a signal that cycles through NaN, infinities, denormals,
// very large and ordinary values.
func Hostile(length int) []float64 {
	pattern := []float64{
		math.NaN(), math.Inf(1), math.Inf(-1), math.SmallestNonzeroFloat64, -1e300, 1e300,
		0, 0.5, -0.5, 1, -1,
	}
	out := make([]float64, length)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}
