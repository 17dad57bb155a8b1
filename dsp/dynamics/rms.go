package dynamics

import (
	"math"

	"github.com/cwbudde/algo-comp/dsp/buffer"
	"github.com/cwbudde/algo-comp/dsp/core"
)

// AccumulatingRMS is a sliding-window RMS estimator.
//
// It keeps the squared input in a buffer.Ring and maintains the sum of the
// ring contents incrementally, so each sample costs O(1) regardless of the
// window length. The ring is allocated once for the largest window; changing
// the window only changes the logical ring size.
type AccumulatingRMS struct {
	ring       *buffer.Ring[float64]
	runningSum float64
	// maxSquare bounds a single squared sample so a full window cannot
	// overflow the running sum.
	maxSquare float64
}

// NewAccumulatingRMS returns an estimator with storage for capacity squared
// samples and a window of windowMs at sampleRate.
func NewAccumulatingRMS(sampleRate, windowMs float64, capacity int) *AccumulatingRMS {
	a := &AccumulatingRMS{ring: buffer.NewRing[float64](capacity)}
	a.maxSquare = math.MaxFloat64 / float64(2*a.ring.Cap())
	a.ring.Resize(rmsWindowSamples(sampleRate, windowMs, a.ring.Cap()))

	return a
}

// Process adds x to the window and returns the current RMS value.
func (a *AccumulatingRMS) Process(x float64) float64 {
	// NaN counts as silence, oversized or infinite input as the bound.
	sq := core.OrElse(min(x*x, a.maxSquare), 0)

	a.runningSum += sq - a.ring.Oldest()
	a.ring.Push(sq)

	mean := a.runningSum / float64(a.ring.Len())
	if mean <= 0 {
		// Catches float drift below zero as well as silence.
		return 0
	}

	return core.OrElse(mathSqrt(mean), 0)
}

// Resize sets the window to round(sampleRate*windowMs/1000) samples, clamped
// to [1, capacity]. When the length changes the window contents and the
// running sum are cleared. It reports whether a reset happened.
func (a *AccumulatingRMS) Resize(sampleRate, windowMs float64) bool {
	n := rmsWindowSamples(sampleRate, windowMs, a.ring.Cap())
	if n == a.ring.Len() {
		return false
	}

	a.ring.Resize(n)
	a.runningSum = 0

	return true
}

// Reset clears the window without changing its length.
func (a *AccumulatingRMS) Reset() {
	a.ring.Reset()
	a.runningSum = 0
}

// WindowSamples returns the current window length in samples.
func (a *AccumulatingRMS) WindowSamples() int { return a.ring.Len() }

// Capacity returns the largest window the estimator can hold.
func (a *AccumulatingRMS) Capacity() int { return a.ring.Cap() }

// Sum returns the running sum of squares.
func (a *AccumulatingRMS) Sum() float64 { return a.runningSum }

// rmsWindowSamples converts a window duration to a sample count in
// [1, capacity].
func rmsWindowSamples(sampleRate, windowMs float64, capacity int) int {
	n := math.Round(sampleRate * windowMs / 1000)
	if math.IsNaN(n) || n < 1 {
		return 1
	}

	if n > float64(capacity) {
		return capacity
	}

	return int(n)
}

// rmsCapacity returns the ring capacity needed for the largest RMS window
// at maxSampleRate.
func rmsCapacity(maxSampleRate float64) int {
	return max(int(math.Ceil(maxSampleRate*MaxRMSWindowMs/1000)), 1)
}
