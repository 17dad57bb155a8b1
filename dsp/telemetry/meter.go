package telemetry

import (
	"math"

	"github.com/cwbudde/algo-comp/dsp/dynamics"
	"github.com/cwbudde/algo-comp/dsp/filter/biquad"
)

const (
	smoothingFreq = 50.0
	smoothingQ    = 0.2
	meterRMSMs    = 5.0

	// SamplesPerSecond is the approximate telemetry rate after decimation.
	SamplesPerSecond = 512
)

// Meter is the producer side of the telemetry path. Feed it every output
// frame from the audio goroutine; roughly SamplesPerSecond times a second it
// pushes a Sample into its channel.
//
// All storage is allocated in NewMeter. Process and SetSampleRate never
// allocate.
type Meter struct {
	ch *Channel[Sample]

	lpLeft  biquad.Section
	lpRight biquad.Section
	lpGain  biquad.Section

	rmsLeft  *dynamics.AccumulatingRMS
	rmsRight *dynamics.AccumulatingRMS

	sampleRate float64
	interval   int
	count      int
}

// NewMeter returns a meter pushing into ch. maxSampleRate bounds the RMS
// window storage.
func NewMeter(ch *Channel[Sample], sampleRate, maxSampleRate float64) *Meter {
	capacity := max(int(math.Ceil(max(maxSampleRate, sampleRate)*meterRMSMs/1000)), 1)

	m := &Meter{
		ch:       ch,
		rmsLeft:  dynamics.NewAccumulatingRMS(sampleRate, meterRMSMs, capacity),
		rmsRight: dynamics.NewAccumulatingRMS(sampleRate, meterRMSMs, capacity),
	}
	m.SetSampleRate(sampleRate)

	return m
}

// SetSampleRate recomputes the smoothing filters, the RMS windows and the
// decimation interval. Filter state is kept.
func (m *Meter) SetSampleRate(sampleRate float64) {
	m.sampleRate = sampleRate

	c := biquad.Lowpass(smoothingFreq, smoothingQ, sampleRate)
	m.lpLeft.SetCoefficients(c)
	m.lpRight.SetCoefficients(c)
	m.lpGain.SetCoefficients(c)

	m.rmsLeft.Resize(sampleRate, meterRMSMs)
	m.rmsRight.Resize(sampleRate, meterRMSMs)

	m.interval = 0
	if sampleRate > 0 && !math.IsInf(sampleRate, 0) {
		m.interval = int(sampleRate) / SamplesPerSecond
	}
}

// Process consumes one frame: the sanitized left/right input and the gain
// multiplier applied to it.
func (m *Meter) Process(left, right, cv float64) {
	levelL := m.lpLeft.ProcessSample(math.Abs(left))
	levelR := m.lpRight.ProcessSample(math.Abs(right))
	gain := m.lpGain.ProcessSample(cv)

	rmsL := m.rmsLeft.Process(left)
	rmsR := m.rmsRight.Process(right)

	if m.count >= m.interval {
		m.ch.TryPush(Sample{
			LeftLevel:     levelL,
			RightLevel:    levelR,
			LeftRMS:       rmsL,
			RightRMS:      rmsR,
			GainReduction: gain,
		})
		m.count = 0
	}

	m.count++
}

// Reset clears the filter and RMS state and restarts decimation.
func (m *Meter) Reset() {
	m.lpLeft.Reset()
	m.lpRight.Reset()
	m.lpGain.Reset()
	m.rmsLeft.Reset()
	m.rmsRight.Reset()
	m.count = 0
}

// Interval returns the decimation interval in frames.
func (m *Meter) Interval() int { return m.interval }

// Channel returns the channel the meter pushes into.
func (m *Meter) Channel() *Channel[Sample] { return m.ch }
