package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-comp/dsp/core"
)

// DetectorMode selects the envelope detection algorithm.
type DetectorMode int

const (
	// DetectorBallistics follows the linear magnitude with asymmetric
	// attack/release one-pole smoothing.
	DetectorBallistics DetectorMode = iota
	// DetectorBallisticsSquared applies the same ballistics to the squared
	// magnitude and returns its square root.
	DetectorBallisticsSquared
	// DetectorRMS feeds a sliding-window RMS through a symmetric
	// pre-smoothing pole and then through linear ballistics.
	DetectorRMS
	// DetectorDecoupledPeak is a two-stage peak-hold-then-smooth filter. In a
	// Core it shapes the gain-reduction signal rather than the input level.
	DetectorDecoupledPeak
)

func (m DetectorMode) String() string {
	switch m {
	case DetectorBallistics:
		return "ballistics"
	case DetectorBallisticsSquared:
		return "ballistics-squared"
	case DetectorRMS:
		return "rms"
	case DetectorDecoupledPeak:
		return "decoupled-peak"
	default:
		return fmt.Sprintf("DetectorMode(%d)", int(m))
	}
}

func (m DetectorMode) valid() bool {
	return m >= DetectorBallistics && m <= DetectorDecoupledPeak
}

// Angular-rate constants for the two coefficient families.
const (
	ballisticsRate = 2 * math.Pi * 1000
	peakRate       = math.Pi * 1000
)

// BallisticsCoefficient returns exp(-2π·1000/timeMs/sampleRate), the pole
// used by the ballistics and pre-smoothing stages. Zero, negative or
// non-finite inputs give 0, i.e. an instantaneous response.
func BallisticsCoefficient(timeMs, sampleRate float64) float64 {
	return onePoleCoefficient(ballisticsRate, timeMs, sampleRate)
}

// PeakCoefficient returns exp(-π·1000/timeMs/sampleRate), the pole used by
// the decoupled peak detector.
func PeakCoefficient(timeMs, sampleRate float64) float64 {
	return onePoleCoefficient(peakRate, timeMs, sampleRate)
}

func onePoleCoefficient(rate, timeMs, sampleRate float64) float64 {
	if !(timeMs > 0) || !(sampleRate > 0) {
		return 0
	}

	return core.OrElse(math.Exp(-rate/timeMs/sampleRate), 0)
}

// DetectorConfig carries the time constants of an EnvelopeDetector.
// Fields a mode does not use are ignored.
type DetectorConfig struct {
	SampleRate  float64
	AttackMs    float64
	ReleaseMs   float64
	PreSmoothMs float64
	RMSWindowMs float64
	// SmoothPeakHold selects env = max(x, r·env + (1-r)·x) for stage 1 of
	// the decoupled peak detector instead of env = max(x, r·env).
	SmoothPeakHold bool
}

// EnvelopeDetector produces a smoothed level estimate from a rectified
// input. All variants share one type so a Core can switch between them
// without changing its pipeline.
//
// EnvelopeDetector is not safe for concurrent use.
type EnvelopeDetector struct {
	mode       DetectorMode
	smoothHold bool

	attackCoeff    float64
	releaseCoeff   float64
	preSmoothCoeff float64

	env  float64
	env2 float64
	pre  float64

	rms       *AccumulatingRMS
	rmsActive bool
}

// NewEnvelopeDetector returns a detector in the given mode. rmsCapacity
// bounds the RMS window of DetectorRMS and is ignored by other modes.
func NewEnvelopeDetector(mode DetectorMode, rmsCapacity int) (*EnvelopeDetector, error) {
	if !mode.valid() {
		return nil, fmt.Errorf("invalid detector mode: %d", mode)
	}

	d := &EnvelopeDetector{mode: mode}
	if mode == DetectorRMS {
		d.rms = NewAccumulatingRMS(0, 0, rmsCapacity)
	}

	d.Reset()

	return d, nil
}

// Configure recomputes the coefficients. Detector state is left untouched,
// except that the RMS window is cleared when its length changes.
func (d *EnvelopeDetector) Configure(cfg DetectorConfig) {
	d.smoothHold = cfg.SmoothPeakHold

	if d.mode == DetectorDecoupledPeak {
		d.attackCoeff = PeakCoefficient(cfg.AttackMs, cfg.SampleRate)
		d.releaseCoeff = PeakCoefficient(cfg.ReleaseMs, cfg.SampleRate)
	} else {
		d.attackCoeff = BallisticsCoefficient(cfg.AttackMs, cfg.SampleRate)
		d.releaseCoeff = BallisticsCoefficient(cfg.ReleaseMs, cfg.SampleRate)
	}

	if d.mode == DetectorRMS {
		d.preSmoothCoeff = BallisticsCoefficient(cfg.PreSmoothMs, cfg.SampleRate)
		d.rmsActive = math.Round(cfg.SampleRate*cfg.RMSWindowMs/1000) >= 1
		d.rms.Resize(cfg.SampleRate, cfg.RMSWindowMs)
	}
}

// Process feeds one rectified sample and returns the new envelope.
//
// The level modes return a non-finite result unchanged so the caller can
// treat it as full scale; their stored state falls back to 1 instead.
// DetectorDecoupledPeak substitutes 1 after each stage.
func (d *EnvelopeDetector) Process(x float64) float64 {
	switch d.mode {
	case DetectorBallisticsSquared:
		return d.processSquared(x)
	case DetectorRMS:
		return d.processRMS(x)
	case DetectorDecoupledPeak:
		return d.processDecoupled(x)
	default:
		return d.processLinear(x)
	}
}

func (d *EnvelopeDetector) processLinear(x float64) float64 {
	c := d.releaseCoeff
	if x >= d.env {
		c = d.attackCoeff
	}

	v := x + c*(d.env-x)
	d.env = core.OrElse(v, 1)

	return v
}

func (d *EnvelopeDetector) processSquared(x float64) float64 {
	c := d.releaseCoeff
	if x >= d.env {
		c = d.attackCoeff
	}

	// Squares saturate at MaxFloat64 so oversized input still reads as loud.
	sq := min(x*x, math.MaxFloat64)
	envSq := sq + c*(min(d.env*d.env, math.MaxFloat64)-sq)
	v := mathSqrt(envSq)
	d.env = core.OrElse(v, 1)

	return v
}

func (d *EnvelopeDetector) processRMS(x float64) float64 {
	if d.rmsActive {
		x = d.rms.Process(x)
	}

	v := x + d.preSmoothCoeff*(d.pre-x)
	d.pre = core.OrElse(v, 1)

	return d.processLinear(v)
}

func (d *EnvelopeDetector) processDecoupled(x float64) float64 {
	held := d.releaseCoeff * d.env
	if d.smoothHold {
		held += (1 - d.releaseCoeff) * x
	}

	d.env = core.OrElse(math.Max(x, held), 1)
	d.env2 = core.OrElse(d.attackCoeff*d.env2+(1-d.attackCoeff)*d.env, 1)

	return d.env2
}

// Reset clears all detector state.
func (d *EnvelopeDetector) Reset() {
	d.env = 0
	d.env2 = 0
	d.pre = 0

	if d.rms != nil {
		d.rms.Reset()
	}
}

// Mode returns the detector variant.
func (d *EnvelopeDetector) Mode() DetectorMode { return d.mode }

// Envelope returns the current output envelope.
func (d *EnvelopeDetector) Envelope() float64 {
	if d.mode == DetectorDecoupledPeak {
		return d.env2
	}

	return d.env
}

// AttackCoeff returns the attack pole.
func (d *EnvelopeDetector) AttackCoeff() float64 { return d.attackCoeff }

// ReleaseCoeff returns the release pole.
func (d *EnvelopeDetector) ReleaseCoeff() float64 { return d.releaseCoeff }

// RMSWindowSamples returns the RMS window length, or 0 when the mode has no
// RMS stage or the stage is bypassed.
func (d *EnvelopeDetector) RMSWindowSamples() int {
	if d.rms == nil || !d.rmsActive {
		return 0
	}

	return d.rms.WindowSamples()
}
