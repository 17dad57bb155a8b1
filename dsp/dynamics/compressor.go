package dynamics

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-comp/dsp/core"
)

// State is the lifecycle stage of a Core.
type State int

const (
	// StateUninitialized means no parameters have been applied yet.
	StateUninitialized State = iota
	// StateConfigured means parameters are applied but no sample was
	// processed since.
	StateConfigured
	// StateProcessing means the core is running in steady state.
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// GainWiring selects how the dB gain change reaches the output multiplier.
type GainWiring int

const (
	// GainWiringDirect converts the gain computer output to linear
	// immediately. Attack/release act on the detected level.
	GainWiringDirect GainWiring = iota
	// GainWiringDecoupled passes the negated dB reduction through a
	// decoupled peak detector before conversion. Attack/release act on the
	// gain-reduction signal.
	GainWiringDecoupled
)

func (w GainWiring) String() string {
	switch w {
	case GainWiringDirect:
		return "direct"
	case GainWiringDecoupled:
		return "decoupled"
	default:
		return fmt.Sprintf("GainWiring(%d)", int(w))
	}
}

// ErrNotConfigured is returned by accessors that need applied parameters.
var ErrNotConfigured = errors.New("dynamics: core has no parameters")

type coreConfig struct {
	detector       DetectorMode
	smoothPeakHold bool
}

// CoreOption configures a Core at construction time.
type CoreOption func(*coreConfig)

// WithDetector selects the detector variant. DetectorDecoupledPeak implies
// GainWiringDecoupled: the level is taken from an RMS/pre-smoothing stage
// without ballistics and the attack/release shaping is applied to the gain
// reduction. All other modes use GainWiringDirect.
func WithDetector(mode DetectorMode) CoreOption {
	return func(cfg *coreConfig) {
		cfg.detector = mode
	}
}

// WithSmoothPeakHold selects the smooth stage-1 update of the decoupled
// peak detector.
func WithSmoothPeakHold(enable bool) CoreOption {
	return func(cfg *coreConfig) {
		cfg.smoothPeakHold = enable
	}
}

// Core turns a rectified detector signal into a per-sample attenuation
// multiplier.
//
// Pipeline per sample:
//
//	detector input -> level detector -> non-finite guard (1.0, full scale)
//	  -> dB -> GainComputer -> reduction (dB)
//	  -> [decoupled peak detector] -> 10^(dB/20) -> non-finite guard (1.0)
//
// Makeup gain is not part of the returned multiplier; MakeupGain reports it
// so the caller can fold it into the output stage.
//
// All storage is allocated in NewCore. UpdateParameters and Process never
// allocate and never block. Core is not safe for concurrent use; hand it
// parameter snapshots from the goroutine that calls Process.
type Core struct {
	cfg    coreConfig
	wiring GainWiring
	state  State

	level *EnvelopeDetector
	peak  *EnvelopeDetector
	gain  GainComputer

	params        Parameters
	sampleRate    float64
	maxSampleRate float64
	makeupGainLin float64

	levelDB     float64
	reductionDB float64
}

// NewCore returns a Core whose buffers are sized for maxSampleRate.
func NewCore(maxSampleRate float64, opts ...CoreOption) (*Core, error) {
	if maxSampleRate <= 0 || !core.IsFinite(maxSampleRate) {
		return nil, fmt.Errorf("compressor max sample rate must be positive and finite: %f", maxSampleRate)
	}

	cfg := coreConfig{detector: DetectorDecoupledPeak}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !cfg.detector.valid() {
		return nil, fmt.Errorf("invalid detector mode: %d", cfg.detector)
	}

	c := &Core{
		cfg:           cfg,
		maxSampleRate: maxSampleRate,
		makeupGainLin: 1,
		levelDB:       math.Inf(-1),
	}

	levelMode := cfg.detector
	if cfg.detector == DetectorDecoupledPeak {
		levelMode = DetectorRMS
		c.wiring = GainWiringDecoupled
	}

	var err error

	c.level, err = NewEnvelopeDetector(levelMode, rmsCapacity(maxSampleRate))
	if err != nil {
		return nil, err
	}

	if c.wiring == GainWiringDecoupled {
		c.peak, err = NewEnvelopeDetector(DetectorDecoupledPeak, 0)
		if err != nil {
			return nil, err
		}
	}

	c.gain = NewGainComputer(0, 0, 1)

	return c, nil
}

// UpdateParameters applies a parameter snapshot for the given sample rate.
//
// Coefficients are recomputed; detector state is kept, and the RMS window
// is only cleared when its length in samples changes. Applying the same
// snapshot twice is equivalent to applying it once. The only error is an
// invalid sample rate, in which case nothing changes.
func (c *Core) UpdateParameters(p Parameters, sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}

	c.params = p
	c.sampleRate = sampleRate

	c.makeupGainLin = core.OrElse(mathPower10(p.MakeupGainDB*0.05), 1)

	c.gain.SetParameters(p.ThresholdDB, p.KneeDB, p.Ratio)

	levelCfg := DetectorConfig{
		SampleRate:  sampleRate,
		AttackMs:    p.AttackMs,
		ReleaseMs:   p.ReleaseMs,
		PreSmoothMs: p.PreSmoothMs,
		RMSWindowMs: p.RMSWindowMs,
	}

	if c.wiring == GainWiringDecoupled {
		// Ballistics move to the gain-reduction path.
		levelCfg.AttackMs = 0
		levelCfg.ReleaseMs = 0

		c.peak.Configure(DetectorConfig{
			SampleRate:     sampleRate,
			AttackMs:       p.AttackMs,
			ReleaseMs:      p.ReleaseMs,
			SmoothPeakHold: c.cfg.smoothPeakHold,
		})
	}

	c.level.Configure(levelCfg)

	if c.state == StateUninitialized {
		c.state = StateConfigured
	}

	return nil
}

// Process returns the attenuation multiplier for one rectified detector
// sample. Before the first UpdateParameters it returns 1.
func (c *Core) Process(detectorInput float64) float64 {
	if c.state == StateUninitialized {
		return 1
	}

	c.state = StateProcessing

	level := core.OrElse(c.level.Process(detectorInput), 1)
	c.levelDB = linearToDB(level)

	reduction := c.gain.Reduction(c.levelDB)
	if c.wiring == GainWiringDecoupled {
		reduction = -c.peak.Process(-reduction)
	}

	c.reductionDB = reduction

	return core.OrElse(mathPower10(reduction*0.05), 1)
}

// ProcessBlock writes the multiplier for each detector sample in src to dst.
// dst must be at least as long as src.
func (c *Core) ProcessBlock(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]

	for i, x := range src {
		dst[i] = c.Process(x)
	}
}

// Reset clears detector state but keeps the applied parameters.
func (c *Core) Reset() {
	c.level.Reset()
	if c.peak != nil {
		c.peak.Reset()
	}

	c.levelDB = math.Inf(-1)
	c.reductionDB = 0

	if c.state == StateProcessing {
		c.state = StateConfigured
	}
}

// State returns the lifecycle stage.
func (c *Core) State() State { return c.state }

// Wiring returns how the gain reduction is applied.
func (c *Core) Wiring() GainWiring { return c.wiring }

// DetectorMode returns the configured detector variant.
func (c *Core) DetectorMode() DetectorMode { return c.cfg.detector }

// Parameters returns the last applied snapshot.
func (c *Core) Parameters() (Parameters, error) {
	if c.state == StateUninitialized {
		return Parameters{}, ErrNotConfigured
	}

	return c.params, nil
}

// SampleRate returns the sample rate of the last applied snapshot.
func (c *Core) SampleRate() float64 { return c.sampleRate }

// MaxSampleRate returns the sample rate the buffers were sized for.
func (c *Core) MaxSampleRate() float64 { return c.maxSampleRate }

// MakeupGain returns the linear makeup gain.
func (c *Core) MakeupGain() float64 { return c.makeupGainLin }

// LevelDB returns the most recent detected level in dB.
func (c *Core) LevelDB() float64 { return c.levelDB }

// GainReductionDB returns the most recent gain change in dB (<= 0 when
// compressing).
func (c *Core) GainReductionDB() float64 { return c.reductionDB }

// GainComputer returns a copy of the current static curve.
func (c *Core) GainComputer() GainComputer { return c.gain }

// RMSWindowSamples returns the active RMS window length, 0 if bypassed.
func (c *Core) RMSWindowSamples() int { return c.level.RMSWindowSamples() }

// linearToDB is core.LinearToDB on the selected math backend.
func linearToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * mathLog10(v)
}
