package processor

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/dsp/dynamics"
	"github.com/cwbudde/algo-comp/dsp/telemetry"
)

type stereoConfig struct {
	processor core.ProcessorConfig
	coreOpts  []dynamics.CoreOption
	params    dynamics.Parameters
	logger    *logrus.Logger
}

// Option configures a Stereo processor.
type Option func(*stereoConfig)

// WithProcessorOptions applies core processor options (sample rates, block
// size, telemetry sizes).
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(cfg *stereoConfig) {
		cfg.processor = core.ApplyProcessorOptions(opts...)
	}
}

// WithCoreOptions passes options to the compressor core.
func WithCoreOptions(opts ...dynamics.CoreOption) Option {
	return func(cfg *stereoConfig) {
		cfg.coreOpts = append(cfg.coreOpts, opts...)
	}
}

// WithParameters sets the initial parameter snapshot.
func WithParameters(p dynamics.Parameters) Option {
	return func(cfg *stereoConfig) {
		cfg.params = p
	}
}

// WithLogger sets the logger for non-real-time events.
func WithLogger(logger *logrus.Logger) Option {
	return func(cfg *stereoConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Stereo is a two-channel compressor with linked detection.
//
// ProcessBlock must be called from a single audio goroutine. SetSampleRate,
// Parameters and History are safe to use from other goroutines.
type Stereo struct {
	cfg core.ProcessorConfig
	log *logrus.Logger

	core   *dynamics.Core
	params *ParameterStore

	sampleRate atomic.Uint64

	// Audio goroutine only.
	applied     *dynamics.Parameters
	appliedRate float64
	gains       []float64
	meter       *telemetry.Meter

	telemetry *telemetry.Channel[telemetry.Sample]
	history   *telemetry.History
}

// NewStereo allocates a processor and everything it needs for the
// configured maximum sample rate and block size.
func NewStereo(opts ...Option) (*Stereo, error) {
	cfg := stereoConfig{
		processor: core.DefaultProcessorConfig(),
		params:    dynamics.DefaultParameters(),
		logger:    logrus.StandardLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	pc := cfg.processor

	c, err := dynamics.NewCore(pc.MaxSampleRate, cfg.coreOpts...)
	if err != nil {
		return nil, fmt.Errorf("processor core: %w", err)
	}

	ch := telemetry.NewChannel[telemetry.Sample](pc.TelemetryCapacity)

	s := &Stereo{
		cfg:       pc,
		log:       cfg.logger,
		core:      c,
		params:    NewParameterStore(cfg.params, cfg.logger),
		gains:     make([]float64, pc.BlockSize),
		meter:     telemetry.NewMeter(ch, pc.SampleRate, pc.MaxSampleRate),
		telemetry: ch,
		history:   telemetry.NewHistory(ch, pc.HistoryLength, telemetry.WithLogger(cfg.logger)),
	}

	if err := s.SetSampleRate(pc.SampleRate); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"function":      "NewStereo",
		"sampleRate":    pc.SampleRate,
		"maxSampleRate": pc.MaxSampleRate,
		"blockSize":     pc.BlockSize,
		"detector":      c.DetectorMode().String(),
		"wiring":        c.Wiring().String(),
	}).Info("Created stereo compressor")

	return s, nil
}

// SetSampleRate changes the processing sample rate. It takes effect at the
// start of the next block.
func (s *Stereo) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("processor sample rate must be positive and finite: %f", sampleRate)
	}

	if sampleRate > s.cfg.MaxSampleRate {
		return fmt.Errorf("processor sample rate %f exceeds the allocated maximum %f", sampleRate, s.cfg.MaxSampleRate)
	}

	s.sampleRate.Store(math.Float64bits(sampleRate))

	return nil
}

// SampleRate returns the processing sample rate.
func (s *Stereo) SampleRate() float64 {
	return math.Float64frombits(s.sampleRate.Load())
}

// ProcessBlock compresses one stereo block. The number of frames processed
// is the length of the shortest slice. Outputs may alias their inputs.
//
// Non-finite input samples are replaced by silence before detection. The
// parameter snapshot and sample rate are sampled once at the start of the
// block. ProcessBlock never allocates, blocks or fails.
func (s *Stereo) ProcessBlock(outL, outR, inL, inR []float64) {
	n := min(len(outL), len(outR), len(inL), len(inR))
	if n == 0 {
		return
	}

	s.applyPending()

	makeup := s.core.MakeupGain()
	blockSize := len(s.gains)

	for start := 0; start < n; start += blockSize {
		end := min(start+blockSize, n)
		gains := s.gains[:end-start]

		for i := range gains {
			l := core.Sanitize(inL[start+i])
			r := core.Sanitize(inR[start+i])

			cv := s.core.Process(math.Abs(l+r) * 0.5)
			gains[i] = cv * makeup

			outL[start+i] = l
			outR[start+i] = r

			s.meter.Process(l, r, cv)
		}

		vecmath.MulBlockInPlace(outL[start:end], gains)
		vecmath.MulBlockInPlace(outR[start:end], gains)
	}
}

// applyPending hands a new parameter snapshot or sample rate to the core.
// Unchanged snapshots are skipped.
func (s *Stereo) applyPending() {
	p := s.params.Load()
	sr := s.SampleRate()

	if p == s.applied && sr == s.appliedRate {
		return
	}

	if sr != s.appliedRate {
		s.meter.SetSampleRate(sr)
	}

	// The rate was validated by SetSampleRate.
	_ = s.core.UpdateParameters(*p, sr)

	s.applied = p
	s.appliedRate = sr
}

// Reset clears the detector and meter state. It must be called from the
// audio goroutine.
func (s *Stereo) Reset() {
	s.core.Reset()
	s.meter.Reset()
}

// Parameters returns the parameter store.
func (s *Stereo) Parameters() *ParameterStore { return s.params }

// Telemetry returns the channel the meter pushes into.
func (s *Stereo) Telemetry() *telemetry.Channel[telemetry.Sample] { return s.telemetry }

// History returns the consumer-side telemetry history.
func (s *Stereo) History() *telemetry.History { return s.history }

// Config returns the processor configuration.
func (s *Stereo) Config() core.ProcessorConfig { return s.cfg }

// GainReductionDB returns the most recent gain change in dB. It must be
// called from the audio goroutine.
func (s *Stereo) GainReductionDB() float64 { return s.core.GainReductionDB() }
