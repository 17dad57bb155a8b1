package core

const (
	defaultSampleRate        = 44100
	defaultMaxSampleRate     = 192000
	defaultBlockSize         = 1024
	defaultTelemetryCapacity = 3000
	defaultHistoryLength     = 3000
)

// ProcessorConfig defines common real-time processing settings.
//
// Everything that is sized here is allocated once when a processor is
// constructed; later changes of sample rate or block size only move logical
// extents inside that storage.
type ProcessorConfig struct {
	SampleRate        float64
	MaxSampleRate     float64
	BlockSize         int
	TelemetryCapacity int
	HistoryLength     int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns defaults suitable for plugin hosts.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate:        defaultSampleRate,
		MaxSampleRate:     defaultMaxSampleRate,
		BlockSize:         defaultBlockSize,
		TelemetryCapacity: defaultTelemetryCapacity,
		HistoryLength:     defaultHistoryLength,
	}
}

// WithSampleRate sets the initial processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithMaxSampleRate sets the sample rate used to size preallocated buffers.
func WithMaxSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.MaxSampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the largest block processed without chunking.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithTelemetryCapacity sets the number of entries the telemetry queue holds.
func WithTelemetryCapacity(capacity int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if capacity > 0 {
			cfg.TelemetryCapacity = capacity
		}
	}
}

// WithHistoryLength sets how many telemetry samples an observer retains.
func WithHistoryLength(length int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if length > 0 {
			cfg.HistoryLength = length
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
// The result always has MaxSampleRate >= SampleRate.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.MaxSampleRate < cfg.SampleRate {
		cfg.MaxSampleRate = cfg.SampleRate
	}

	return cfg
}
