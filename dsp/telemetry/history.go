package telemetry

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultHistoryLength is the number of samples a History keeps by default.
const DefaultHistoryLength = 3000

// Peaks holds the short-term extremes of the telemetry stream: the highest
// RMS levels and the strongest gain reduction (lowest multiplier).
type Peaks struct {
	LeftRMS       float64
	RightRMS      float64
	GainReduction float64
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithLogger sets the logger used to report dropped telemetry.
func WithLogger(logger *logrus.Logger) HistoryOption {
	return func(h *History) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithPeakHold sets how many samples a peak is held before the fold
// restarts. Non-positive values are ignored.
func WithPeakHold(samples int) HistoryOption {
	return func(h *History) {
		if samples > 0 {
			h.peakHold = samples
		}
	}
}

// History is the consumer side of the telemetry path. It drains a channel
// into a bounded, oldest-first history. History is safe for concurrent use;
// it must be the only consumer of its channel.
type History struct {
	mu sync.Mutex

	ch     *Channel[Sample]
	data   []Sample
	maxLen int

	peaks       Peaks
	peakHold    int
	sinceReset  int
	lastDropped uint64

	log *logrus.Logger
}

// NewHistory returns a history of at most maxLen samples read from ch.
func NewHistory(ch *Channel[Sample], maxLen int, opts ...HistoryOption) *History {
	if maxLen < 1 {
		maxLen = DefaultHistoryLength
	}

	h := &History{
		ch:       ch,
		data:     make([]Sample, 0, maxLen+ch.Cap()),
		maxLen:   maxLen,
		peakHold: SamplesPerSecond,
		log:      logrus.StandardLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	h.sinceReset = h.peakHold
	h.peaks = Peaks{GainReduction: 1}

	return h
}

// Update drains the channel, trims the history to its maximum length and
// refreshes the peaks. It returns the number of samples drained.
func (h *History) Update() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := len(h.data)
	h.data = h.ch.DrainInto(h.data)
	added := len(h.data) - start

	for _, s := range h.data[start:] {
		h.foldPeak(s)
	}

	h.data = Trim(h.data, h.maxLen)

	if dropped := h.ch.Dropped(); dropped > h.lastDropped {
		h.log.WithFields(logrus.Fields{
			"dropped":  dropped - h.lastDropped,
			"total":    dropped,
			"capacity": h.ch.Cap(),
		}).Warn("telemetry channel full, samples dropped")

		h.lastDropped = dropped
	}

	return added
}

func (h *History) foldPeak(s Sample) {
	if h.sinceReset >= h.peakHold {
		h.peaks = Peaks{
			LeftRMS:       s.LeftRMS,
			RightRMS:      s.RightRMS,
			GainReduction: s.GainReduction,
		}
		h.sinceReset = 0
	} else {
		h.peaks.LeftRMS = math.Max(h.peaks.LeftRMS, s.LeftRMS)
		h.peaks.RightRMS = math.Max(h.peaks.RightRMS, s.RightRMS)
		h.peaks.GainReduction = math.Min(h.peaks.GainReduction, s.GainReduction)
	}

	h.sinceReset++
}

// Snapshot appends the current history, oldest first, to dst.
func (h *History) Snapshot(dst []Sample) []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append(dst, h.data...)
}

// Latest returns the newest sample.
func (h *History) Latest() (Sample, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.data) == 0 {
		return Sample{}, false
	}

	return h.data[len(h.data)-1], true
}

// Peaks returns the folded short-term peaks.
func (h *History) Peaks() Peaks {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.peaks
}

// Len returns the number of samples held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.data)
}

// MaxLen returns the maximum number of samples held.
func (h *History) MaxLen() int { return h.maxLen }
