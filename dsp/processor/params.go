package processor

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-comp/dsp/dynamics"
)

// ParameterStore publishes parameter snapshots to the audio goroutine.
//
// Writers replace the whole snapshot; the reader always sees a complete,
// consistent snapshot and never blocks. Only the latest snapshot is kept.
type ParameterStore struct {
	current atomic.Pointer[dynamics.Parameters]
	log     *logrus.Logger
}

// NewParameterStore returns a store holding p clamped to the declared
// ranges.
func NewParameterStore(p dynamics.Parameters, logger *logrus.Logger) *ParameterStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &ParameterStore{log: logger}
	clamped := p.Clamp()
	s.current.Store(&clamped)

	return s
}

// Set publishes p. Out-of-range or non-finite snapshots are rejected and the
// previous snapshot stays active.
func (s *ParameterStore) Set(p dynamics.Parameters) error {
	if err := p.Validate(); err != nil {
		s.log.WithFields(logrus.Fields{
			"function": "ParameterStore.Set",
			"error":    err,
		}).Warn("Rejected compressor parameters")

		return err
	}

	s.current.Store(&p)

	return nil
}

// SetClamped publishes p with every field limited to its declared range and
// returns the published snapshot.
func (s *ParameterStore) SetClamped(p dynamics.Parameters) dynamics.Parameters {
	clamped := p.Clamp()
	if clamped != p {
		s.log.WithFields(logrus.Fields{
			"function": "ParameterStore.SetClamped",
		}).Debug("Clamped compressor parameters")
	}

	s.current.Store(&clamped)

	return clamped
}

// SetValue publishes the current snapshot with one field replaced.
func (s *ParameterStore) SetValue(id dynamics.ParameterID, v float64) error {
	if _, err := id.Range(); err != nil {
		return err
	}

	return s.Set(s.Load().With(id, v))
}

// Load returns the current snapshot. The pointed-to value must not be
// modified.
func (s *ParameterStore) Load() *dynamics.Parameters {
	return s.current.Load()
}
