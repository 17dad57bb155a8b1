// Package dynamics implements the signal-processing core of a real-time
// dynamic-range compressor.
//
// Components, leaves first:
//   - AccumulatingRMS: sliding-window RMS over a variable-size ring buffer
//     with an incrementally maintained sum of squares.
//   - EnvelopeDetector: one detector type with selectable variants (linear
//     ballistics, squared ballistics, RMS-windowed ballistics and a two-stage
//     decoupled peak detector).
//   - GainComputer: soft-knee static transfer function in the dB domain.
//   - Core: detector -> gain computer -> linear attenuation multiplier,
//     driven by immutable Parameters snapshots.
//
// Everything on the per-sample path is allocation-free and never returns an
// error. Non-finite intermediate values fall back to unity on the gain path
// and to silence on the level path.
package dynamics
