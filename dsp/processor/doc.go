// Package processor wires the compressor core into a stereo, block-based
// engine as a plugin host would drive it.
//
// Parameters are published from any goroutine through a [ParameterStore]
// (latest value wins). The audio goroutine calls [Stereo.ProcessBlock],
// which picks up the newest snapshot once per block, derives the detector
// input from both channels, applies the gain multiplier and makeup gain
// and feeds the telemetry meter. The consumer goroutine reads metering
// through [Stereo.History].
package processor
