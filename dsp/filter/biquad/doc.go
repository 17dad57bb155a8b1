// Package biquad provides a second-order IIR section and the RBJ lowpass
// design used to smooth telemetry signals.
//
// A [Section] implements Direct Form II Transposed processing for the
// transfer function defined by [Coefficients]. Processing never allocates.
package biquad
