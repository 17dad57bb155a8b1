// Package thd measures harmonic distortion of a tone.
//
// It is used offline to judge how much a compressor colours a steady sine:
// fast release times modulate the gain within a period and show up as
// harmonics of the fundamental.
package thd
