// Package buffer provides fixed-capacity storage for real-time DSP state.
//
// Ring is a circular buffer whose logical length can shrink and grow at
// runtime inside storage that is allocated once. Resizing is a full, lossy
// reset: every slot is zeroed and the cursor returns to the start. Nothing in
// this package allocates after construction, so it is safe to use from an
// audio callback.
package buffer
