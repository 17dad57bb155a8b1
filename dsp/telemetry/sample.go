package telemetry

// Sample is one decimated metering point.
type Sample struct {
	// LeftLevel and RightLevel are the lowpass-smoothed rectified input
	// levels (linear).
	LeftLevel  float64
	RightLevel float64
	// LeftRMS and RightRMS are 5 ms sliding RMS values of the input.
	LeftRMS  float64
	RightRMS float64
	// GainReduction is the lowpass-smoothed gain multiplier (1 = no
	// reduction).
	GainReduction float64
}
