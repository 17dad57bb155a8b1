package biquad

import "github.com/cwbudde/algo-comp/dsp/core"

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Section is a single biquad filter with coefficients and internal state.
// The zero value passes nothing until SetCoefficients is called.
type Section struct {
	Coefficients

	d0, d1 float64
}

// SetCoefficients replaces the coefficients and keeps the delay line.
func (s *Section) SetCoefficients(c Coefficients) {
	s.Coefficients = c
}

// ProcessSample filters one input sample and returns the output. Delay-line
// values that decay below the denormal range are flushed to zero, so a
// smoother fed silence settles to exactly 0.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = core.FlushDenormals(s.B1*x - s.A1*y + s.d1)
	s.d1 = core.FlushDenormals(s.B2*x - s.A2*y)

	return y
}

// Reset clears the delay line to zero.
func (s *Section) Reset() {
	s.d0 = 0
	s.d1 = 0
}
