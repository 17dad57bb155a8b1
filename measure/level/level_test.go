package level

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-comp/internal/testutil"
)

func TestCalculateSine(t *testing.T) {
	// 100 Hz at 48 kHz: 480 samples is exactly one period.
	s := Calculate(testutil.DeterministicSine(100, 48000, 0.5, 4800))

	testutil.RequireNearlyEqual(t, "Peak", s.Peak, 0.5, 1e-9)
	testutil.RequireNearlyEqual(t, "RMS", s.RMS, 0.5/math.Sqrt2, 1e-9)
	testutil.RequireNearlyEqual(t, "CrestFactor", s.CrestFactor, math.Sqrt2, 1e-9)
	testutil.RequireNearlyEqual(t, "CrestFactor_dB", s.CrestFactor_dB, 3.0103, 1e-4)

	if s.Length != 4800 {
		t.Fatalf("Length = %d, want 4800", s.Length)
	}
}

func TestCalculateEmptyAndSilent(t *testing.T) {
	for _, signal := range [][]float64{nil, make([]float64, 16)} {
		s := Calculate(signal)

		if s.Peak != 0 || s.RMS != 0 || s.CrestFactor != 0 {
			t.Fatalf("Calculate(%v) = %+v", signal, s)
		}

		if !math.IsInf(s.Peak_dB, -1) || !math.IsInf(s.RMS_dB, -1) {
			t.Fatalf("dB fields = %v, %v; want -Inf", s.Peak_dB, s.RMS_dB)
		}
	}
}

func TestCalculateSkipsNonFinite(t *testing.T) {
	s := Calculate([]float64{math.NaN(), 1, math.Inf(-1), -1})

	if s.Length != 2 || s.Peak != 1 || s.RMS != 1 {
		t.Fatalf("Calculate() = %+v", s)
	}
}

func TestCompare(t *testing.T) {
	dry := []float64{1, 0.1, 0.1, 0.1}
	wet := []float64{0.5, 0.1, 0.1, 0.1}

	c := Compare(dry, wet)

	testutil.RequireNearlyEqual(t, "Peak_dB", c.Peak_dB, 20*math.Log10(0.5), 1e-12)

	if c.RMS_dB >= 0 || c.CrestFactor_dB >= 0 {
		t.Fatalf("Compare() = %+v, want negative RMS and crest change", c)
	}
}
