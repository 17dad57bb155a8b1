package testutil

import (
	"math"
	"testing"
)

// RequireNearlyEqual fails t if got and want differ by more than eps.
func RequireNearlyEqual(t *testing.T, name string, got, want, eps float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > eps {
		t.Fatalf("%s = %v, want %v (eps %v)", name, got, want, eps)
	}
}

// RequireWithinDB fails t if the linear gains got and want differ by more
// than tolDB decibels.
func RequireWithinDB(t *testing.T, name string, got, want, tolDB float64) {
	t.Helper()
	if got <= 0 || want <= 0 {
		t.Fatalf("%s: non-positive gain got=%v want=%v", name, got, want)
	}
	diff := 20 * math.Log10(got/want)
	if math.IsNaN(diff) || math.Abs(diff) > tolDB {
		t.Fatalf("%s = %v (%.3f dB), want %v within %.2f dB", name, got, 20*math.Log10(got), want, tolDB)
	}
}

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}
