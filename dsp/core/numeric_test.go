package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFlushDenormals(t *testing.T) {
	tests := []struct {
		value float64
		want  float64
	}{
		{math.SmallestNonzeroFloat64, 0},
		{-1e-31, 0},
		{1e-30, 1e-30},
		{-0.5, -0.5},
	}

	for _, tt := range tests {
		if got := FlushDenormals(tt.value); got != tt.want {
			t.Fatalf("FlushDenormals(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestOrElse(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		fallback float64
		want     float64
	}{
		{"finite", 0.25, 1, 0.25},
		{"nan", math.NaN(), 1, 1},
		{"+inf", math.Inf(1), 0, 0},
		{"-inf", math.Inf(-1), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrElse(tt.value, tt.fallback); got != tt.want {
				t.Fatalf("OrElse(%v, %v) = %v, want %v", tt.value, tt.fallback, got, tt.want)
			}
		})
	}

	if Sanitize(math.NaN()) != 0 || Sanitize(-0.5) != -0.5 {
		t.Fatal("Sanitize must zero non-finite samples and keep finite ones")
	}
	if IsFinite(math.Inf(1)) || !IsFinite(-3) {
		t.Fatal("IsFinite mismatch")
	}
}

func TestDBConversions(t *testing.T) {
	linear := DBToLinear(-6)
	db := LinearToDB(linear)
	if math.Abs(db+6) > 1e-10 {
		t.Fatalf("LinearToDB(DBToLinear(-6)) = %v, want -6", db)
	}
	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}
	if !math.IsInf(LinearToDB(-1), -1) {
		t.Fatal("expected -Inf for negative amplitude")
	}
	if math.Abs(DBToLinear(-15)-0.17782794100389226) > 1e-12 {
		t.Fatalf("DBToLinear(-15) = %v", DBToLinear(-15))
	}
}

func TestRangeMapping(t *testing.T) {
	if got := ToRange(-80, 12, 0.5); got != -34 {
		t.Fatalf("ToRange = %v, want -34", got)
	}
	if got := FromRange(-80, 12, -34); got != 0.5 {
		t.Fatalf("FromRange = %v, want 0.5", got)
	}
	if got := FromRange(1, 1, 5); got != 0 {
		t.Fatalf("FromRange on empty span = %v, want 0", got)
	}
}
