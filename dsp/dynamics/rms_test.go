package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/internal/testutil"
)

func TestAccumulatingRMSConvergesToConstant(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		windowMs float64
	}{
		{"positive 5ms", 0.5, 5},
		{"negative 5ms", -0.25, 5},
		{"unity 20ms", 1, 20},
		{"single sample window", 0.8, 0},
		{"max window", 0.3, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rms := NewAccumulatingRMS(48000, tt.windowMs, rmsCapacity(48000))

			var got float64
			for range rms.WindowSamples() + 10 {
				got = rms.Process(tt.value)
			}

			testutil.RequireNearlyEqual(t, "rms", got, math.Abs(tt.value), mathTolerance)
		})
	}
}

func TestAccumulatingRMSWindowLength(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		windowMs   float64
		capacity   int
		want       int
	}{
		{"5ms at 48k", 48000, 5, 10000, 240},
		{"rounding", 44100, 5, 10000, 221},
		{"zero window", 48000, 0, 10000, 1},
		{"clamped to capacity", 192000, 100, 1000, 1000},
		{"nan rate", math.NaN(), 5, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rms := NewAccumulatingRMS(tt.sampleRate, tt.windowMs, tt.capacity)
			if rms.WindowSamples() != tt.want {
				t.Fatalf("WindowSamples() = %d, want %d", rms.WindowSamples(), tt.want)
			}
		})
	}
}

func TestAccumulatingRMSResizeOnlyWhenChanged(t *testing.T) {
	rms := NewAccumulatingRMS(48000, 5, 10000)
	for range 100 {
		rms.Process(0.5)
	}

	sum := rms.Sum()
	if rms.Resize(48000, 5) {
		t.Fatal("Resize with unchanged length reported a reset")
	}
	if rms.Sum() != sum {
		t.Fatalf("Sum() = %v after no-op resize, want %v", rms.Sum(), sum)
	}

	if !rms.Resize(48000, 10) {
		t.Fatal("Resize with new length did not report a reset")
	}
	if rms.Sum() != 0 {
		t.Fatalf("Sum() = %v after resize, want 0", rms.Sum())
	}
	if rms.WindowSamples() != 480 {
		t.Fatalf("WindowSamples() = %d, want 480", rms.WindowSamples())
	}
}

func TestAccumulatingRMSSumTracksWindow(t *testing.T) {
	const window = 64

	rms := NewAccumulatingRMS(1000, window, 128)
	if rms.WindowSamples() != window {
		t.Fatalf("WindowSamples() = %d, want %d", rms.WindowSamples(), window)
	}

	input := testutil.DeterministicNoise(7, 1, 1000)
	for _, x := range input {
		rms.Process(x)
	}

	var want float64
	for _, x := range input[len(input)-window:] {
		want += x * x
	}

	testutil.RequireNearlyEqual(t, "running sum", rms.Sum(), want, 1e-9)
}

func TestAccumulatingRMSNonFiniteInput(t *testing.T) {
	rms := NewAccumulatingRMS(48000, 1, 1000)

	out := make([]float64, 0, 200)
	for _, x := range testutil.Hostile(200) {
		out = append(out, rms.Process(x))
	}

	testutil.RequireFinite(t, out)
}

func TestAccumulatingRMSSaturatesOversizedInput(t *testing.T) {
	rms := NewAccumulatingRMS(48000, 1, 1000)

	for range 2 * rms.WindowSamples() {
		got := rms.Process(math.Inf(1))
		if !core.IsFinite(got) || got < 1e150 {
			t.Fatalf("Process(+Inf) = %v, want a finite full-scale RMS", got)
		}

		if !core.IsFinite(rms.Sum()) {
			t.Fatalf("running sum overflowed: %v", rms.Sum())
		}
	}

	rms.Process(1e200)

	if got := rms.Process(math.NaN()); !core.IsFinite(got) {
		t.Fatalf("Process(NaN) = %v, want finite", got)
	}
}

func TestAccumulatingRMSZeroAllocs(t *testing.T) {
	rms := NewAccumulatingRMS(48000, 5, rmsCapacity(192000))
	allocs := testing.AllocsPerRun(100, func() {
		rms.Process(0.3)
		rms.Resize(48000, 7)
		rms.Resize(48000, 5)
	})

	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}
