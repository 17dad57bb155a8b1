package processor

import (
	"math"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/dsp/dynamics"
	"github.com/cwbudde/algo-comp/internal/testutil"
)

func scenarioParameters() dynamics.Parameters {
	p := dynamics.DefaultParameters()
	p.ThresholdDB = -20
	p.Ratio = 4
	p.AttackMs = 5
	p.ReleaseMs = 50

	return p
}

func newStereo(t *testing.T, opts ...Option) *Stereo {
	t.Helper()

	logger, _ := test.NewNullLogger()

	s, err := NewStereo(append([]Option{WithLogger(logger)}, opts...)...)
	if err != nil {
		t.Fatalf("NewStereo() error = %v", err)
	}

	return s
}

func TestNewStereoDefaults(t *testing.T) {
	logger, hook := test.NewNullLogger()

	s, err := NewStereo(WithLogger(logger))
	if err != nil {
		t.Fatalf("NewStereo() error = %v", err)
	}

	if s.SampleRate() != 44100 {
		t.Fatalf("SampleRate() = %v, want 44100", s.SampleRate())
	}

	if s.Config().BlockSize != 1024 || s.Telemetry().Cap() != 3000 || s.History().MaxLen() != 3000 {
		t.Fatalf("unexpected config %+v", s.Config())
	}

	if *s.Parameters().Load() != dynamics.DefaultParameters() {
		t.Fatalf("initial parameters = %+v", *s.Parameters().Load())
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.InfoLevel || entry.Data["detector"] != "decoupled-peak" {
		t.Fatalf("unexpected log entry %+v", entry)
	}
}

func TestNewStereoInvalidCoreOption(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewStereo(
		WithLogger(logger),
		WithCoreOptions(dynamics.WithDetector(dynamics.DetectorMode(42))),
	)
	if err == nil {
		t.Fatal("expected error for invalid detector")
	}
}

func TestStereoSetSampleRate(t *testing.T) {
	s := newStereo(t, WithProcessorOptions(core.WithMaxSampleRate(96000)))

	for _, sr := range []float64{0, -1, math.NaN(), math.Inf(1), 192000} {
		if err := s.SetSampleRate(sr); err == nil {
			t.Fatalf("SetSampleRate(%v) expected error", sr)
		}
	}

	if err := s.SetSampleRate(96000); err != nil {
		t.Fatalf("SetSampleRate() error = %v", err)
	}

	if s.SampleRate() != 96000 {
		t.Fatalf("SampleRate() = %v", s.SampleRate())
	}
}

func TestStereoSteadyStateGain(t *testing.T) {
	tests := []struct {
		name     string
		makeupDB float64
	}{
		{"no makeup", 0},
		{"6 dB makeup", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scenarioParameters()
			p.MakeupGainDB = tt.makeupDB

			s := newStereo(t,
				WithProcessorOptions(core.WithSampleRate(48000)),
				WithParameters(p),
			)

			in := testutil.DC(1, 48000)
			outL := make([]float64, len(in))
			outR := make([]float64, len(in))

			s.ProcessBlock(outL, outR, in, in)

			want := math.Pow(10, (-15+tt.makeupDB)/20)
			testutil.RequireWithinDB(t, "left", outL[len(outL)-1], want, 0.5)
			testutil.RequireWithinDB(t, "right", outR[len(outR)-1], want, 0.5)
			testutil.RequireNearlyEqual(t, "GainReductionDB", s.GainReductionDB(), -15, 0.5)
		})
	}
}

func TestStereoOppositePolarityIsNotDetected(t *testing.T) {
	s := newStereo(t, WithProcessorOptions(core.WithSampleRate(48000)), WithParameters(scenarioParameters()))

	inL := testutil.DC(1, 4800)
	inR := testutil.DC(-1, 4800)
	outL := make([]float64, len(inL))
	outR := make([]float64, len(inR))

	s.ProcessBlock(outL, outR, inL, inR)

	testutil.RequireSliceNearlyEqual(t, outL, inL, 1e-12)
	testutil.RequireSliceNearlyEqual(t, outR, inR, 1e-12)
}

func TestStereoSanitizesInput(t *testing.T) {
	s := newStereo(t, WithParameters(scenarioParameters()))

	in := testutil.Hostile(2048)
	outL := make([]float64, len(in))
	outR := make([]float64, len(in))

	s.ProcessBlock(outL, outR, in, in)

	testutil.RequireFinite(t, outL)
	testutil.RequireFinite(t, outR)

	for i, x := range in {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			if outL[i] != 0 || outR[i] != 0 {
				t.Fatalf("sample %d: non-finite input produced %v, %v", i, outL[i], outR[i])
			}
		}
	}
}

func TestStereoChunkingIsTransparent(t *testing.T) {
	p := scenarioParameters()
	p.KneeDB = 6

	in := testutil.DeterministicNoise(7, 2, 5000)

	small := newStereo(t, WithProcessorOptions(core.WithBlockSize(64)), WithParameters(p))
	large := newStereo(t, WithProcessorOptions(core.WithBlockSize(8192)), WithParameters(p))

	gotL := make([]float64, len(in))
	gotR := make([]float64, len(in))
	wantL := make([]float64, len(in))
	wantR := make([]float64, len(in))

	small.ProcessBlock(gotL, gotR, in, in)
	large.ProcessBlock(wantL, wantR, in, in)

	testutil.RequireSliceNearlyEqual(t, gotL, wantL, 0)
	testutil.RequireSliceNearlyEqual(t, gotR, wantR, 0)
}

func TestStereoInPlace(t *testing.T) {
	p := scenarioParameters()
	in := testutil.DeterministicSine(220, 44100, 0.9, 4096)

	ref := newStereo(t, WithParameters(p))
	wantL := make([]float64, len(in))
	wantR := make([]float64, len(in))
	ref.ProcessBlock(wantL, wantR, in, in)

	s := newStereo(t, WithParameters(p))
	bufL := append([]float64(nil), in...)
	bufR := append([]float64(nil), in...)
	s.ProcessBlock(bufL, bufR, bufL, bufR)

	testutil.RequireSliceNearlyEqual(t, bufL, wantL, 0)
	testutil.RequireSliceNearlyEqual(t, bufR, wantR, 0)
}

func TestStereoShortestSliceWins(t *testing.T) {
	s := newStereo(t)

	outL := make([]float64, 10)
	outR := make([]float64, 4)
	in := testutil.DC(0.1, 10)

	for i := range outL {
		outL[i] = -1
	}

	s.ProcessBlock(outL, outR, in, in)

	if outL[4] != -1 {
		t.Fatalf("frame beyond the shortest slice was written: %v", outL[4])
	}

	s.ProcessBlock(nil, nil, nil, nil)
}

func TestStereoPicksUpParametersPerBlock(t *testing.T) {
	s := newStereo(t, WithProcessorOptions(core.WithSampleRate(48000)))

	in := testutil.DC(1, 4800)
	outL := make([]float64, len(in))
	outR := make([]float64, len(in))

	// Default threshold is 0 dB: a full-scale DC is not compressed.
	s.ProcessBlock(outL, outR, in, in)
	testutil.RequireNearlyEqual(t, "before", outL[len(outL)-1], 1, 1e-9)

	if err := s.Parameters().Set(scenarioParameters()); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	for range 10 {
		s.ProcessBlock(outL, outR, in, in)
	}

	testutil.RequireWithinDB(t, "after", outL[len(outL)-1], math.Pow(10, -15.0/20), 0.5)
}

func TestStereoTelemetry(t *testing.T) {
	s := newStereo(t, WithProcessorOptions(core.WithSampleRate(48000)), WithParameters(scenarioParameters()))

	in := testutil.DC(0.5, 48000)
	outL := make([]float64, len(in))
	outR := make([]float64, len(in))

	s.ProcessBlock(outL, outR, in, in)

	if n := s.History().Update(); n != 516 {
		t.Fatalf("Update() = %d, want 516", n)
	}

	latest, ok := s.History().Latest()
	if !ok {
		t.Fatal("no telemetry")
	}

	testutil.RequireNearlyEqual(t, "LeftRMS", latest.LeftRMS, 0.5, 1e-9)

	if latest.GainReduction >= 1 || latest.GainReduction <= 0 {
		t.Fatalf("GainReduction = %v, want in (0, 1)", latest.GainReduction)
	}
}

func TestStereoReset(t *testing.T) {
	p := scenarioParameters()
	in := testutil.DeterministicNoise(3, 1, 2048)

	s := newStereo(t, WithParameters(p))
	first := make([]float64, len(in))
	s.ProcessBlock(first, make([]float64, len(in)), in, in)

	s.Reset()
	s.History().Update()

	again := make([]float64, len(in))
	s.ProcessBlock(again, make([]float64, len(in)), in, in)

	testutil.RequireSliceNearlyEqual(t, again, first, 0)
}

func TestStereoConcurrentParameterUpdates(t *testing.T) {
	s := newStereo(t)

	var wg sync.WaitGroup
	wg.Add(2)

	stop := make(chan struct{})

	go func() {
		defer wg.Done()

		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}

			_ = s.Parameters().SetValue(dynamics.ParamThreshold, -float64(i%60))
			_ = s.SetSampleRate([]float64{44100, 48000}[i%2])
		}
	}()

	go func() {
		defer wg.Done()

		for {
			select {
			case <-stop:
				return
			default:
				s.History().Update()
			}
		}
	}()

	in := testutil.DeterministicSine(1000, 48000, 1, 256)
	outL := make([]float64, len(in))
	outR := make([]float64, len(in))

	for range 2000 {
		s.ProcessBlock(outL, outR, in, in)
		testutil.RequireFinite(t, outL)
	}

	close(stop)
	wg.Wait()
}

func TestStereoProcessBlockZeroAllocs(t *testing.T) {
	s := newStereo(t, WithParameters(scenarioParameters()))

	in := testutil.DeterministicSine(440, 44100, 0.8, 512)
	outL := make([]float64, len(in))
	outR := make([]float64, len(in))

	s.ProcessBlock(outL, outR, in, in)

	allocs := testing.AllocsPerRun(100, func() {
		s.ProcessBlock(outL, outR, in, in)
	})

	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}
