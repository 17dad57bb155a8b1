package thd

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultRangeLowerHz = 20.0
	defaultRangeUpperHz = 20000.0
	defaultRubNBuzz     = 10
)

// Window selects the analysis window applied before the FFT.
type Window int

const (
	// WindowHann is the default analysis window.
	WindowHann Window = iota
	// WindowRectangular applies no weighting.
	WindowRectangular
	// WindowBlackman trades resolution for sidelobe rejection.
	WindowBlackman
)

func (w Window) String() string {
	switch w {
	case WindowHann:
		return "hann"
	case WindowRectangular:
		return "rectangular"
	case WindowBlackman:
		return "blackman"
	default:
		return fmt.Sprintf("Window(%d)", int(w))
	}
}

// ParseWindow returns the window named s.
func ParseWindow(s string) (Window, error) {
	for _, w := range []Window{WindowHann, WindowRectangular, WindowBlackman} {
		if w.String() == s {
			return w, nil
		}
	}

	return 0, fmt.Errorf("unknown analysis window: %q", s)
}

// mainLobeBins is the half-width of the main lobe in bins, used as the
// default energy capture around each harmonic.
func (w Window) mainLobeBins() int {
	switch w {
	case WindowRectangular:
		return 1
	case WindowBlackman:
		return 3
	default:
		return 2
	}
}

// coefficients fills dst with a symmetric window.
func (w Window) coefficients(dst []float64) {
	n := len(dst)
	if n == 1 {
		dst[0] = 1
		return
	}

	scale := 2 * math.Pi / float64(n-1)

	for i := range dst {
		x := scale * float64(i)

		switch w {
		case WindowRectangular:
			dst[i] = 1
		case WindowBlackman:
			dst[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		default:
			dst[i] = 0.5 - 0.5*math.Cos(x)
		}
	}
}

// Config holds THD calculation parameters. Zero values select defaults.
type Config struct {
	SampleRate      float64
	FFTSize         int
	FundamentalFreq float64
	RangeLowerFreq  float64
	RangeUpperFreq  float64
	CaptureBins     int
	MaxHarmonics    int
	RubNBuzzStart   int
	Window          Window
}

// Result holds THD measurement results. Ratios are relative to the
// fundamental level.
//
//nolint:revive
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	THD              float64
	THDN             float64
	THD_dB           float64
	THDN_dB          float64
	OddHD            float64
	EvenHD           float64
	Noise            float64
	RubNBuzz         float64
	Harmonics        []float64
	SINAD            float64
}

func (c Config) normalized() Config {
	if c.RangeLowerFreq <= 0 {
		c.RangeLowerFreq = defaultRangeLowerHz
	}

	if c.RangeUpperFreq <= 0 {
		c.RangeUpperFreq = defaultRangeUpperHz
	}

	c.RangeUpperFreq = max(c.RangeUpperFreq, c.RangeLowerFreq)

	if c.RubNBuzzStart < 1 {
		c.RubNBuzzStart = defaultRubNBuzz
	}

	c.CaptureBins = max(c.CaptureBins, 0)
	c.MaxHarmonics = max(c.MaxHarmonics, 0)

	return c
}

// AnalyzeSignal windows signal, transforms it and evaluates the THD
// metrics. The FFT size defaults to the next power of two >= len(signal).
func AnalyzeSignal(signal []float64, cfg Config) (Result, error) {
	if len(signal) == 0 {
		return Result{}, nil
	}

	cfg = cfg.normalized()

	fftSize := cfg.FFTSize
	if fftSize <= 0 {
		fftSize = nextPowerOf2(len(signal))
	}

	if fftSize < len(signal) {
		return Result{}, fmt.Errorf("thd FFT size %d shorter than signal %d", fftSize, len(signal))
	}

	windowed := make([]float64, len(signal))
	cfg.Window.coefficients(windowed)
	vecmath.MulBlockInPlace(windowed, signal)

	in := make([]complex128, fftSize)
	for i, x := range windowed {
		in[i] = complex(x, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}, fmt.Errorf("thd FFT plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Result{}, fmt.Errorf("thd forward FFT: %w", err)
	}

	cfg.FFTSize = fftSize

	return Analyze(out, cfg), nil
}

// Analyze evaluates the THD metrics of a complex spectrum of FFTSize bins.
func Analyze(spectrum []complex128, cfg Config) Result {
	binCount := len(spectrum)/2 + 1
	if len(spectrum) == 0 || binCount <= 1 {
		return Result{}
	}

	magSquared := make([]float64, binCount)
	for i := range magSquared {
		x := spectrum[i]
		magSquared[i] = real(x)*real(x) + imag(x)*imag(x)
	}

	if cfg.FFTSize <= 0 {
		cfg.FFTSize = len(spectrum)
	}

	return CalculateFromMagnitude(magSquared, cfg)
}

// CalculateFromMagnitude evaluates the THD metrics from a squared-magnitude
// spectrum holding bins [0..Nyquist].
func CalculateFromMagnitude(magSquared []float64, cfg Config) Result {
	if len(magSquared) <= 1 {
		return Result{}
	}

	cfg = cfg.normalized()
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = 2 * (len(magSquared) - 1)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = float64(cfg.FFTSize)
	}

	maxBin := len(magSquared) - 1
	binHz := cfg.SampleRate / float64(cfg.FFTSize)

	lowerBin := clampInt(int(math.Round(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upperBin := clampInt(int(math.Round(cfg.RangeUpperFreq/binHz)), lowerBin, maxBin)

	fundamentalBin := findFundamentalBin(magSquared, lowerBin, upperBin, cfg.FundamentalFreq/binHz)

	capture := cfg.CaptureBins
	if capture == 0 {
		capture = cfg.Window.mainLobeBins()
	}

	capture = min(capture, fundamentalBin/2)

	res := Result{FundamentalFreq: float64(fundamentalBin) * binHz}

	fundamental := binEnergy(magSquared, fundamentalBin, capture)
	if fundamental <= 0 {
		return res
	}

	var thdAbs, oddAbs, evenAbs, rubAbs float64

	for k := 2; cfg.MaxHarmonics == 0 || k-2 < cfg.MaxHarmonics; k++ {
		bin := k * fundamentalBin
		if bin > upperBin {
			break
		}

		v := binEnergy(magSquared, bin, capture)

		thdAbs += v
		if k%2 == 0 {
			evenAbs += v
		} else {
			oddAbs += v
		}

		if k >= cfg.RubNBuzzStart {
			rubAbs += v
		}

		if v > 0 {
			res.Harmonics = append(res.Harmonics, v/fundamental)
		}
	}

	var totalAbs float64
	for _, v := range magSquared[lowerBin : upperBin+1] {
		totalAbs += sqrtPositive(v)
	}

	thdnAbs := max(totalAbs-fundamental, 0)
	noiseAbs := max(thdnAbs-thdAbs, 0)

	res.FundamentalLevel = fundamental
	res.THD = thdAbs / fundamental
	res.THDN = thdnAbs / fundamental
	res.THD_dB = ratioToDB(res.THD)
	res.THDN_dB = ratioToDB(res.THDN)
	res.OddHD = oddAbs / fundamental
	res.EvenHD = evenAbs / fundamental
	res.Noise = noiseAbs / fundamental
	res.RubNBuzz = rubAbs / fundamental

	res.SINAD = math.Inf(1)
	if res.THDN > 0 {
		res.SINAD = -ratioToDB(res.THDN)
	}

	return res
}

// findFundamentalBin returns the bin nearest to expectedBin, or the
// strongest bin in range when no fundamental is given.
func findFundamentalBin(magSquared []float64, lowerBin, upperBin int, expectedBin float64) int {
	if expectedBin > 0 {
		return clampInt(int(math.Round(expectedBin)), lowerBin, upperBin)
	}

	best := lowerBin
	for i := lowerBin + 1; i <= upperBin; i++ {
		if magSquared[i] > magSquared[best] {
			best = i
		}
	}

	return best
}

// binEnergy sums the magnitudes within capture bins around bin.
func binEnergy(magSquared []float64, bin, capture int) float64 {
	if bin < 0 || bin >= len(magSquared) {
		return 0
	}

	lo := max(bin-capture, 0)
	hi := min(bin+capture, len(magSquared)-1)

	var sum float64
	for _, v := range magSquared[lo : hi+1] {
		sum += sqrtPositive(v)
	}

	return sum
}

func sqrtPositive(v float64) float64 {
	if v <= 0 {
		return 0
	}

	return math.Sqrt(v)
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	return min(max(val, lo), hi)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
