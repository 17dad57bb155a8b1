// Command compcurve inspects the compressor offline.
//
// Usage:
//
//	compcurve [flags] [curve|step|thd ...]
//
// Without arguments it prints all three reports.
//
// Examples:
//
//	compcurve curve -threshold -24 -knee 12 -ratio 4
//	compcurve step -attack 10 -release 200 -detector rms
//	compcurve thd -freq 100 -level -6 -release 5
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/dsp/dynamics"
	"github.com/cwbudde/algo-comp/dsp/processor"
	"github.com/cwbudde/algo-comp/measure/level"
	"github.com/cwbudde/algo-comp/measure/thd"
)

var detectors = []dynamics.DetectorMode{
	dynamics.DetectorBallistics,
	dynamics.DetectorBallisticsSquared,
	dynamics.DetectorRMS,
	dynamics.DetectorDecoupledPeak,
}

type options struct {
	params     dynamics.Parameters
	detector   dynamics.DetectorMode
	smoothHold bool
	sampleRate float64
	points     int
	stepMs     float64
	freq       float64
	levelDB    float64
	window     thd.Window
	verbose    bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}

		logrus.WithError(err).Fatal("compcurve failed")
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, reports, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(stderr)

	if !opts.verbose {
		logger.SetLevel(logrus.WarnLevel)
	}

	for _, r := range reports {
		switch r {
		case "curve":
			err = printCurve(stdout, opts)
		case "step":
			err = printStep(stdout, opts, logger)
		case "thd":
			err = printTHD(stdout, opts, logger)
		default:
			err = fmt.Errorf("unknown report %q (want curve, step or thd)", r)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func parseArgs(args []string, stderr io.Writer) (options, []string, error) {
	fs := flag.NewFlagSet("compcurve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := dynamics.DefaultParameters()

	threshold := fs.Float64("threshold", -20, "threshold in dB")
	knee := fs.Float64("knee", defaults.KneeDB, "knee width in dB")
	ratio := fs.Float64("ratio", defaults.Ratio, "compression ratio")
	attack := fs.Float64("attack", defaults.AttackMs, "attack time in ms")
	release := fs.Float64("release", defaults.ReleaseMs, "release time in ms")
	gain := fs.Float64("gain", defaults.MakeupGainDB, "makeup gain in dB")
	preSmooth := fs.Float64("presmooth", defaults.PreSmoothMs, "pre-smoothing time in ms")
	rms := fs.Float64("rms", defaults.RMSWindowMs, "RMS window in ms (0 bypasses)")
	detector := fs.String("detector", dynamics.DetectorDecoupledPeak.String(), "detector: "+detectorNames())
	smoothHold := fs.Bool("smooth-hold", false, "smooth stage-1 update of the decoupled peak detector")
	sampleRate := fs.Float64("rate", 48000, "sample rate in Hz")
	points := fs.Int("points", 13, "number of points on the static curve")
	stepMs := fs.Float64("step-ms", 20, "reporting interval of the step response in ms")
	freq := fs.Float64("freq", 1000, "test tone frequency in Hz for thd")
	level := fs.Float64("level", 0, "test tone peak level in dBFS for thd")
	window := fs.String("window", thd.WindowHann.String(), "thd analysis window: hann, rectangular, blackman")
	verbose := fs.Bool("v", false, "log processor events")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: compcurve [flags] [curve|step|thd ...]\n\n")
		fmt.Fprintf(stderr, "Prints the static curve, the step response and the distortion of the compressor.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	// Flags may follow the report names.
	var reports []string

	for {
		if err := fs.Parse(args); err != nil {
			return options{}, nil, err
		}

		if fs.NArg() == 0 {
			break
		}

		reports = append(reports, strings.ToLower(fs.Arg(0)))
		args = fs.Args()[1:]
	}

	if len(reports) == 0 {
		reports = []string{"curve", "step", "thd"}
	}

	p := dynamics.Parameters{
		ThresholdDB:  *threshold,
		KneeDB:       *knee,
		Ratio:        *ratio,
		AttackMs:     *attack,
		ReleaseMs:    *release,
		MakeupGainDB: *gain,
		PreSmoothMs:  *preSmooth,
		RMSWindowMs:  *rms,
	}

	if err := p.Validate(); err != nil {
		return options{}, nil, err
	}

	mode, err := parseDetector(*detector)
	if err != nil {
		return options{}, nil, err
	}

	win, err := thd.ParseWindow(strings.ToLower(*window))
	if err != nil {
		return options{}, nil, err
	}

	if *sampleRate <= 0 || math.IsInf(*sampleRate, 0) || math.IsNaN(*sampleRate) {
		return options{}, nil, fmt.Errorf("sample rate must be positive and finite: %f", *sampleRate)
	}

	if *points < 2 {
		return options{}, nil, fmt.Errorf("points must be at least 2: %d", *points)
	}

	if !(*stepMs > 0) {
		return options{}, nil, fmt.Errorf("step-ms must be positive: %f", *stepMs)
	}

	if !(*freq > 0) || *freq >= *sampleRate/2 {
		return options{}, nil, fmt.Errorf("freq must be in (0, %g): %f", *sampleRate/2, *freq)
	}

	return options{
		params:     p,
		detector:   mode,
		smoothHold: *smoothHold,
		sampleRate: *sampleRate,
		points:     *points,
		stepMs:     *stepMs,
		freq:       *freq,
		levelDB:    *level,
		window:     win,
		verbose:    *verbose,
	}, reports, nil
}

func parseDetector(name string) (dynamics.DetectorMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, m := range detectors {
		if m.String() == name {
			return m, nil
		}
	}

	return 0, fmt.Errorf("unknown detector %q (want %s)", name, detectorNames())
}

func detectorNames() string {
	names := make([]string, len(detectors))
	for i, m := range detectors {
		names[i] = m.String()
	}

	return strings.Join(names, ", ")
}

// printCurve prints the static transfer curve from -96 dB to +12 dB.
func printCurve(w io.Writer, opts options) error {
	p := opts.params
	g := dynamics.NewGainComputer(p.ThresholdDB, p.KneeDB, p.Ratio)

	levels := make([]float64, opts.points)
	for i := range levels {
		levels[i] = core.ToRange(-96, 12, float64(i)/float64(opts.points-1))
	}

	out := make([]float64, len(levels))
	g.Curve(out, levels)

	fmt.Fprintf(w, "Static curve (threshold %.1f dB, knee %.1f dB, ratio %.2f:1)\n", p.ThresholdDB, p.KneeDB, p.Ratio)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Input dB\tOutput dB\tGain dB\t")

	for i, x := range levels {
		fmt.Fprintf(tw, "%.1f\t%.2f\t%.2f\t\n", x, out[i], out[i]-x)
	}

	fmt.Fprintln(tw)

	return tw.Flush()
}

// printStep drives the core with a 0 dBFS burst followed by silence and
// prints the gain multiplier over time.
func printStep(w io.Writer, opts options, logger *logrus.Logger) error {
	c, err := dynamics.NewCore(opts.sampleRate,
		dynamics.WithDetector(opts.detector),
		dynamics.WithSmoothPeakHold(opts.smoothHold),
	)
	if err != nil {
		return err
	}

	if err := c.UpdateParameters(opts.params, opts.sampleRate); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"function": "printStep",
		"detector": opts.detector.String(),
		"wiring":   c.Wiring().String(),
	}).Info("Running step response")

	half := int(opts.sampleRate / 2)
	every := max(int(opts.sampleRate*opts.stepMs/1000), 1)

	fmt.Fprintf(w, "Step response (%s detector, attack %.1f ms, release %.1f ms)\n",
		opts.detector, opts.params.AttackMs, opts.params.ReleaseMs)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Time ms\tInput dB\tGain dB\t")

	for i := range 2 * half {
		x := 1.0
		if i >= half {
			x = 0
		}

		cv := c.Process(x)

		if i%every == 0 {
			fmt.Fprintf(tw, "%.1f\t%.1f\t%.2f\t\n", 1000*float64(i)/opts.sampleRate, core.LinearToDB(x), core.LinearToDB(cv))
		}
	}

	fmt.Fprintln(tw)

	return tw.Flush()
}

// printTHD runs a steady tone through the stereo processor and reports the
// distortion added by gain modulation.
func printTHD(w io.Writer, opts options, logger *logrus.Logger) error {
	s, err := processor.NewStereo(
		processor.WithProcessorOptions(
			core.WithSampleRate(opts.sampleRate),
			core.WithMaxSampleRate(opts.sampleRate),
		),
		processor.WithCoreOptions(
			dynamics.WithDetector(opts.detector),
			dynamics.WithSmoothPeakHold(opts.smoothHold),
		),
		processor.WithParameters(opts.params),
		processor.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	const analysisSize = 16384

	// Let the detector settle for a second before the analysed segment.
	settle := int(opts.sampleRate)
	total := settle + analysisSize

	amp := core.DBToLinear(opts.levelDB)
	in := make([]float64, total)

	for i := range in {
		in[i] = amp * math.Sin(2*math.Pi*opts.freq*float64(i)/opts.sampleRate)
	}

	outL := make([]float64, total)
	outR := make([]float64, total)
	s.ProcessBlock(outL, outR, in, in)

	cfg := thd.Config{
		SampleRate:      opts.sampleRate,
		FundamentalFreq: opts.freq,
		RangeUpperFreq:  min(20000, opts.sampleRate/2),
		Window:          opts.window,
	}

	dry, err := thd.AnalyzeSignal(in[settle:], cfg)
	if err != nil {
		return err
	}

	wet, err := thd.AnalyzeSignal(outL[settle:], cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Distortion of a %.1f Hz tone at %.1f dBFS (%s window)\n", opts.freq, opts.levelDB, opts.window)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Signal\tTHD %\tTHD+N dB\tSINAD dB\t")

	for _, row := range []struct {
		name string
		res  thd.Result
	}{
		{"input", dry},
		{"output", wet},
	} {
		fmt.Fprintf(tw, "%s\t%.4f\t%.1f\t%.1f\t\n", row.name, 100*row.res.THD, row.res.THDN_dB, row.res.SINAD)
	}

	fmt.Fprintln(tw)

	if err := tw.Flush(); err != nil {
		return err
	}

	change := level.Compare(in[settle:], outL[settle:])

	fmt.Fprintf(w, "gain reduction %.2f dB, RMS change %.2f dB, crest factor change %.2f dB\n\n",
		s.GainReductionDB(), change.RMS_dB, change.CrestFactor_dB)

	return nil
}
