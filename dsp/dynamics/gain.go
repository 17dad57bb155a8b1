package dynamics

import (
	"math"

	"github.com/cwbudde/algo-comp/dsp/core"
)

// GainComputer is the soft-knee static transfer function.
//
// For an input level x (dB) and d = x - threshold:
//
//	2|d| <= knee:  y = x + slope·(d + knee/2)² / (2·knee)
//	2d > knee:     y = threshold + d/ratio
//	otherwise:     y = x
//
// with slope = 1/ratio - 1. The quadratic branch is only taken for a
// positive knee, so a zero knee is exactly the hard-knee curve and is
// continuous at x = threshold.
type GainComputer struct {
	thresholdDB float64
	kneeDB      float64
	ratio       float64
	slope       float64
}

// NewGainComputer returns a GainComputer with the given curve.
func NewGainComputer(thresholdDB, kneeDB, ratio float64) GainComputer {
	var g GainComputer
	g.SetParameters(thresholdDB, kneeDB, ratio)

	return g
}

// SetParameters updates the curve and precomputes the knee slope. A
// non-finite threshold is treated as 0 dB, a negative or non-finite knee as
// a hard knee and a non-positive or non-finite ratio as 1:1.
func (g *GainComputer) SetParameters(thresholdDB, kneeDB, ratio float64) {
	thresholdDB = core.OrElse(thresholdDB, 0)

	if !(kneeDB > 0) || !core.IsFinite(kneeDB) {
		kneeDB = 0
	}

	if !(ratio > 0) || !core.IsFinite(ratio) {
		ratio = 1
	}

	g.thresholdDB = thresholdDB
	g.kneeDB = kneeDB
	g.ratio = ratio
	g.slope = 1/ratio - 1
}

// Output returns the compressed level in dB for input level x in dB.
func (g *GainComputer) Output(x float64) float64 {
	d := x - g.thresholdDB

	switch {
	case g.kneeDB > 0 && 2*math.Abs(d) <= g.kneeDB:
		t := d + g.kneeDB*0.5
		return x + g.slope*t*t/(2*g.kneeDB)
	case 2*d > g.kneeDB:
		return g.thresholdDB + d/g.ratio
	default:
		return x
	}
}

// Reduction returns Output(x) - x, the gain change in dB (<= 0 for
// ratios >= 1). Non-finite results are reported as 0 dB.
func (g *GainComputer) Reduction(x float64) float64 {
	return core.OrElse(g.Output(x)-x, 0)
}

// Curve evaluates Output for each level in levelsDB and writes the results
// to dst, which must be at least as long as levelsDB.
func (g *GainComputer) Curve(dst, levelsDB []float64) {
	if len(levelsDB) == 0 {
		return
	}

	_ = dst[len(levelsDB)-1]

	for i, x := range levelsDB {
		dst[i] = g.Output(x)
	}
}

// Threshold returns the threshold in dB.
func (g *GainComputer) Threshold() float64 { return g.thresholdDB }

// Knee returns the knee width in dB.
func (g *GainComputer) Knee() float64 { return g.kneeDB }

// Ratio returns the compression ratio.
func (g *GainComputer) Ratio() float64 { return g.ratio }

// Slope returns 1/ratio - 1.
func (g *GainComputer) Slope() float64 { return g.slope }
