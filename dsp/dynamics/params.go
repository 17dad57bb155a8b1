package dynamics

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-comp/dsp/core"
)

// ParameterID identifies one compressor parameter.
type ParameterID int

const (
	ParamThreshold ParameterID = iota
	ParamKnee
	ParamPreSmooth
	ParamRMSWindow
	ParamRatio
	ParamAttack
	ParamRelease
	ParamMakeupGain

	numParameters
)

// ParameterRange describes the declared range of a parameter.
type ParameterRange struct {
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Default float64
}

// parameterRanges is indexed by ParameterID.
var parameterRanges = [numParameters]ParameterRange{
	ParamThreshold:  {Name: "Threshold", Unit: "dB", Min: -80, Max: 12, Default: 0},
	ParamKnee:       {Name: "Knee", Unit: "dB", Min: 0, Max: 48, Default: 0},
	ParamPreSmooth:  {Name: "PreSmooth", Unit: "ms", Min: 1, Max: 300, Default: 5},
	ParamRMSWindow:  {Name: "RMS", Unit: "ms", Min: 0, Max: 100, Default: 5},
	ParamRatio:      {Name: "Ratio", Unit: "", Min: 1, Max: 20, Default: 4},
	ParamAttack:     {Name: "Attack", Unit: "ms", Min: 0, Max: 300, Default: 1},
	ParamRelease:    {Name: "Release", Unit: "ms", Min: 0, Max: 1000, Default: 100},
	ParamMakeupGain: {Name: "Gain", Unit: "dB", Min: -24, Max: 24, Default: 0},
}

// MaxRMSWindowMs is the largest RMS window a Core preallocates for.
const MaxRMSWindowMs = 100.0

// ErrUnknownParameter is returned for a ParameterID outside the table.
var ErrUnknownParameter = errors.New("dynamics: unknown parameter")

// Range returns the declared range of id.
func (id ParameterID) Range() (ParameterRange, error) {
	if id < 0 || id >= numParameters {
		return ParameterRange{}, fmt.Errorf("%w: %d", ErrUnknownParameter, id)
	}

	return parameterRanges[id], nil
}

func (id ParameterID) String() string {
	if id < 0 || id >= numParameters {
		return fmt.Sprintf("ParameterID(%d)", int(id))
	}

	return parameterRanges[id].Name
}

// ParameterIDs returns all parameter identifiers in host order.
func ParameterIDs() []ParameterID {
	ids := make([]ParameterID, numParameters)
	for i := range ids {
		ids[i] = ParameterID(i)
	}

	return ids
}

// Parameters is an immutable snapshot of the compressor controls.
//
// A snapshot is captured by the host (or UI) and handed by value to
// Core.UpdateParameters; the core never reads it field by field from
// another goroutine.
type Parameters struct {
	ThresholdDB  float64
	KneeDB       float64
	Ratio        float64
	AttackMs     float64
	ReleaseMs    float64
	MakeupGainDB float64
	PreSmoothMs  float64
	RMSWindowMs  float64
}

// DefaultParameters returns the factory defaults.
func DefaultParameters() Parameters {
	var p Parameters
	for id, r := range parameterRanges {
		p = p.With(ParameterID(id), r.Default)
	}

	return p
}

// Value returns the field selected by id. Unknown ids yield NaN.
func (p Parameters) Value(id ParameterID) float64 {
	switch id {
	case ParamThreshold:
		return p.ThresholdDB
	case ParamKnee:
		return p.KneeDB
	case ParamPreSmooth:
		return p.PreSmoothMs
	case ParamRMSWindow:
		return p.RMSWindowMs
	case ParamRatio:
		return p.Ratio
	case ParamAttack:
		return p.AttackMs
	case ParamRelease:
		return p.ReleaseMs
	case ParamMakeupGain:
		return p.MakeupGainDB
	default:
		return math.NaN()
	}
}

// With returns a copy of p with the field selected by id set to v.
// Unknown ids return p unchanged.
func (p Parameters) With(id ParameterID, v float64) Parameters {
	switch id {
	case ParamThreshold:
		p.ThresholdDB = v
	case ParamKnee:
		p.KneeDB = v
	case ParamPreSmooth:
		p.PreSmoothMs = v
	case ParamRMSWindow:
		p.RMSWindowMs = v
	case ParamRatio:
		p.Ratio = v
	case ParamAttack:
		p.AttackMs = v
	case ParamRelease:
		p.ReleaseMs = v
	case ParamMakeupGain:
		p.MakeupGainDB = v
	}

	return p
}

// WithNormalized sets the field selected by id from a host-normalized value
// in [0, 1]. The normalized value is clamped first.
func (p Parameters) WithNormalized(id ParameterID, normalized float64) Parameters {
	r, err := id.Range()
	if err != nil {
		return p
	}

	return p.With(id, core.ToRange(r.Min, r.Max, core.Clamp(core.OrElse(normalized, 0), 0, 1)))
}

// Normalized returns the field selected by id mapped onto [0, 1].
func (p Parameters) Normalized(id ParameterID) float64 {
	r, err := id.Range()
	if err != nil {
		return math.NaN()
	}

	return core.FromRange(r.Min, r.Max, p.Value(id))
}

// Validate reports the first field that is non-finite or outside its
// declared range.
func (p Parameters) Validate() error {
	for id, r := range parameterRanges {
		v := p.Value(ParameterID(id))
		if !core.IsFinite(v) || v < r.Min || v > r.Max {
			return fmt.Errorf("compressor %s must be in [%g, %g]: %f", r.Name, r.Min, r.Max, v)
		}
	}

	return nil
}

// Clamp returns a copy of p with every field limited to its declared range.
// Non-finite fields are replaced by their defaults.
func (p Parameters) Clamp() Parameters {
	for id, r := range parameterRanges {
		v := p.Value(ParameterID(id))
		if !core.IsFinite(v) {
			v = r.Default
		}

		p = p.With(ParameterID(id), core.Clamp(v, r.Min, r.Max))
	}

	return p
}
