// Curve tuner - reparametrizes curve forms to fit device limits
//
// Curves expressible in a small parametric form are adjusted in place,
// without resampling or clipping, so their full range fits inside a
// normalized [floor, ceiling] window. Curves that already fit are
// returned untouched. Non-parametric curves travel as explicit point
// lists and are bounded by construction (handlers generate in [0,1];
// the mapper scales once into [floor, ceiling]).
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package dmx

import "showcompiler-go/pkg/curve"

// Form is the closed set of parametric curve families the tuner knows.
type Form int

const (
	// FormPoints is the explicit sample-list fallback (not parametric).
	FormPoints Form = iota
	// FormFlat is a single constant value.
	FormFlat
	// FormCenterAmplitude swings symmetrically around a center
	// (sine / abs-sine / parabolic family).
	FormCenterAmplitude
	// FormMinMax spans a directed range (ramp / sawtooth /
	// exponential / logarithmic family).
	FormMinMax
)

// formForPattern maps pattern ids to their parametric family. Ids
// absent from the table render as explicit point lists.
var formForPattern = map[string]Form{
	// center+amplitude family
	"sine":      FormCenterAmplitude,
	"sweep":     FormCenterAmplitude,
	"wave":      FormCenterAmplitude,
	"abs_sine":  FormCenterAmplitude,
	"parabolic": FormCenterAmplitude,
	"breathe":   FormCenterAmplitude,

	// min+max family
	"ramp_up":   FormMinMax,
	"ramp_down": FormMinMax,
	"sawtooth":  FormMinMax,
	"exp":       FormMinMax,
	"log":       FormMinMax,

	// constant
	"flat": FormFlat,
	"hold": FormFlat,
}

// FormForPattern returns the parametric family for a pattern id, or
// FormPoints when the pattern has no small parametric form.
func FormForPattern(id string) Form {
	if f, ok := formForPattern[id]; ok {
		return f
	}
	return FormPoints
}

// CurveParams is a curve in normalized [0,1] space, in one of the
// closed parametric forms or as explicit points.
type CurveParams struct {
	Form      Form
	PatternID string
	Cycles    float64

	// FormCenterAmplitude
	Center    float64
	Amplitude float64

	// FormMinMax
	Min float64
	Max float64

	// FormFlat
	Value float64

	// FormPoints
	Points []float64
}

// Tune fits the curve inside [floor, ceiling] without resampling.
// A curve that already fits is returned byte-identical. An
// out-of-bounds center+amplitude curve is recentered and rescaled so
// its range equals [floor, ceiling] exactly; min+max curves have each
// bound clamped independently; flat curves clamp the single value;
// point lists clamp per sample.
func Tune(p CurveParams, floor, ceiling float64) CurveParams {
	if ceiling < floor {
		floor, ceiling = ceiling, floor
	}

	switch p.Form {
	case FormCenterAmplitude:
		lo := p.Center - p.Amplitude
		hi := p.Center + p.Amplitude
		if lo >= floor && hi <= ceiling {
			return p
		}
		p.Center = (floor + ceiling) / 2
		p.Amplitude = (ceiling - floor) / 2
		return p

	case FormMinMax:
		if p.Min < floor {
			p.Min = floor
		}
		if p.Min > ceiling {
			p.Min = ceiling
		}
		if p.Max > ceiling {
			p.Max = ceiling
		}
		if p.Max < floor {
			p.Max = floor
		}
		return p

	case FormFlat:
		if p.Value < floor {
			p.Value = floor
		}
		if p.Value > ceiling {
			p.Value = ceiling
		}
		return p

	default: // FormPoints
		changed := false
		for _, v := range p.Points {
			if v < floor || v > ceiling {
				changed = true
				break
			}
		}
		if !changed {
			return p
		}
		pts := make([]float64, len(p.Points))
		for i, v := range p.Points {
			if v < floor {
				v = floor
			}
			if v > ceiling {
				v = ceiling
			}
			pts[i] = v
		}
		p.Points = pts
		return p
	}
}

// ScalePoints maps [0,1] samples once into [floor, ceiling].
func ScalePoints(samples []float64, floor, ceiling float64) []float64 {
	out := make([]float64, len(samples))
	span := ceiling - floor
	for i, s := range samples {
		out[i] = floor + span*curve.Clamp01(s)
	}
	return out
}
