// Channel mapper - logical channels to physical DMX values
//
// Maps logical channel names (pan, tilt, dimmer, ...) onto a fixture's
// declared DMX channel numbers, scales normalized values into the
// fixture's calibrated DMX span, applies inversion (value -> 255-value)
// and clamps to [0,255] after inversion. Channels a fixture does not
// declare are skipped silently; not every head has every channel.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package dmx

import (
	"math"

	"showcompiler-go/pkg/curve"
	"showcompiler-go/pkg/rig"
	"showcompiler-go/pkg/template"
)

// FullScale is the top of the DMX value range.
const FullScale = 255

// Mapper converts normalized values for one fixture.
type Mapper struct {
	fixture *rig.Fixture
	cal     rig.Calibration
}

// NewMapper builds a mapper for one fixture with its effective
// calibration.
func NewMapper(f *rig.Fixture, cal rig.Calibration) *Mapper {
	return &Mapper{fixture: f, cal: cal}
}

// Channel returns the physical DMX channel number for a logical name.
// The second result is false when the fixture lacks the channel.
func (m *Mapper) Channel(logical string) (int, bool) {
	n, ok := m.fixture.Channels[logical]
	return n, ok
}

// span returns the calibrated DMX span for a logical channel.
func (m *Mapper) span(logical string) (int, int) {
	switch logical {
	case rig.ChannelPan:
		return m.cal.PanMin, m.cal.PanMax
	case rig.ChannelTilt:
		return m.cal.TiltMin, m.cal.TiltMax
	default:
		return 0, FullScale
	}
}

// ToDMX scales a normalized value into the channel's calibrated span,
// applies inversion and clamps to [0,255].
func (m *Mapper) ToDMX(logical string, norm float64) int {
	lo, hi := m.span(logical)
	v := int(math.Round(float64(lo) + curve.Clamp01(norm)*float64(hi-lo)))
	if m.fixture.Invert[logical] {
		v = FullScale - v
	}
	if v < 0 {
		v = 0
	}
	if v > FullScale {
		v = FullScale
	}
	return v
}

// ToDMXSlice converts a normalized sample list.
func (m *Mapper) ToDMXSlice(logical string, norms []float64) []int {
	out := make([]int, len(norms))
	for i, n := range norms {
		out[i] = m.ToDMX(logical, n)
	}
	return out
}

// CurveDescriptor is the exporter-facing curve payload, in DMX units.
type CurveDescriptor struct {
	Form      Form
	PatternID string
	Cycles    float64

	Center    int
	Amplitude int

	Min int
	Max int

	Points []int
}

// DescribeCurve converts tuned normalized curve params into DMX units
// for one logical channel.
func (m *Mapper) DescribeCurve(logical string, p CurveParams) CurveDescriptor {
	d := CurveDescriptor{Form: p.Form, PatternID: p.PatternID, Cycles: p.Cycles}
	switch p.Form {
	case FormCenterAmplitude:
		lo := m.ToDMX(logical, p.Center-p.Amplitude)
		hi := m.ToDMX(logical, p.Center+p.Amplitude)
		if lo > hi {
			lo, hi = hi, lo
		}
		d.Center = (lo + hi) / 2
		d.Amplitude = (hi - lo) / 2
	case FormMinMax:
		d.Min = m.ToDMX(logical, p.Min)
		d.Max = m.ToDMX(logical, p.Max)
	case FormFlat:
		d.Center = m.ToDMX(logical, p.Value)
	default:
		d.Points = m.ToDMXSlice(logical, p.Points)
	}
	return d
}

// ChannelSegment is the final output unit consumed by the exporter.
type ChannelSegment struct {
	FixtureID string
	Channel   string
	DMXChan   int

	StartMs int64
	EndMs   int64

	// Static segments carry a single value; curve segments carry a
	// descriptor. Exactly one applies.
	IsStatic bool
	Static   int
	Curve    *CurveDescriptor

	ClampLo int
	ClampHi int

	Blend template.BlendMode

	// HandlerID is set on transition-fill segments.
	HandlerID string
}
