// Rig profile - fixtures, groups, orders and calibration
//
// The rig describes the physical lighting setup the compiler targets:
// which fixtures exist, how they are grouped and ordered for chase
// effects, and how normalized positions map onto each fixture's DMX
// range. A profile is loaded once and is immutable for the run.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package rig

import (
	"fmt"

	"showcompiler-go/pkg/errors"
)

// GroupAll is the implicit group containing every fixture in patch order.
const GroupAll = "ALL"

// Logical channel names understood by the channel mapper.
const (
	ChannelPan     = "pan"
	ChannelTilt    = "tilt"
	ChannelDimmer  = "dimmer"
	ChannelShutter = "shutter"
	ChannelColor   = "color"
	ChannelGobo    = "gobo"
)

// Calibration holds the per-fixture (or global fallback) device limits.
// DMX values are raw 0-255; degree ranges describe the physical travel
// the DMX span covers, used by the physics validator.
type Calibration struct {
	PanMin    int `yaml:"pan_min"`
	PanCenter int `yaml:"pan_center"`
	PanMax    int `yaml:"pan_max"`

	TiltMin    int `yaml:"tilt_min"`
	TiltCenter int `yaml:"tilt_center"`
	TiltMax    int `yaml:"tilt_max"`

	// DimmerFloor is the lowest DMX value at which the lamp visibly
	// emits; curves are tuned to stay at or above it.
	DimmerFloor int `yaml:"dimmer_floor"`

	PanRangeDeg  float64 `yaml:"pan_range_deg"`
	TiltRangeDeg float64 `yaml:"tilt_range_deg"`

	MaxSpeedDegPerSec  float64 `yaml:"max_speed_deg_per_sec"`
	MaxAccelDegPerSec2 float64 `yaml:"max_accel_deg_per_sec2"`
	MinSettleMs        int64   `yaml:"min_settle_ms"`
}

// DefaultCalibration is used when neither the fixture nor the profile
// declares one.
func DefaultCalibration() Calibration {
	return Calibration{
		PanMin: 0, PanCenter: 128, PanMax: 255,
		TiltMin: 0, TiltCenter: 128, TiltMax: 255,
		DimmerFloor:        0,
		PanRangeDeg:        540,
		TiltRangeDeg:       270,
		MaxSpeedDegPerSec:  360,
		MaxAccelDegPerSec2: 1080,
		MinSettleMs:        80,
	}
}

// Fixture is one patched moving-light head.
type Fixture struct {
	ID string `yaml:"id"`

	// Channels maps logical channel names to DMX channel numbers.
	// A fixture without some channel simply omits it.
	Channels map[string]int `yaml:"channels"`

	// Invert flags channels whose DMX values run backwards
	// (value -> 255 - value), applied after scaling.
	Invert map[string]bool `yaml:"invert,omitempty"`

	// Calibration overrides the profile-wide calibration when set.
	Calibration *Calibration `yaml:"calibration,omitempty"`
}

// HasChannel reports whether the fixture declares the logical channel.
func (f *Fixture) HasChannel(name string) bool {
	_, ok := f.Channels[name]
	return ok
}

// Profile is the full rig description.
type Profile struct {
	// Fixtures in patch order; ids must be unique.
	Fixtures []Fixture `yaml:"fixtures"`

	// Groups maps group names to fixture id subsets. The ALL group is
	// auto-populated at validation time if absent.
	Groups map[string][]string `yaml:"groups,omitempty"`

	// Orders maps order names to fixture id permutations/subsets used
	// for phase-offset distribution. No duplicates allowed.
	Orders map[string][]string `yaml:"orders,omitempty"`

	// Global calibration, used for fixtures without their own.
	Global Calibration `yaml:"calibration"`

	byID map[string]*Fixture
}

// Validate checks profile invariants and indexes fixtures by id.
// Every group member, order member and order must resolve to a declared
// fixture; orders must not repeat a fixture. The ALL group is populated
// here when absent.
func (p *Profile) Validate() error {
	if len(p.Fixtures) == 0 {
		return errors.New(errors.ErrRigReference, "rig profile declares no fixtures")
	}

	p.byID = make(map[string]*Fixture, len(p.Fixtures))
	for i := range p.Fixtures {
		f := &p.Fixtures[i]
		if f.ID == "" {
			return errors.New(errors.ErrRigReference, fmt.Sprintf("fixture at index %d has empty id", i))
		}
		if _, dup := p.byID[f.ID]; dup {
			return errors.New(errors.ErrRigReference, fmt.Sprintf("duplicate fixture id '%s'", f.ID))
		}
		p.byID[f.ID] = f
	}

	if p.Groups == nil {
		p.Groups = make(map[string][]string)
	}
	if _, ok := p.Groups[GroupAll]; !ok {
		all := make([]string, 0, len(p.Fixtures))
		for i := range p.Fixtures {
			all = append(all, p.Fixtures[i].ID)
		}
		p.Groups[GroupAll] = all
	}

	for name, members := range p.Groups {
		for _, id := range members {
			if _, ok := p.byID[id]; !ok {
				return errors.RigReferenceError("group", name, id)
			}
		}
	}

	for name, members := range p.Orders {
		seen := make(map[string]bool, len(members))
		for _, id := range members {
			if _, ok := p.byID[id]; !ok {
				return errors.RigReferenceError("order", name, id)
			}
			if seen[id] {
				return errors.New(errors.ErrRigReference,
					fmt.Sprintf("order '%s' lists fixture '%s' more than once", name, id))
			}
			seen[id] = true
		}
	}

	return nil
}

// Fixture returns the fixture with the given id.
func (p *Profile) Fixture(id string) (*Fixture, bool) {
	f, ok := p.byID[id]
	return f, ok
}

// Group returns the member ids of a named group.
func (p *Profile) Group(name string) ([]string, bool) {
	g, ok := p.Groups[name]
	return g, ok
}

// OrderedFixtures resolves an order name to a fixture id sequence,
// optionally filtered to members of the given group (empty group name
// means no filter). Order position is preserved.
func (p *Profile) OrderedFixtures(order, group string) ([]string, error) {
	seq, ok := p.Orders[order]
	if !ok {
		return nil, errors.New(errors.ErrRigReference, fmt.Sprintf("unknown order '%s'", order))
	}
	if group == "" {
		return append([]string(nil), seq...), nil
	}
	members, ok := p.Groups[group]
	if !ok {
		return nil, errors.New(errors.ErrRigReference, fmt.Sprintf("unknown group '%s'", group))
	}
	inGroup := make(map[string]bool, len(members))
	for _, id := range members {
		inGroup[id] = true
	}
	out := make([]string, 0, len(seq))
	for _, id := range seq {
		if inGroup[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// CalibrationFor returns the effective calibration for a fixture:
// the fixture's own when declared, otherwise the profile global,
// otherwise defaults.
func (p *Profile) CalibrationFor(id string) Calibration {
	if f, ok := p.byID[id]; ok && f.Calibration != nil {
		return *f.Calibration
	}
	zero := Calibration{}
	if p.Global != zero {
		return p.Global
	}
	return DefaultCalibration()
}
