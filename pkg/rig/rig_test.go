// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package rig

import (
	"testing"

	"showcompiler-go/pkg/errors"
)

func testProfile() *Profile {
	return &Profile{
		Fixtures: []Fixture{
			{ID: "spot_1", Channels: map[string]int{ChannelPan: 1, ChannelTilt: 2, ChannelDimmer: 3}},
			{ID: "spot_2", Channels: map[string]int{ChannelPan: 11, ChannelTilt: 12, ChannelDimmer: 13}},
			{ID: "wash_1", Channels: map[string]int{ChannelDimmer: 21}},
		},
		Groups: map[string][]string{
			"spots": {"spot_1", "spot_2"},
		},
		Orders: map[string][]string{
			"left_to_right": {"spot_2", "spot_1", "wash_1"},
		},
	}
}

func TestValidatePopulatesAllGroup(t *testing.T) {
	p := testProfile()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	all, ok := p.Group(GroupAll)
	if !ok {
		t.Fatal("ALL group missing after validation")
	}
	want := []string{"spot_1", "spot_2", "wash_1"}
	if len(all) != len(want) {
		t.Fatalf("ALL = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("ALL[%d] = %s, want %s (patch order)", i, all[i], want[i])
		}
	}
}

func TestValidateRejectsBadReferences(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"duplicate fixture id", func(p *Profile) {
			p.Fixtures = append(p.Fixtures, Fixture{ID: "spot_1"})
		}},
		{"empty fixture id", func(p *Profile) {
			p.Fixtures = append(p.Fixtures, Fixture{})
		}},
		{"group references unknown fixture", func(p *Profile) {
			p.Groups["spots"] = append(p.Groups["spots"], "ghost")
		}},
		{"order references unknown fixture", func(p *Profile) {
			p.Orders["left_to_right"] = append(p.Orders["left_to_right"], "ghost")
		}},
		{"order repeats fixture", func(p *Profile) {
			p.Orders["left_to_right"] = []string{"spot_1", "spot_1"}
		}},
		{"no fixtures", func(p *Profile) {
			p.Fixtures = nil
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := testProfile()
			tc.mutate(p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, errors.ErrRigReference) {
				t.Errorf("code = %v, want RIG_REFERENCE", err)
			}
		})
	}
}

func TestOrderedFixturesGroupFilter(t *testing.T) {
	p := testProfile()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Unfiltered keeps full order.
	seq, err := p.OrderedFixtures("left_to_right", "")
	if err != nil {
		t.Fatalf("OrderedFixtures: %v", err)
	}
	if len(seq) != 3 || seq[0] != "spot_2" {
		t.Errorf("unfiltered order = %v", seq)
	}

	// Group filter preserves order position.
	seq, err = p.OrderedFixtures("left_to_right", "spots")
	if err != nil {
		t.Fatalf("OrderedFixtures filtered: %v", err)
	}
	if len(seq) != 2 || seq[0] != "spot_2" || seq[1] != "spot_1" {
		t.Errorf("filtered order = %v, want [spot_2 spot_1]", seq)
	}

	if _, err := p.OrderedFixtures("no_such_order", ""); err == nil {
		t.Error("unknown order accepted")
	}
}

func TestCalibrationFallbackChain(t *testing.T) {
	p := testProfile()
	own := DefaultCalibration()
	own.PanRangeDeg = 360
	p.Fixtures[0].Calibration = &own
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if got := p.CalibrationFor("spot_1").PanRangeDeg; got != 360 {
		t.Errorf("fixture calibration PanRangeDeg = %v, want 360", got)
	}
	// No global set: defaults apply.
	if got := p.CalibrationFor("spot_2").PanRangeDeg; got != DefaultCalibration().PanRangeDeg {
		t.Errorf("default calibration PanRangeDeg = %v", got)
	}

	p.Global = DefaultCalibration()
	p.Global.TiltRangeDeg = 180
	if got := p.CalibrationFor("spot_2").TiltRangeDeg; got != 180 {
		t.Errorf("global calibration TiltRangeDeg = %v, want 180", got)
	}
}
