// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package template

import (
	"testing"

	"showcompiler-go/pkg/errors"
)

func validTemplate() *Template {
	return &Template{
		ID:      "sweep_wide",
		Version: 1,
		Roles:   map[string]string{"leads": "spots"},
		Steps: []Step{
			{
				ID:       "intro",
				Target:   "group:ALL",
				Timing:   BaseTiming{StartBar: 0, DurationBars: 2},
				Geometry: GeometrySpec{Pattern: "fan"},
				Movement: MovementSpec{Pattern: "sweep", Cycles: 2},
				Dimmer:   DimmerSpec{Pattern: "swell", MaxNorm: 1},
			},
			{
				ID:       "main",
				Target:   "role:leads",
				Timing:   BaseTiming{StartBar: 2, DurationBars: 2},
				Geometry: GeometrySpec{Pattern: "center"},
				Movement: MovementSpec{Pattern: "circle", Cycles: 1},
				Dimmer:   DimmerSpec{Pattern: "hold", MaxNorm: 1},
			},
		},
		Repeat: RepeatContract{
			Repeatable: true,
			CycleBars:  4,
			LoopSteps:  []string{"intro", "main"},
		},
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	tmpl := validTemplate()
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if tmpl.Steps[0].Blend != BlendReplace {
		t.Errorf("default blend = %s, want replace", tmpl.Steps[0].Blend)
	}
	if tmpl.Repeat.Mode != RepeatJoiner {
		t.Errorf("default repeat mode = %s, want joiner", tmpl.Repeat.Mode)
	}
	if tmpl.Repeat.Remainder != RemainderHoldLastPose {
		t.Errorf("default remainder = %s, want hold_last_pose", tmpl.Repeat.Remainder)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Template)
		code   errors.ErrorCode
	}{
		{"empty id", func(tm *Template) { tm.ID = "" }, errors.ErrTemplateInvalid},
		{"zero version", func(tm *Template) { tm.Version = 0 }, errors.ErrTemplateInvalid},
		{"no steps", func(tm *Template) { tm.Steps = nil }, errors.ErrTemplateInvalid},
		{"duplicate step id", func(tm *Template) { tm.Steps[1].ID = "intro" }, errors.ErrTemplateInvalid},
		{"zero duration", func(tm *Template) { tm.Steps[0].Timing.DurationBars = 0 }, errors.ErrTimingMalformed},
		{"empty target", func(tm *Template) { tm.Steps[0].Target = "" }, errors.ErrTemplateInvalid},
		{"undeclared role", func(tm *Template) { tm.Steps[1].Target = "role:ghost" }, errors.ErrTemplateInvalid},
		{"unknown blend", func(tm *Template) { tm.Steps[0].Blend = "screen" }, errors.ErrTemplateInvalid},
		{"phase without group", func(tm *Template) {
			tm.Steps[0].Phase = &PhaseOffsetSpec{Mode: PhaseGroupOrder, Order: "lr"}
		}, errors.ErrTemplateInvalid},
		{"phase without order", func(tm *Template) {
			tm.Steps[0].Phase = &PhaseOffsetSpec{Mode: PhaseGroupOrder, Group: "spots"}
		}, errors.ErrTemplateInvalid},
		{"loop step not declared", func(tm *Template) {
			tm.Repeat.LoopSteps = []string{"ghost"}
		}, errors.ErrRepeatContract},
		{"repeatable without loop steps", func(tm *Template) {
			tm.Repeat.LoopSteps = nil
		}, errors.ErrRepeatContract},
		{"repeatable without cycle bars", func(tm *Template) {
			tm.Repeat.CycleBars = 0
		}, errors.ErrRepeatContract},
		{"unknown repeat mode", func(tm *Template) {
			tm.Repeat.Mode = "bounce"
		}, errors.ErrRepeatContract},
		{"unknown remainder", func(tm *Template) {
			tm.Repeat.Remainder = "stretch"
		}, errors.ErrRepeatContract},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := validTemplate()
			tc.mutate(tmpl)
			err := tmpl.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tc.code) {
				t.Errorf("error = %v, want code %s", err, tc.code)
			}
		})
	}
}

func TestIntensityLevel(t *testing.T) {
	cases := []struct {
		token string
		want  float64
	}{
		{"low", 0.25},
		{"medium", 0.5},
		{"HIGH", 0.75},
		{" full ", 1.0},
		{"", DefaultIntensity},
		{"eleven", DefaultIntensity},
	}
	for _, tc := range cases {
		if got := IntensityLevel(tc.token); got != tc.want {
			t.Errorf("IntensityLevel(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestPresetByID(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Presets = map[string]Preset{
		"chill": {MovementIntensity: "low", DimmerIntensity: "medium"},
	}

	p, err := tmpl.PresetByID("chill")
	if err != nil {
		t.Fatalf("PresetByID: %v", err)
	}
	if p.MovementIntensity != "low" {
		t.Errorf("preset movement intensity = %s", p.MovementIntensity)
	}

	// Empty id means no preset, not an error.
	if _, err := tmpl.PresetByID(""); err != nil {
		t.Errorf("empty preset id: %v", err)
	}

	_, err = tmpl.PresetByID("ghost")
	if !errors.Is(err, errors.ErrPresetNotFound) {
		t.Errorf("missing preset error = %v, want PRESET_NOT_FOUND", err)
	}
}

func TestFloorsAndCeilings(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Floors = map[string]float64{"dimmer": 0.1}
	tmpl.Ceilings = map[string]float64{"tilt": 0.8}

	if got := tmpl.FloorFor("dimmer"); got != 0.1 {
		t.Errorf("FloorFor(dimmer) = %v", got)
	}
	if got := tmpl.FloorFor("pan"); got != 0 {
		t.Errorf("FloorFor(pan) = %v, want 0 default", got)
	}
	if got := tmpl.CeilingFor("tilt"); got != 0.8 {
		t.Errorf("CeilingFor(tilt) = %v", got)
	}
	if got := tmpl.CeilingFor("pan"); got != 1 {
		t.Errorf("CeilingFor(pan) = %v, want 1 default", got)
	}
}
