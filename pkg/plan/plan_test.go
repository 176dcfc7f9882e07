// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package plan

import (
	"math"
	"testing"

	"showcompiler-go/pkg/errors"
)

func validPlan() *Plan {
	return &Plan{
		Sections: []Section{
			{Name: "verse", StartBar: 0, EndBar: 8, TemplateID: "sweep_wide"},
			{Name: "chorus", StartBar: 8, EndBar: 16, TemplateID: "strobe_burst"},
		},
	}
}

func TestPlanValidate(t *testing.T) {
	if err := validPlan().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Plan)
		code   errors.ErrorCode
	}{
		{"empty plan", func(p *Plan) { p.Sections = nil }, errors.ErrPlanEmpty},
		{"end before start", func(p *Plan) { p.Sections[0].EndBar = 0 }, errors.ErrTimingMalformed},
		{"missing template", func(p *Plan) { p.Sections[1].TemplateID = "" }, errors.ErrPlanSection},
		{"overlap", func(p *Plan) { p.Sections[1].StartBar = 6 }, errors.ErrPlanSection},
		{"out of order", func(p *Plan) {
			p.Sections[0], p.Sections[1] = p.Sections[1], p.Sections[0]
		}, errors.ErrPlanSection},
		{"song shorter than last section", func(p *Plan) { p.SongDurationBars = 12 }, errors.ErrPlanSection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPlan()
			tc.mutate(p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tc.code) {
				t.Errorf("error = %v, want code %s", err, tc.code)
			}
		})
	}
}

func TestPlanEndBar(t *testing.T) {
	p := validPlan()
	if got := p.EndBar(); got != 16 {
		t.Errorf("EndBar = %v, want last section end", got)
	}
	p.SongDurationBars = 20
	if got := p.EndBar(); got != 20 {
		t.Errorf("EndBar = %v, want declared song duration", got)
	}
}

func TestPlanNamesDefaulted(t *testing.T) {
	p := &Plan{Sections: []Section{
		{StartBar: 0, EndBar: 4, TemplateID: "t"},
	}}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.Sections[0].Name == "" {
		t.Error("section name not defaulted")
	}
}

func TestBarToMsConstantTempo(t *testing.T) {
	g, err := NewBeatGrid(120, 4)
	if err != nil {
		t.Fatalf("NewBeatGrid: %v", err)
	}
	// 120 BPM, 4/4: one bar is 2000 ms.
	cases := []struct {
		bar  float64
		want int64
	}{
		{0, 0},
		{1, 2000},
		{0.5, 1000},
		{4, 8000},
		{-1, 0},
	}
	for _, tc := range cases {
		if got := g.BarToMs(tc.bar); got != tc.want {
			t.Errorf("BarToMs(%v) = %d, want %d", tc.bar, got, tc.want)
		}
	}
	if got := g.DurationMs(2, 1.5); got != 3000 {
		t.Errorf("DurationMs(2, 1.5) = %d, want 3000", got)
	}
}

func TestBarToMsTempoMap(t *testing.T) {
	g := &BeatGrid{
		BPM:         120,
		BeatsPerBar: 4,
		TempoMarks:  []TempoMark{{Bar: 4, BPM: 60}},
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Bars 0-4 at 120 BPM (2000 ms/bar), then 60 BPM (4000 ms/bar).
	if got := g.BarToMs(4); got != 8000 {
		t.Errorf("BarToMs(4) = %d, want 8000", got)
	}
	if got := g.BarToMs(6); got != 16000 {
		t.Errorf("BarToMs(6) = %d, want 16000", got)
	}
	// Durations straddling the mark integrate both tempos.
	if got := g.DurationMs(3, 2); got != 6000 {
		t.Errorf("DurationMs(3, 2) = %d, want 6000", got)
	}
}

func TestMsToBarInvertsBarToMs(t *testing.T) {
	g := &BeatGrid{
		BPM:         128,
		BeatsPerBar: 4,
		TempoMarks:  []TempoMark{{Bar: 8, BPM: 96}, {Bar: 16, BPM: 140}},
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, bar := range []float64{0, 1.25, 7.999, 8, 12.5, 16, 20} {
		ms := g.BarToMs(bar)
		back := g.MsToBar(ms)
		if math.Abs(back-bar) > 1e-3 {
			t.Errorf("roundtrip bar %v -> %d ms -> %v", bar, ms, back)
		}
	}
}

func TestBeatGridValidation(t *testing.T) {
	if _, err := NewBeatGrid(0, 4); err == nil {
		t.Error("zero BPM accepted")
	}
	g := &BeatGrid{BPM: 120, TempoMarks: []TempoMark{{Bar: 2, BPM: -1}}}
	if err := g.Validate(); err == nil {
		t.Error("negative tempo mark accepted")
	}
	// Beats per bar defaults to 4.
	g = &BeatGrid{BPM: 120}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if g.BeatsPerBar != 4 {
		t.Errorf("BeatsPerBar = %d, want defaulted 4", g.BeatsPerBar)
	}
}
