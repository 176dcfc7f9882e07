// Beat grid - tempo-derived bar to millisecond mapping
//
// The grid is either constant tempo (single BPM) or a piecewise-constant
// tempo map given as ordered tempo marks. Bar positions are float64 so
// half-bar and beat offsets map naturally.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package plan

import (
	"math"
	"sort"

	"showcompiler-go/pkg/errors"
)

// TempoMark changes the tempo from the given bar onward.
type TempoMark struct {
	Bar float64 `yaml:"bar"`
	BPM float64 `yaml:"bpm"`
}

// BeatGrid maps musical bar positions to absolute milliseconds.
type BeatGrid struct {
	BPM         float64     `yaml:"bpm"`
	BeatsPerBar int         `yaml:"beats_per_bar"`
	TempoMarks  []TempoMark `yaml:"tempo_marks,omitempty"`
}

// NewBeatGrid builds a constant-tempo grid.
func NewBeatGrid(bpm float64, beatsPerBar int) (*BeatGrid, error) {
	g := &BeatGrid{BPM: bpm, BeatsPerBar: beatsPerBar}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks grid invariants and sorts tempo marks.
func (g *BeatGrid) Validate() error {
	if g.BPM <= 0 {
		return errors.New(errors.ErrPlanSection, "beat grid requires positive BPM")
	}
	if g.BeatsPerBar <= 0 {
		g.BeatsPerBar = 4
	}
	for _, m := range g.TempoMarks {
		if m.BPM <= 0 {
			return errors.New(errors.ErrPlanSection, "tempo mark requires positive BPM")
		}
	}
	sort.SliceStable(g.TempoMarks, func(i, j int) bool {
		return g.TempoMarks[i].Bar < g.TempoMarks[j].Bar
	})
	return nil
}

// barMs returns the bar duration in ms at the given tempo.
func (g *BeatGrid) barMs(bpm float64) float64 {
	return float64(g.BeatsPerBar) * 60000.0 / bpm
}

// BeatMs returns one beat's duration in ms at the base tempo.
func (g *BeatGrid) BeatMs() float64 {
	return 60000.0 / g.BPM
}

// BarToMs converts an absolute bar position to absolute milliseconds,
// integrating over the piecewise-constant tempo map. Bar 0 is 0 ms.
func (g *BeatGrid) BarToMs(bar float64) int64 {
	if bar <= 0 {
		return 0
	}
	if len(g.TempoMarks) == 0 {
		return int64(math.Round(bar * g.barMs(g.BPM)))
	}

	ms := 0.0
	curBar := 0.0
	curBPM := g.BPM
	for _, m := range g.TempoMarks {
		if m.Bar >= bar {
			break
		}
		if m.Bar > curBar {
			ms += (m.Bar - curBar) * g.barMs(curBPM)
			curBar = m.Bar
		}
		curBPM = m.BPM
	}
	ms += (bar - curBar) * g.barMs(curBPM)
	return int64(math.Round(ms))
}

// DurationMs returns the span in ms of `bars` bars starting at fromBar.
func (g *BeatGrid) DurationMs(fromBar, bars float64) int64 {
	return g.BarToMs(fromBar+bars) - g.BarToMs(fromBar)
}

// MsToBar converts absolute milliseconds back to a bar position,
// walking the same piecewise-constant tempo map as BarToMs.
func (g *BeatGrid) MsToBar(ms int64) float64 {
	if ms <= 0 {
		return 0
	}
	target := float64(ms)
	if len(g.TempoMarks) == 0 {
		return target / g.barMs(g.BPM)
	}

	elapsed := 0.0
	curBar := 0.0
	curBPM := g.BPM
	for _, m := range g.TempoMarks {
		if m.Bar > curBar {
			segMs := (m.Bar - curBar) * g.barMs(curBPM)
			if elapsed+segMs >= target {
				return curBar + (target-elapsed)/g.barMs(curBPM)
			}
			elapsed += segMs
			curBar = m.Bar
		}
		curBPM = m.BPM
	}
	return curBar + (target-elapsed)/g.barMs(curBPM)
}
