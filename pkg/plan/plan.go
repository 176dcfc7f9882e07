// Choreography plan - the external planner's output, consumed read-only
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package plan

import (
	"fmt"
	"sort"

	"showcompiler-go/pkg/errors"
)

// Section binds a bar range to a template with optional overrides.
type Section struct {
	Name       string             `yaml:"name"`
	StartBar   float64            `yaml:"start_bar"`
	EndBar     float64            `yaml:"end_bar"`
	TemplateID string             `yaml:"template_id"`
	PresetID   string             `yaml:"preset_id,omitempty"`
	Params     map[string]float64 `yaml:"params,omitempty"`
}

// Bars returns the section window length in bars.
func (s *Section) Bars() float64 { return s.EndBar - s.StartBar }

// Plan is the ordered list of sections for one song. Sections need not
// be contiguous but must not overlap; gaps between them become
// inter-section timeline gaps.
type Plan struct {
	Sections []Section `yaml:"sections"`

	// SongDurationBars is the declared total song length; timeline
	// assembly fills the span after the last section up to it with an
	// end gap. Zero means the song ends with the last section.
	SongDurationBars float64 `yaml:"song_duration_bars,omitempty"`
}

// Validate checks plan invariants: non-empty, per-section end > start,
// template ids present, sections sorted and non-overlapping.
func (p *Plan) Validate() error {
	if len(p.Sections) == 0 {
		return errors.PlanEmptyError()
	}

	sorted := sort.SliceIsSorted(p.Sections, func(i, j int) bool {
		return p.Sections[i].StartBar < p.Sections[j].StartBar
	})
	if !sorted {
		return errors.New(errors.ErrPlanSection, "sections are not in bar order")
	}

	for i := range p.Sections {
		s := &p.Sections[i]
		if s.Name == "" {
			s.Name = fmt.Sprintf("section_%d", i)
		}
		if s.EndBar <= s.StartBar {
			return errors.TimingMalformedError(
				fmt.Sprintf("plan section '%s'", s.Name), s.StartBar, s.EndBar)
		}
		if s.TemplateID == "" {
			return errors.PlanSectionError(s.Name, "missing template id")
		}
		if i > 0 {
			prev := &p.Sections[i-1]
			if s.StartBar < prev.EndBar {
				return errors.PlanSectionError(s.Name,
					fmt.Sprintf("overlaps section '%s' (starts at bar %.3f before it ends at %.3f)",
						prev.Name, s.StartBar, prev.EndBar))
			}
		}
	}

	if p.SongDurationBars != 0 {
		last := p.Sections[len(p.Sections)-1]
		if p.SongDurationBars < last.EndBar {
			return errors.New(errors.ErrPlanSection,
				fmt.Sprintf("song duration %.3f bars ends before last section at %.3f",
					p.SongDurationBars, last.EndBar))
		}
	}

	return nil
}

// EndBar returns the bar position the timeline runs to: the declared
// song duration, or the end of the last section.
func (p *Plan) EndBar() float64 {
	if p.SongDurationBars > 0 {
		return p.SongDurationBars
	}
	if len(p.Sections) == 0 {
		return 0
	}
	return p.Sections[len(p.Sections)-1].EndBar
}
