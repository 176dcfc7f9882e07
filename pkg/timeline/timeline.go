// Timeline assembler - chronological per-fixture segment sequences
//
// The assembler merges all scheduled step instances into one ordered
// sequence per fixture, inserting classified gap segments wherever the
// timeline has unaccounted time. Gap classification is purely
// positional: before the first step (start), between steps inside one
// section (mid_sequence), between sections (inter_section), and after
// the last step to the declared song end (end).
//
// Per fixture, segments are contiguous and non-overlapping; overlapping
// step instances are trimmed deterministically by priority before gaps
// are inserted.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package timeline

import (
	"fmt"
	"sort"

	"showcompiler-go/pkg/errors"
	"showcompiler-go/pkg/scheduler"
)

// GapClass classifies a gap by its position in the timeline.
type GapClass string

const (
	GapStart        GapClass = "start"
	GapMidSequence  GapClass = "mid_sequence"
	GapInterSection GapClass = "inter_section"
	GapEnd          GapClass = "end"
)

// SegmentKind tags the segment variant.
type SegmentKind int

const (
	KindStep SegmentKind = iota
	KindGap
)

// GapInfo describes a span with no active step.
type GapInfo struct {
	FixtureID string
	StartMs   int64
	EndMs     int64
	Class     GapClass
}

// Segment is the closed union of step and gap segments.
type Segment struct {
	Kind SegmentKind
	Step *scheduler.StepInstance // set when Kind == KindStep
	Gap  *GapInfo                // set when Kind == KindGap
}

// Span returns the segment's absolute time window.
func (s *Segment) Span() (int64, int64) {
	if s.Kind == KindStep {
		return s.Step.StartMs, s.Step.EndMs
	}
	return s.Gap.StartMs, s.Gap.EndMs
}

// SectionSpan is a section's absolute window, used for gap classification.
type SectionSpan struct {
	Name    string
	StartMs int64
	EndMs   int64
}

// Timeline is the exploded, per-fixture chronological view.
type Timeline struct {
	PerFixture map[string][]Segment
	SongEndMs  int64
}

// Fixtures returns the fixture ids present, sorted.
func (tl *Timeline) Fixtures() []string {
	ids := make([]string, 0, len(tl.PerFixture))
	for id := range tl.PerFixture {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Assemble builds the exploded timeline from scheduled instances.
// songEndMs caps the timeline; instances ending after it keep their
// span (the end gap is simply absent for that fixture).
func Assemble(instances []scheduler.StepInstance, sections []SectionSpan, songEndMs int64) (*Timeline, error) {
	perFixture := make(map[string][]scheduler.StepInstance)
	for i := range instances {
		inst := instances[i]
		if inst.EndMs <= inst.StartMs {
			return nil, errors.TimingMalformedError(
				fmt.Sprintf("step '%s' on fixture '%s'", inst.StepID, inst.FixtureID),
				float64(inst.StartMs), float64(inst.EndMs))
		}
		perFixture[inst.FixtureID] = append(perFixture[inst.FixtureID], inst)
	}

	tl := &Timeline{
		PerFixture: make(map[string][]Segment, len(perFixture)),
		SongEndMs:  songEndMs,
	}

	for fid, insts := range perFixture {
		sort.SliceStable(insts, func(i, j int) bool {
			if insts[i].StartMs != insts[j].StartMs {
				return insts[i].StartMs < insts[j].StartMs
			}
			return insts[i].StepID < insts[j].StepID
		})
		trimmed := trimOverlaps(insts)
		tl.PerFixture[fid] = insertGaps(fid, trimmed, sections, songEndMs)
	}

	return tl, nil
}

// trimOverlaps resolves same-fixture overlaps: the higher-priority
// instance keeps its span and the other is clipped; on equal priority
// the earlier start wins. Instances clipped to nothing are dropped.
func trimOverlaps(insts []scheduler.StepInstance) []scheduler.StepInstance {
	out := make([]scheduler.StepInstance, 0, len(insts))
	for _, inst := range insts {
		if len(out) == 0 {
			out = append(out, inst)
			continue
		}
		prev := &out[len(out)-1]
		if inst.StartMs >= prev.EndMs {
			out = append(out, inst)
			continue
		}
		if inst.Priority > prev.Priority {
			prev.EndMs = inst.StartMs
			if prev.EndMs <= prev.StartMs {
				out = out[:len(out)-1]
			}
			out = append(out, inst)
		} else {
			inst.StartMs = prev.EndMs
			if inst.EndMs > inst.StartMs {
				out = append(out, inst)
			}
		}
	}
	return out
}

// insertGaps fills unaccounted time around and between instances.
func insertGaps(fid string, insts []scheduler.StepInstance, sections []SectionSpan, songEndMs int64) []Segment {
	var segs []Segment
	cursor := int64(0)

	for i := range insts {
		inst := insts[i]
		if inst.StartMs > cursor {
			class := GapMidSequence
			if len(segs) == 0 {
				class = GapStart
			} else if !sameSection(cursor, inst.StartMs, sections) {
				class = GapInterSection
			}
			segs = append(segs, Segment{Kind: KindGap, Gap: &GapInfo{
				FixtureID: fid, StartMs: cursor, EndMs: inst.StartMs, Class: class,
			}})
		}
		instCopy := inst
		segs = append(segs, Segment{Kind: KindStep, Step: &instCopy})
		if inst.EndMs > cursor {
			cursor = inst.EndMs
		}
	}

	if songEndMs > cursor {
		segs = append(segs, Segment{Kind: KindGap, Gap: &GapInfo{
			FixtureID: fid, StartMs: cursor, EndMs: songEndMs, Class: GapEnd,
		}})
	}

	return segs
}

// sameSection reports whether both edges of a gap fall inside the same
// section window. Gaps spanning a section boundary (or lying entirely
// between sections) are inter-section gaps.
func sameSection(fromMs, toMs int64, sections []SectionSpan) bool {
	for _, s := range sections {
		if fromMs >= s.StartMs && toMs <= s.EndMs {
			return true
		}
	}
	return false
}
