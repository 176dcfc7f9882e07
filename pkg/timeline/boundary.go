// Boundary detection - read-only scan of adjacent segment pairs
//
// Boundary records feed transition decisions without mutating the
// timeline. The scan never inserts or reorders segments.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package timeline

import (
	"sort"

	"showcompiler-go/pkg/plan"
)

// BoundaryKind tags what meets at the boundary.
type BoundaryKind string

const (
	// BoundaryStep separates two adjacent step instances on one fixture.
	BoundaryStep BoundaryKind = "step"
	// BoundarySection separates two adjacent plan sections.
	BoundarySection BoundaryKind = "section"
)

// Boundary is one typed adjacency record.
type Boundary struct {
	Kind      BoundaryKind
	FixtureID string // empty for section boundaries
	SourceID  string
	TargetID  string
	AtMs      int64
	AtBar     float64
}

// ScanBoundaries records a boundary for every adjacent pair of sections
// and every adjacent pair of step instances per fixture. Gap segments
// do not break step adjacency; the boundary sits at the later step's
// start.
func ScanBoundaries(tl *Timeline, sections []SectionSpan, grid *plan.BeatGrid) []Boundary {
	var out []Boundary

	for i := 1; i < len(sections); i++ {
		at := sections[i].StartMs
		out = append(out, Boundary{
			Kind:     BoundarySection,
			SourceID: sections[i-1].Name,
			TargetID: sections[i].Name,
			AtMs:     at,
			AtBar:    grid.MsToBar(at),
		})
	}

	for _, fid := range tl.Fixtures() {
		var prev *Segment
		for i := range tl.PerFixture[fid] {
			seg := &tl.PerFixture[fid][i]
			if seg.Kind != KindStep {
				continue
			}
			if prev != nil {
				out = append(out, Boundary{
					Kind:      BoundaryStep,
					FixtureID: fid,
					SourceID:  prev.Step.StepID,
					TargetID:  seg.Step.StepID,
					AtMs:      seg.Step.StartMs,
					AtBar:     grid.MsToBar(seg.Step.StartMs),
				})
			}
			prev = seg
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].AtMs < out[j].AtMs })
	return out
}
