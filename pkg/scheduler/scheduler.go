// Template scheduler - bar-relative steps to absolute-time instances
//
// Given a validated template and a concrete section window, the
// scheduler quantizes step starts to musical boundaries, unrolls the
// repeat contract across the window, distributes phase offsets across
// ordered fixture groups and emits per-fixture step instances with
// absolute millisecond spans.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package scheduler

import (
	"math"
	"sort"
	"strings"

	"showcompiler-go/pkg/errors"
	"showcompiler-go/pkg/log"
	"showcompiler-go/pkg/plan"
	"showcompiler-go/pkg/rig"
	"showcompiler-go/pkg/template"
)

// barEpsilon absorbs float drift when comparing bar positions.
const barEpsilon = 1e-9

// StepInstance is one step placed on one fixture at absolute time.
type StepInstance struct {
	SectionName string
	TemplateID  string
	StepID      string
	FixtureID   string

	// SectionIndex identifies the plan section this instance came from.
	// Section names may repeat (two choruses), so context lookups key on
	// the index, not the name.
	SectionIndex int

	StartMs int64
	EndMs   int64

	Geometry template.GeometrySpec
	Movement template.MovementSpec
	Dimmer   template.DimmerSpec
	Entry    *template.TransitionSpec
	Exit     *template.TransitionSpec
	Priority int
	Blend    template.BlendMode

	Role      string
	RoleIndex int
	RoleCount int

	// CycleIndex counts repeat cycles; Reversed marks backward
	// traversal in ping-pong mode.
	CycleIndex int
	Reversed   bool

	// Hold marks a remainder segment freezing the last pose; FadeOut
	// marks a remainder segment ramping dimmer to zero while holding
	// position.
	Hold    bool
	FadeOut bool
}

// DurationMs returns the instance length.
func (si *StepInstance) DurationMs() int64 { return si.EndMs - si.StartMs }

// Skip records a step the scheduler could not place; the run proceeds.
type Skip struct {
	StepID string
	Err    error
}

// Scheduler converts template steps into absolute-time instances.
type Scheduler struct {
	Grid *plan.BeatGrid
	Rig  *rig.Profile
	Log  *log.Logger
}

// New creates a scheduler over the given grid and rig.
func New(grid *plan.BeatGrid, profile *rig.Profile) *Scheduler {
	return &Scheduler{Grid: grid, Rig: profile, Log: log.New("scheduler")}
}

// placement is one step occurrence in bar space before fixture fan-out.
type placement struct {
	step       *template.Step
	startBar   float64
	cycleIndex int
	reversed   bool
	hold       bool
	fadeOut    bool
	// holdBars overrides the step duration for remainder segments.
	holdBars float64
}

// Schedule produces all step instances for one section. Unresolvable
// steps are skipped and reported; structural errors abort.
func (s *Scheduler) Schedule(tmpl *template.Template, section plan.Section) ([]StepInstance, []Skip, error) {
	if section.EndBar <= section.StartBar {
		return nil, nil, errors.TimingMalformedError(
			"section '"+section.Name+"'", section.StartBar, section.EndBar)
	}

	placements, err := s.placeSteps(tmpl, section)
	if err != nil {
		return nil, nil, err
	}

	var out []StepInstance
	var skips []Skip
	for _, pl := range placements {
		instances, err := s.fanOut(tmpl, section, pl)
		if err != nil {
			if showErr, ok := err.(*errors.ShowError); ok && errors.IsResolution(showErr) {
				s.Log.WarnFields("skipping unresolvable step", log.Fields{
					"template": tmpl.ID,
					"step":     pl.step.ID,
					"reason":   showErr.Message,
				})
				skips = append(skips, Skip{StepID: pl.step.ID, Err: err})
				continue
			}
			return nil, nil, err
		}
		out = append(out, instances...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FixtureID != out[j].FixtureID {
			return out[i].FixtureID < out[j].FixtureID
		}
		return out[i].StartMs < out[j].StartMs
	})
	return out, skips, nil
}

// placeSteps lays out step occurrences in bar space, unrolling the
// repeat contract across the section window.
func (s *Scheduler) placeSteps(tmpl *template.Template, section plan.Section) ([]placement, error) {
	window := section.Bars()

	if !tmpl.Repeat.Repeatable {
		var out []placement
		for i := range tmpl.Steps {
			step := &tmpl.Steps[i]
			start := s.quantize(section.StartBar+step.Timing.StartBar, step.Timing.Quantize, section.StartBar)
			if start >= section.EndBar-barEpsilon {
				s.Log.Debug("step '%s' starts past section end, dropped", step.ID)
				continue
			}
			out = append(out, placement{step: step, startBar: start})
		}
		return out, nil
	}

	loop := make(map[string]bool, len(tmpl.Repeat.LoopSteps))
	for _, id := range tmpl.Repeat.LoopSteps {
		loop[id] = true
	}

	var out []placement

	// Non-loop steps play once at their own offset.
	for i := range tmpl.Steps {
		step := &tmpl.Steps[i]
		if loop[step.ID] {
			continue
		}
		start := s.quantize(section.StartBar+step.Timing.StartBar, step.Timing.Quantize, section.StartBar)
		if start >= section.EndBar-barEpsilon {
			continue
		}
		out = append(out, placement{step: step, startBar: start})
	}

	cycleBars := tmpl.Repeat.CycleBars
	fullCycles := int(math.Floor(window/cycleBars + barEpsilon))
	remainder := window - float64(fullCycles)*cycleBars
	if remainder < barEpsilon {
		remainder = 0
	}

	loopSteps := make([]*template.Step, 0, len(tmpl.Repeat.LoopSteps))
	for _, id := range tmpl.Repeat.LoopSteps {
		st, ok := tmpl.StepByID(id)
		if !ok {
			return nil, errors.RepeatContractError(tmpl.ID, "loop step '"+id+"' is not a declared step")
		}
		loopSteps = append(loopSteps, st)
	}

	for c := 0; c < fullCycles; c++ {
		base := section.StartBar + float64(c)*cycleBars
		reversed := tmpl.Repeat.Mode == template.RepeatPingPong && c%2 == 1
		for _, step := range loopSteps {
			startBar := base + step.Timing.StartBar
			if reversed {
				// Mirror the step window inside the cycle.
				startBar = base + cycleBars - (step.Timing.StartBar + step.Timing.DurationBars)
			}
			out = append(out, placement{
				step:       step,
				startBar:   s.quantize(startBar, step.Timing.Quantize, section.StartBar),
				cycleIndex: c,
				reversed:   reversed,
			})
		}
	}

	if remainder > 0 && len(loopSteps) > 0 {
		remStart := section.StartBar + float64(fullCycles)*cycleBars
		switch tmpl.Repeat.Remainder {
		case template.RemainderHoldLastPose, template.RemainderFadeOut:
			// Freeze (or fade) from the last traversed loop step. A
			// reversed ping-pong cycle ends on the first forward step.
			last := loopSteps[len(loopSteps)-1]
			if tmpl.Repeat.Mode == template.RepeatPingPong && fullCycles > 0 && (fullCycles-1)%2 == 1 {
				last = loopSteps[0]
			}
			out = append(out, placement{
				step:       last,
				startBar:   remStart,
				cycleIndex: fullCycles,
				hold:       tmpl.Repeat.Remainder == template.RemainderHoldLastPose,
				fadeOut:    tmpl.Repeat.Remainder == template.RemainderFadeOut,
				holdBars:   remainder,
			})
		case template.RemainderTruncate:
			reversed := tmpl.Repeat.Mode == template.RepeatPingPong && fullCycles%2 == 1
			for _, step := range loopSteps {
				startBar := remStart + step.Timing.StartBar
				if reversed {
					startBar = remStart + cycleBars - (step.Timing.StartBar + step.Timing.DurationBars)
				}
				startBar = s.quantize(startBar, step.Timing.Quantize, section.StartBar)
				if startBar >= section.EndBar-barEpsilon {
					continue
				}
				durBars := step.Timing.DurationBars
				if startBar+durBars > section.EndBar {
					durBars = section.EndBar - startBar
				}
				out = append(out, placement{
					step:       step,
					startBar:   startBar,
					cycleIndex: fullCycles,
					reversed:   reversed,
					holdBars:   durBars, // truncated duration
				})
			}
		}
	}

	return out, nil
}

// quantize snaps a bar position down to the requested musical boundary,
// clamped so an off-boundary section start cannot push a step before its
// own window. Duration is never quantized; only the start moves.
func (s *Scheduler) quantize(bar float64, q template.Quantize, notBefore float64) float64 {
	var unit float64
	switch q {
	case template.QuantizeBar:
		unit = 1
	case template.QuantizeHalfBar:
		unit = 0.5
	case template.QuantizeBeat:
		unit = 1 / float64(s.Grid.BeatsPerBar)
	default:
		return bar
	}
	out := math.Floor(bar/unit+barEpsilon) * unit
	if out < notBefore {
		out = notBefore
	}
	return out
}

// fanOut expands one placement into per-fixture instances, applying the
// phase-offset spec when present.
func (s *Scheduler) fanOut(tmpl *template.Template, section plan.Section, pl placement) ([]StepInstance, error) {
	step := pl.step

	fixtures, role, err := s.ResolveTarget(tmpl, step.Target)
	if err != nil {
		return nil, err
	}

	durBars := step.Timing.DurationBars
	if pl.holdBars > 0 {
		durBars = pl.holdBars
	}

	startMs := s.Grid.BarToMs(pl.startBar)
	durMs := s.Grid.DurationMs(pl.startBar, durBars)

	offsets := make([]int64, len(fixtures))
	if step.Phase != nil && step.Phase.Mode == template.PhaseGroupOrder && !pl.hold && !pl.fadeOut {
		ordered, offs, err := s.phaseOffsets(step.Phase, pl.startBar)
		if err != nil {
			return nil, err
		}
		fixtures = ordered
		offsets = offs
	}

	out := make([]StepInstance, 0, len(fixtures))
	for i, fid := range fixtures {
		inst := StepInstance{
			SectionName: section.Name,
			TemplateID:  tmpl.ID,
			StepID:      step.ID,
			FixtureID:   fid,
			StartMs:     startMs + offsets[i],
			EndMs:       startMs + offsets[i] + durMs,
			Geometry:    step.Geometry,
			Movement:    step.Movement,
			Dimmer:      step.Dimmer,
			Entry:       step.Entry,
			Exit:        step.Exit,
			Priority:    step.Priority,
			Blend:       step.Blend,
			Role:        role,
			RoleIndex:   i,
			RoleCount:   len(fixtures),
			CycleIndex:  pl.cycleIndex,
			Reversed:    pl.reversed,
			Hold:        pl.hold,
			FadeOut:     pl.fadeOut,
		}
		out = append(out, inst)
	}
	return out, nil
}

// phaseOffsets resolves the ordered fixture sequence and the per-fixture
// start-time deltas in milliseconds.
//
// Wrap rule (see PhaseOffsetSpec): fraction is i/(n-1) unwrapped so the
// last fixture receives the full spread, i/n wrapped so all offsets stay
// inside [0, spread).
func (s *Scheduler) phaseOffsets(spec *template.PhaseOffsetSpec, startBar float64) ([]string, []int64, error) {
	ordered, err := s.Rig.OrderedFixtures(spec.Order, spec.Group)
	if err != nil {
		return nil, nil, err
	}
	n := len(ordered)
	if n == 0 {
		return nil, nil, errors.TargetUnresolvedError("order:" + spec.Order)
	}

	spreadMs := float64(s.Grid.DurationMs(startBar, spec.SpreadBars))
	offsets := make([]int64, n)
	for i := 0; i < n; i++ {
		var frac float64
		switch {
		case n == 1:
			frac = 0
		case spec.Wrap:
			frac = float64(i) / float64(n)
		default:
			frac = float64(i) / float64(n-1)
		}
		offsets[i] = int64(math.Round(frac * spreadMs))
	}
	return ordered, offsets, nil
}

// ResolveTarget expands a step target token into concrete fixture ids.
// Tokens: "group:NAME", "role:NAME" (via the template role map),
// "fixture:ID", or a bare group name.
func (s *Scheduler) ResolveTarget(tmpl *template.Template, target string) ([]string, string, error) {
	role := ""
	groupName := target

	switch {
	case strings.HasPrefix(target, "fixture:"):
		id := strings.TrimPrefix(target, "fixture:")
		if _, ok := s.Rig.Fixture(id); !ok {
			return nil, "", errors.TargetUnresolvedError(target)
		}
		return []string{id}, "", nil
	case strings.HasPrefix(target, "group:"):
		groupName = strings.TrimPrefix(target, "group:")
	case strings.HasPrefix(target, "role:"):
		role = strings.TrimPrefix(target, "role:")
		mapped, ok := tmpl.Roles[role]
		if !ok {
			return nil, "", errors.TargetUnresolvedError(target)
		}
		groupName = mapped
	}

	members, ok := s.Rig.Group(groupName)
	if !ok || len(members) == 0 {
		return nil, "", errors.TargetUnresolvedError(target)
	}
	return append([]string(nil), members...), role, nil
}
