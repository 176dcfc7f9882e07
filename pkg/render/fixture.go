// Per-fixture rendering - steps to channel segments, gaps to transitions
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package render

import (
	"math"

	"showcompiler-go/pkg/curve"
	"showcompiler-go/pkg/dmx"
	"showcompiler-go/pkg/errors"
	"showcompiler-go/pkg/log"
	"showcompiler-go/pkg/physics"
	"showcompiler-go/pkg/resolver"
	"showcompiler-go/pkg/rig"
	"showcompiler-go/pkg/scheduler"
	"showcompiler-go/pkg/template"
	"showcompiler-go/pkg/timeline"
	"showcompiler-go/pkg/transition"
)

// loopContinuityThreshold flags loop-ready curves whose cycle does not
// close (spec: advisory only).
const loopContinuityThreshold = 0.01

// dynamicRangeThreshold flags dimmer windows narrower than 10% of full
// scale.
const dynamicRangeThreshold = 0.1

// sectionContext bundles what fixture rendering needs per section.
type sectionContext struct {
	tmpl   *template.Template
	preset template.Preset
	params map[string]float64
}

type fixtureResult struct {
	segments []dmx.ChannelSegment
	skipped  []Diagnostic
	warnings []physics.Warning
}

// renderFixture walks one fixture's segments in start-time order,
// rendering steps first and then resolving every gap against its
// already-rendered neighbors.
func (c *Compiler) renderFixture(fid string, segs []timeline.Segment, ctxs map[int]*sectionContext) fixtureResult {
	var out fixtureResult

	fixture, ok := c.Rig.Fixture(fid)
	if !ok {
		// Scheduler output always references rig fixtures; this is a bug guard.
		out.skipped = append(out.skipped, Diagnostic{
			Code: errors.ErrTargetUnresolved, FixtureID: fid,
			Reason: "fixture not in rig profile",
		})
		return out
	}
	cal := c.Rig.CalibrationFor(fid)
	mapper := dmx.NewMapper(fixture, cal)

	// First pass: render step segments and collect their effects.
	effects := make([]*transition.Effect, len(segs))
	for i := range segs {
		if segs[i].Kind != timeline.KindStep {
			continue
		}
		inst := segs[i].Step
		ctx := ctxs[inst.SectionIndex]
		if ctx == nil {
			continue
		}
		eff, err := c.renderStep(inst, ctx, fixture, cal, mapper, &out)
		if err != nil {
			c.log.WarnFields("instruction skipped", log.Fields{
				"fixture": fid,
				"step":    inst.StepID,
				"error":   err.Error(),
			})
			out.skipped = append(out.skipped, diagnosticFor(err, Diagnostic{
				SectionName: inst.SectionName,
				TemplateID:  inst.TemplateID,
				StepID:      inst.StepID,
				FixtureID:   fid,
			}))
			continue
		}
		effects[i] = eff
	}

	// Second pass: resolve gaps using neighbor anchors.
	for i := range segs {
		if segs[i].Kind != timeline.KindGap {
			continue
		}
		gap := c.buildGap(segs, effects, i)
		res := transition.Resolve(gap, c.Grid)
		out.segments = append(out.segments, c.renderTransition(fixture, mapper, gap, res)...)
	}

	return out
}

// renderStep resolves one step instance into channel segments and its
// transition effect.
func (c *Compiler) renderStep(inst *scheduler.StepInstance, ctx *sectionContext,
	fixture *rig.Fixture, cal rig.Calibration, mapper *dmx.Mapper, out *fixtureResult) (*transition.Effect, error) {

	n := c.Opts.SampleCount
	if n < 2 {
		n = curve.DefaultSampleCount
	}

	// Base pose.
	pose, err := c.Geometry.Resolve(inst.Geometry.Pattern, resolver.GeometryRequest{
		FixtureID:   inst.FixtureID,
		Role:        inst.Role,
		RoleIndex:   inst.RoleIndex,
		RoleCount:   inst.RoleCount,
		Params:      mergeParams(inst.Geometry.Params, ctx.params, ctx.preset.Params),
		Calibration: cal,
	})
	if err != nil {
		return nil, err
	}

	// Movement curves. Remainder segments (hold, fade-out) still
	// generate them: the frozen position is the one the loop step ended
	// on, not the base pose.
	intensity := presetIntensity(inst.Movement.Intensity, ctx.preset.MovementIntensity)
	moves, err := c.Movement.Generate(inst.Movement.Pattern, resolver.MovementRequest{
		Params:      mergeParams(inst.Movement.Params, ctx.params, ctx.preset.Params),
		SampleCount: n,
		Cycles:      cyclesOrOne(inst.Movement.Cycles),
		Intensity:   intensity,
	})
	if err != nil {
		return nil, err
	}

	// Dimmer curve.
	dimmerIntensity := presetIntensity(inst.Dimmer.Intensity, ctx.preset.DimmerIntensity)
	dim, err := c.Dimmer.Generate(inst.Dimmer.Pattern, resolver.DimmerRequest{
		SampleCount: n,
		Cycles:      cyclesOrOne(inst.Dimmer.Cycles),
		Intensity:   dimmerIntensity,
		MinNorm:     inst.Dimmer.MinNorm,
		MaxNorm:     inst.Dimmer.MaxNorm,
	})
	if err != nil {
		return nil, err
	}

	if inst.Hold {
		// Freeze the dimmer at the value the loop ended on.
		dim = constantCurve(n, lastSample(dim, 0))
	} else if inst.FadeOut {
		// Ramp brightness to zero over the remainder, position held.
		dim = rampCurve(n, lastSample(dim, 0), 0)
	}

	// Compose pan/tilt: recenter movement offsets around the base pose.
	panBuf := getSampleBuf(n)
	tiltBuf := getSampleBuf(n)
	defer putSampleBuf(panBuf)
	defer putSampleBuf(tiltBuf)
	composeAxis(*panBuf, moves.Pan, pose.Pan)
	composeAxis(*tiltBuf, moves.Tilt, pose.Tilt)

	if inst.Hold || inst.FadeOut {
		// Freeze at the last resolved position of the loop step.
		freezeAtEnd(*panBuf)
		freezeAtEnd(*tiltBuf)
	}

	startAnchor, endAnchor := transition.EffectAnchors(*panBuf, *tiltBuf, dim)
	eff := &transition.Effect{
		FixtureID: inst.FixtureID,
		StepID:    inst.StepID,
		StartMs:   inst.StartMs,
		EndMs:     inst.EndMs,
		Start:     startAnchor,
		End:       endAnchor,
	}

	// Loop-continuity advisory on the movement shape.
	if !inst.Hold && !inst.FadeOut && c.movementLoopReady(inst.Movement.Pattern) && isWhole(cyclesOrOne(inst.Movement.Cycles)) {
		if d := math.Abs((*panBuf)[n-1] - (*panBuf)[0]); d >= loopContinuityThreshold {
			out.warnings = append(out.warnings, physics.Warning{
				Code:      errors.ErrLoopContinuity,
				FixtureID: inst.FixtureID,
				Channel:   rig.ChannelPan,
				AtMs:      inst.EndMs,
				Value:     d,
				Limit:     loopContinuityThreshold,
				Message:   "movement cycle does not close; repeats will jump",
			})
		}
	}

	movePattern := inst.Movement.Pattern
	if inst.Hold || inst.FadeOut {
		movePattern = "hold"
	}

	c.emitChannel(inst, ctx, fixture, cal, mapper, out, rig.ChannelPan, movePattern, *panBuf, cyclesOrOne(inst.Movement.Cycles))
	c.emitChannel(inst, ctx, fixture, cal, mapper, out, rig.ChannelTilt, movePattern, *tiltBuf, cyclesOrOne(inst.Movement.Cycles))

	dimPattern := inst.Dimmer.Pattern
	if inst.Hold {
		dimPattern = "hold"
	} else if inst.FadeOut {
		dimPattern = "ramp_down"
	}
	c.emitChannel(inst, ctx, fixture, cal, mapper, out, rig.ChannelDimmer, dimPattern, dim, cyclesOrOne(inst.Dimmer.Cycles))

	return eff, nil
}

// emitChannel tunes and maps one logical channel's samples into a
// channel segment. Fixtures lacking the channel are skipped silently.
func (c *Compiler) emitChannel(inst *scheduler.StepInstance, ctx *sectionContext,
	fixture *rig.Fixture, cal rig.Calibration, mapper *dmx.Mapper, out *fixtureResult,
	channel, pattern string, samples []float64, cycles float64) {

	dmxChan, ok := mapper.Channel(channel)
	if !ok {
		c.log.Debug("fixture %s has no %s channel, skipping", fixture.ID, channel)
		return
	}

	floor := ctx.tmpl.FloorFor(channel)
	ceiling := ctx.tmpl.CeilingFor(channel)
	if channel == rig.ChannelDimmer {
		if calFloor := float64(cal.DimmerFloor) / dmx.FullScale; calFloor > floor {
			floor = calFloor
		}
		if ceiling-floor < dynamicRangeThreshold {
			out.warnings = append(out.warnings, physics.Warning{
				Code:      errors.ErrDynamicRange,
				FixtureID: fixture.ID,
				Channel:   channel,
				AtMs:      inst.StartMs,
				Value:     ceiling - floor,
				Limit:     dynamicRangeThreshold,
				Message:   "dimmer window is under 10% of full scale",
			})
		}
	}

	params := curveParamsFor(pattern, samples, cycles)
	params = dmx.Tune(params, floor, ceiling)
	if params.Form == dmx.FormPoints {
		// Point curves are scaled once into the window instead of clipped.
		params.Points = dmx.ScalePoints(samples, floor, ceiling)
	}

	seg := dmx.ChannelSegment{
		FixtureID: fixture.ID,
		Channel:   channel,
		DMXChan:   dmxChan,
		StartMs:   inst.StartMs,
		EndMs:     inst.EndMs,
		ClampLo:   mapper.ToDMX(channel, floor),
		ClampHi:   mapper.ToDMX(channel, ceiling),
		Blend:     inst.Blend,
	}
	if seg.ClampLo > seg.ClampHi {
		seg.ClampLo, seg.ClampHi = seg.ClampHi, seg.ClampLo
	}

	if params.Form == dmx.FormFlat || allEqual(samples) {
		seg.IsStatic = true
		if params.Form == dmx.FormFlat {
			seg.Static = mapper.ToDMX(channel, params.Value)
		} else {
			seg.Static = mapper.ToDMX(channel, samples[0])
		}
	} else {
		desc := mapper.DescribeCurve(channel, params)
		seg.Curve = &desc
	}

	if c.Opts.Physics && (channel == rig.ChannelPan || channel == rig.ChannelTilt) && !seg.IsStatic {
		pts := mapper.ToDMXSlice(channel, samples)
		out.warnings = append(out.warnings,
			physics.Validate(fixture.ID, channel, pts, inst.StartMs, inst.EndMs, cal)...)
	}

	out.segments = append(out.segments, seg)
}

// buildGap assembles the transition view of one gap segment: the
// nearest rendered effects on either side and the neighboring steps'
// declared transitions.
func (c *Compiler) buildGap(segs []timeline.Segment, effects []*transition.Effect, i int) transition.Gap {
	gi := segs[i].Gap
	gap := transition.Gap{
		FixtureID: gi.FixtureID,
		StartMs:   gi.StartMs,
		EndMs:     gi.EndMs,
		Class:     gi.Class,
	}
	for j := i - 1; j >= 0; j-- {
		if segs[j].Kind == timeline.KindStep {
			gap.Prev = effects[j]
			gap.Outbound = segs[j].Step.Exit
			break
		}
	}
	for j := i + 1; j < len(segs); j++ {
		if segs[j].Kind == timeline.KindStep {
			gap.Next = effects[j]
			gap.Inbound = segs[j].Step.Entry
			break
		}
	}
	return gap
}

// renderTransition emits the channel segments filling one gap.
//
// Placement: an inbound transition leads into the next step, so its
// active span sits at the end of the gap; an outbound transition trails
// the previous step at the start; the fallback hold covers everything.
func (c *Compiler) renderTransition(fixture *rig.Fixture, mapper *dmx.Mapper,
	gap transition.Gap, res transition.Resolution) []dmx.ChannelSegment {

	var segs []dmx.ChannelSegment

	transStart := res.StartMs
	transEnd := res.EndMs
	if res.DurationMs < res.EndMs-res.StartMs {
		if res.Source == transition.SourceInbound {
			transStart = res.EndMs - res.DurationMs
		} else {
			transEnd = res.StartMs + res.DurationMs
		}
	}

	emitHold := func(from, to int64, anchor transition.Anchor) {
		if to <= from {
			return
		}
		for _, ch := range []string{rig.ChannelPan, rig.ChannelTilt, rig.ChannelDimmer} {
			dmxChan, ok := mapper.Channel(ch)
			if !ok {
				continue
			}
			segs = append(segs, dmx.ChannelSegment{
				FixtureID: fixture.ID,
				Channel:   ch,
				DMXChan:   dmxChan,
				StartMs:   from,
				EndMs:     to,
				IsStatic:  true,
				Static:    mapper.ToDMX(ch, anchorValue(anchor, ch)),
				ClampLo:   0,
				ClampHi:   dmx.FullScale,
				Blend:     template.BlendReplace,
				HandlerID: res.HandlerID,
			})
		}
	}

	emitRamp := func(from, to int64, a, b transition.Anchor) {
		if to <= from {
			return
		}
		for _, ch := range []string{rig.ChannelPan, rig.ChannelTilt, rig.ChannelDimmer} {
			dmxChan, ok := mapper.Channel(ch)
			if !ok {
				continue
			}
			lo := anchorValue(a, ch)
			hi := anchorValue(b, ch)
			seg := dmx.ChannelSegment{
				FixtureID: fixture.ID,
				Channel:   ch,
				DMXChan:   dmxChan,
				StartMs:   from,
				EndMs:     to,
				ClampLo:   0,
				ClampHi:   dmx.FullScale,
				Blend:     template.BlendReplace,
				HandlerID: res.HandlerID,
			}
			if lo == hi {
				seg.IsStatic = true
				seg.Static = mapper.ToDMX(ch, lo)
			} else {
				seg.Curve = &dmx.CurveDescriptor{
					Form:      dmx.FormMinMax,
					PatternID: "ramp_up",
					Cycles:    1,
					Min:       mapper.ToDMX(ch, lo),
					Max:       mapper.ToDMX(ch, hi),
				}
			}
			segs = append(segs, seg)
		}
	}

	switch res.HandlerID {
	case transition.HandlerCrossfade:
		emitHold(res.StartMs, transStart, res.From)
		emitRamp(transStart, transEnd, res.From, res.To)
		emitHold(transEnd, res.EndMs, res.To)

	case transition.HandlerFadeNeutral:
		neutral := transition.NeutralAnchor()
		mid := transStart + (transEnd-transStart)/2
		emitHold(res.StartMs, transStart, res.From)
		emitRamp(transStart, mid, res.From, neutral)
		emitRamp(mid, transEnd, neutral, res.To)
		emitHold(transEnd, res.EndMs, res.To)

	default:
		// Snap and gap-fill both hold the previous pose, lamp dark;
		// snap jumps at the boundary where the next step takes over.
		dark := res.From
		dark.Dimmer = 0
		emitHold(res.StartMs, res.EndMs, dark)
	}

	return segs
}

// Helpers

func anchorValue(a transition.Anchor, channel string) float64 {
	switch channel {
	case rig.ChannelPan:
		return a.Pan
	case rig.ChannelTilt:
		return a.Tilt
	default:
		return a.Dimmer
	}
}

// composeAxis recenters offset-centered movement samples around a base
// pose; an empty movement curve yields a constant pose.
func composeAxis(dst []float64, offsets []float64, base float64) {
	for i := range dst {
		if i < len(offsets) {
			dst[i] = curve.Clamp01(base + (offsets[i] - 0.5))
		} else {
			dst[i] = base
		}
	}
}

// curveParamsFor derives the parametric form from actual samples.
func curveParamsFor(pattern string, samples []float64, cycles float64) dmx.CurveParams {
	form := dmx.FormForPattern(pattern)
	p := dmx.CurveParams{Form: form, PatternID: pattern, Cycles: cycles}
	if len(samples) == 0 {
		p.Form = dmx.FormFlat
		return p
	}
	switch form {
	case dmx.FormCenterAmplitude:
		lo, hi := minMax(samples)
		p.Center = (lo + hi) / 2
		p.Amplitude = (hi - lo) / 2
	case dmx.FormMinMax:
		p.Min = samples[0]
		p.Max = samples[len(samples)-1]
	case dmx.FormFlat:
		p.Value = samples[0]
	default:
		p.Points = samples
	}
	return p
}

func minMax(s []float64) (float64, float64) {
	lo, hi := s[0], s[0]
	for _, v := range s[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func allEqual(s []float64) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}

// freezeAtEnd overwrites every sample with the final one.
func freezeAtEnd(s []float64) {
	if len(s) == 0 {
		return
	}
	v := s[len(s)-1]
	for i := range s {
		s[i] = v
	}
}

func lastSample(s []float64, def float64) float64 {
	if len(s) == 0 {
		return def
	}
	return s[len(s)-1]
}

func constantCurve(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func rampCurve(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		frac := float64(i) / float64(n-1)
		out[i] = from + (to-from)*frac
	}
	return out
}

func mergeParams(base, sectionParams, presetParams map[string]float64) map[string]float64 {
	if len(sectionParams) == 0 && len(presetParams) == 0 {
		return base
	}
	merged := make(map[string]float64, len(base)+len(sectionParams)+len(presetParams))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range presetParams {
		merged[k] = v
	}
	for k, v := range sectionParams {
		merged[k] = v
	}
	return merged
}

func presetIntensity(stepToken, presetToken string) float64 {
	if presetToken != "" {
		return template.IntensityLevel(presetToken)
	}
	return template.IntensityLevel(stepToken)
}

func cyclesOrOne(c float64) float64 {
	if c <= 0 {
		return 1
	}
	return c
}

func isWhole(c float64) bool {
	return math.Abs(c-math.Round(c)) < 1e-9
}

// movementLoopReady reports whether a movement pattern is built on
// loop-ready curves: every dedicated handler except shake is, and
// fallback patterns inherit the catalog tag.
func (c *Compiler) movementLoopReady(pattern string) bool {
	switch pattern {
	case "sweep", "circle", "figure_eight", "nod", "wave", "drift":
		return true
	case "shake":
		return false
	}
	if def, ok := c.Catalog.Lookup(pattern); ok {
		return def.LoopReady
	}
	return false
}
