// Transition resolver - fills timeline gaps between effects
//
// Resolution priority is strict: the inbound config (declared by the
// step after the gap) wins over the outbound config (declared by the
// step before it), and an implicit gap-fill hold covers gaps with
// neither. Anchors are taken from the neighboring effect's actual
// first/last curve samples; fixtures are never assumed to return to a
// fixed home pose between effects.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package transition

import (
	"showcompiler-go/pkg/plan"
	"showcompiler-go/pkg/template"
	"showcompiler-go/pkg/timeline"
)

// Handler ids the exporter understands.
const (
	HandlerSnap        = "transition.snap"
	HandlerCrossfade   = "transition.crossfade"
	HandlerFadeNeutral = "transition.fade_neutral"
	HandlerGapFill     = "transition.gap_fill"
)

// ConfigSource records which config won the priority contest.
type ConfigSource string

const (
	SourceInbound  ConfigSource = "inbound"
	SourceOutbound ConfigSource = "outbound"
	SourceFallback ConfigSource = "fallback"
)

// Anchor is a resolved position/value snapshot at an effect edge.
type Anchor struct {
	Pan    float64
	Tilt   float64
	Dimmer float64
	Valid  bool
}

// NeutralAnchor is the pose used when no neighbor exists: calibrated
// center, lamp dark.
func NeutralAnchor() Anchor {
	return Anchor{Pan: 0.5, Tilt: 0.5, Dimmer: 0, Valid: true}
}

// Effect is the transition-resolution view of a rendered step: its span
// plus the anchors derived from its curve shape.
type Effect struct {
	FixtureID string
	StepID    string
	StartMs   int64
	EndMs     int64
	Start     Anchor
	End       Anchor
}

// EffectAnchors derives both anchors from resolved curves. Empty curves
// contribute the neutral axis value.
func EffectAnchors(pan, tilt, dimmer []float64) (Anchor, Anchor) {
	first := func(s []float64, def float64) float64 {
		if len(s) == 0 {
			return def
		}
		return s[0]
	}
	last := func(s []float64, def float64) float64 {
		if len(s) == 0 {
			return def
		}
		return s[len(s)-1]
	}
	start := Anchor{Pan: first(pan, 0.5), Tilt: first(tilt, 0.5), Dimmer: first(dimmer, 0), Valid: true}
	end := Anchor{Pan: last(pan, 0.5), Tilt: last(tilt, 0.5), Dimmer: last(dimmer, 0), Valid: true}
	return start, end
}

// Gap is a timeline gap together with everything resolution needs.
type Gap struct {
	FixtureID string
	StartMs   int64
	EndMs     int64
	Class     timeline.GapClass

	// Inbound is the entry transition of the step after the gap;
	// Outbound is the exit transition of the step before it.
	Inbound  *template.TransitionSpec
	Outbound *template.TransitionSpec

	Prev *Effect
	Next *Effect
}

// Resolution is the concrete fill decision for one gap.
type Resolution struct {
	HandlerID  string
	Mode       template.TransitionMode
	Source     ConfigSource
	StartMs    int64
	EndMs      int64
	DurationMs int64 // active transition span, <= EndMs-StartMs
	From       Anchor
	To         Anchor
}

// Resolve picks the winning config and computes anchors for one gap.
// grid converts the config's bar duration into milliseconds at the
// gap's position.
func Resolve(gap Gap, grid *plan.BeatGrid) Resolution {
	res := Resolution{
		StartMs: gap.StartMs,
		EndMs:   gap.EndMs,
		From:    anchorOrNeutral(gap.Prev, false),
		To:      anchorOrNeutral(gap.Next, true),
	}

	var cfg *template.TransitionSpec
	switch {
	case gap.Inbound != nil:
		cfg = gap.Inbound
		res.Source = SourceInbound
	case gap.Outbound != nil:
		cfg = gap.Outbound
		res.Source = SourceOutbound
	default:
		res.Source = SourceFallback
		res.HandlerID = HandlerGapFill
		res.DurationMs = gap.EndMs - gap.StartMs
		return res
	}

	res.Mode = cfg.Mode
	switch cfg.Mode {
	case template.TransitionSnap:
		res.HandlerID = HandlerSnap
	case template.TransitionCrossfade:
		res.HandlerID = HandlerCrossfade
	case template.TransitionFadeNeutral:
		res.HandlerID = HandlerFadeNeutral
	default:
		res.HandlerID = HandlerGapFill
		res.Source = SourceFallback
	}

	span := gap.EndMs - gap.StartMs
	dur := grid.DurationMs(grid.MsToBar(gap.StartMs), cfg.DurationBars)
	if dur <= 0 || dur > span {
		dur = span
	}
	res.DurationMs = dur
	return res
}

// anchorOrNeutral pulls the facing edge anchor from a neighbor effect.
func anchorOrNeutral(e *Effect, useStart bool) Anchor {
	if e == nil {
		return NeutralAnchor()
	}
	if useStart {
		if e.Start.Valid {
			return e.Start
		}
	} else if e.End.Valid {
		return e.End
	}
	return NeutralAnchor()
}
