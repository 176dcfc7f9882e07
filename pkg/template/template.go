// Choreography templates - declarative, reusable units of movement
//
// A template is an ordered list of steps, each binding a target (group,
// role or fixture) to geometry, movement and dimmer patterns over a
// bar-relative timing window, plus a repeat contract describing how the
// template loops to fill longer sections. Templates are validated once
// at load time; the rest of the compiler trusts the structure.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package template

import (
	"fmt"
	"strings"

	"showcompiler-go/pkg/errors"
)

// Quantize names the musical boundary a step start snaps down to.
type Quantize string

const (
	QuantizeNone    Quantize = "none"
	QuantizeBeat    Quantize = "beat"
	QuantizeHalfBar Quantize = "half_bar"
	QuantizeBar     Quantize = "bar"
)

// RepeatMode selects how loop steps are traversed on each cycle.
type RepeatMode string

const (
	// RepeatPingPong alternates forward/backward traversal per cycle.
	RepeatPingPong RepeatMode = "ping_pong"
	// RepeatJoiner always replays forward from the first loop step.
	RepeatJoiner RepeatMode = "joiner"
)

// RemainderPolicy governs the partial final repeat cycle.
type RemainderPolicy string

const (
	RemainderHoldLastPose RemainderPolicy = "hold_last_pose"
	RemainderFadeOut      RemainderPolicy = "fade_out"
	RemainderTruncate     RemainderPolicy = "truncate"
)

// PhaseMode selects phase-offset distribution.
type PhaseMode string

const (
	PhaseNone       PhaseMode = "none"
	PhaseGroupOrder PhaseMode = "group_order"
)

// TransitionMode names how a gap adjacent to a step is filled.
type TransitionMode string

const (
	TransitionSnap        TransitionMode = "snap"
	TransitionCrossfade   TransitionMode = "crossfade"
	TransitionFadeNeutral TransitionMode = "fade_through_neutral"
)

// BlendMode describes how overlapping channel output combines; the
// compiler validates and propagates it, the exporter applies it.
type BlendMode string

const (
	BlendReplace BlendMode = "replace"
	BlendMax     BlendMode = "max"
	BlendAdd     BlendMode = "add"
)

// Intensity token levels. Unknown tokens fall back to DefaultIntensity
// to keep template authoring forgiving.
const DefaultIntensity = 0.5

var intensityLevels = map[string]float64{
	"low":    0.25,
	"medium": 0.5,
	"high":   0.75,
	"full":   1.0,
}

// IntensityLevel maps an intensity token to a normalized level.
func IntensityLevel(token string) float64 {
	if v, ok := intensityLevels[strings.ToLower(strings.TrimSpace(token))]; ok {
		return v
	}
	return DefaultIntensity
}

// BaseTiming places a step relative to its containing section.
type BaseTiming struct {
	StartBar     float64  `yaml:"start_bar"`
	DurationBars float64  `yaml:"duration_bars"`
	Quantize     Quantize `yaml:"quantize,omitempty"`
}

// PhaseOffsetSpec distributes per-fixture start-time deltas across an
// ordered fixture group, producing chase effects.
//
// Wrap rule: fixture i of n receives the normalized fraction i/(n-1)
// when Wrap is false (the last fixture gets the full spread) and i/n
// when Wrap is true (even spacing with the last-to-first gap equal to
// every other gap, all offsets in [0, spread)). The fraction is scaled
// by SpreadBars and converted to milliseconds afterwards.
type PhaseOffsetSpec struct {
	Mode       PhaseMode `yaml:"mode"`
	Group      string    `yaml:"group,omitempty"`
	Order      string    `yaml:"order,omitempty"`
	SpreadBars float64   `yaml:"spread_bars,omitempty"`
	Shape      string    `yaml:"shape,omitempty"` // only "linear" is defined
	Wrap       bool      `yaml:"wrap,omitempty"`
}

// GeometrySpec selects a static pose pattern.
type GeometrySpec struct {
	Pattern string             `yaml:"pattern"`
	Params  map[string]float64 `yaml:"params,omitempty"`
}

// MovementSpec selects a time-varying pan/tilt pattern.
type MovementSpec struct {
	Pattern   string             `yaml:"pattern"`
	Intensity string             `yaml:"intensity,omitempty"`
	Cycles    float64            `yaml:"cycles,omitempty"`
	Params    map[string]float64 `yaml:"params,omitempty"`
}

// DimmerSpec selects a brightness pattern.
type DimmerSpec struct {
	Pattern   string  `yaml:"pattern"`
	Intensity string  `yaml:"intensity,omitempty"`
	MinNorm   float64 `yaml:"min_norm,omitempty"`
	MaxNorm   float64 `yaml:"max_norm,omitempty"`
	Cycles    float64 `yaml:"cycles,omitempty"`
}

// TransitionSpec is a step's declared entry or exit transition.
type TransitionSpec struct {
	Mode         TransitionMode `yaml:"mode"`
	DurationBars float64        `yaml:"duration_bars,omitempty"`
}

// Step is one scheduled unit within a template.
type Step struct {
	ID       string           `yaml:"id"`
	Target   string           `yaml:"target"` // "group:NAME", "role:NAME" or "fixture:ID"
	Timing   BaseTiming       `yaml:"timing"`
	Phase    *PhaseOffsetSpec `yaml:"phase,omitempty"`
	Geometry GeometrySpec     `yaml:"geometry"`
	Movement MovementSpec     `yaml:"movement"`
	Dimmer   DimmerSpec       `yaml:"dimmer"`
	Entry    *TransitionSpec  `yaml:"entry,omitempty"`
	Exit     *TransitionSpec  `yaml:"exit,omitempty"`
	Priority int              `yaml:"priority,omitempty"`
	Blend    BlendMode        `yaml:"blend,omitempty"`
}

// RepeatContract describes how a template loops to fill its section.
type RepeatContract struct {
	Repeatable bool            `yaml:"repeatable"`
	Mode       RepeatMode      `yaml:"mode,omitempty"`
	CycleBars  float64         `yaml:"cycle_bars,omitempty"`
	LoopSteps  []string        `yaml:"loop_steps,omitempty"`
	Remainder  RemainderPolicy `yaml:"remainder,omitempty"`
}

// Preset is a named parameter bundle selectable from the plan.
type Preset struct {
	MovementIntensity string             `yaml:"movement_intensity,omitempty"`
	DimmerIntensity   string             `yaml:"dimmer_intensity,omitempty"`
	Params            map[string]float64 `yaml:"params,omitempty"`
}

// Metadata carries authoring hints; the compiler only stores them.
type Metadata struct {
	EnergyMin float64  `yaml:"energy_min,omitempty"`
	EnergyMax float64  `yaml:"energy_max,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
}

// Template is a reusable, declarative choreography unit.
type Template struct {
	ID      string `yaml:"id"`
	Version int    `yaml:"version"`

	// Roles maps role names to rig group names.
	Roles map[string]string `yaml:"roles,omitempty"`

	Steps  []Step         `yaml:"steps"`
	Repeat RepeatContract `yaml:"repeat"`

	// Default normalized channel floors/ceilings applied by the tuner.
	Floors   map[string]float64 `yaml:"floors,omitempty"`
	Ceilings map[string]float64 `yaml:"ceilings,omitempty"`

	Presets map[string]Preset `yaml:"presets,omitempty"`
	Meta    Metadata          `yaml:"meta,omitempty"`
}

// Validate checks template invariants once at load time.
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.TemplateInvalidError("", "template id is empty")
	}
	if t.Version <= 0 {
		return errors.TemplateInvalidError(t.ID, "template version must be positive")
	}
	if len(t.Steps) == 0 {
		return errors.TemplateInvalidError(t.ID, "template declares no steps")
	}

	stepIDs := make(map[string]bool, len(t.Steps))
	for i := range t.Steps {
		s := &t.Steps[i]
		if s.ID == "" {
			return errors.TemplateInvalidError(t.ID, fmt.Sprintf("step at index %d has empty id", i))
		}
		if stepIDs[s.ID] {
			return errors.TemplateInvalidError(t.ID, fmt.Sprintf("duplicate step id '%s'", s.ID))
		}
		stepIDs[s.ID] = true

		if s.Timing.DurationBars <= 0 {
			return errors.TimingMalformedError(
				fmt.Sprintf("template '%s' step '%s'", t.ID, s.ID),
				s.Timing.StartBar, s.Timing.StartBar+s.Timing.DurationBars).
				SetTemplate(t.ID).SetStep(s.ID)
		}
		if s.Target == "" {
			return errors.TemplateInvalidError(t.ID, fmt.Sprintf("step '%s' has empty target", s.ID))
		}

		if s.Phase != nil && s.Phase.Mode == PhaseGroupOrder {
			if s.Phase.Group == "" {
				return errors.TemplateInvalidError(t.ID,
					fmt.Sprintf("step '%s': phase mode group_order requires a group", s.ID))
			}
			if s.Phase.Order == "" {
				return errors.TemplateInvalidError(t.ID,
					fmt.Sprintf("step '%s': phase mode group_order requires an order", s.ID))
			}
		}

		if s.Blend == "" {
			s.Blend = BlendReplace
		}
		switch s.Blend {
		case BlendReplace, BlendMax, BlendAdd:
		default:
			return errors.TemplateInvalidError(t.ID,
				fmt.Sprintf("step '%s': unknown blend mode '%s'", s.ID, s.Blend))
		}

		// Role targets must name a declared role.
		if role, ok := strings.CutPrefix(s.Target, "role:"); ok {
			if _, declared := t.Roles[role]; !declared {
				return errors.TemplateInvalidError(t.ID,
					fmt.Sprintf("step '%s' targets undeclared role '%s'", s.ID, role))
			}
		}
	}

	if t.Repeat.Repeatable {
		if len(t.Repeat.LoopSteps) == 0 {
			return errors.RepeatContractError(t.ID, "repeatable contract declares no loop steps")
		}
		if t.Repeat.CycleBars <= 0 {
			return errors.RepeatContractError(t.ID, "repeatable contract requires positive cycle_bars")
		}
		for _, id := range t.Repeat.LoopSteps {
			if !stepIDs[id] {
				return errors.RepeatContractError(t.ID, fmt.Sprintf("loop step '%s' is not a declared step", id))
			}
		}
		switch t.Repeat.Mode {
		case RepeatPingPong, RepeatJoiner:
		case "":
			t.Repeat.Mode = RepeatJoiner
		default:
			return errors.RepeatContractError(t.ID, fmt.Sprintf("unknown repeat mode '%s'", t.Repeat.Mode))
		}
		switch t.Repeat.Remainder {
		case RemainderHoldLastPose, RemainderFadeOut, RemainderTruncate:
		case "":
			t.Repeat.Remainder = RemainderHoldLastPose
		default:
			return errors.RepeatContractError(t.ID, fmt.Sprintf("unknown remainder policy '%s'", t.Repeat.Remainder))
		}
	}

	return nil
}

// StepByID returns the step with the given id.
func (t *Template) StepByID(id string) (*Step, bool) {
	for i := range t.Steps {
		if t.Steps[i].ID == id {
			return &t.Steps[i], true
		}
	}
	return nil, false
}

// PresetByID resolves a preset id; missing ids are structural errors.
func (t *Template) PresetByID(id string) (Preset, error) {
	if id == "" {
		return Preset{}, nil
	}
	p, ok := t.Presets[id]
	if !ok {
		return Preset{}, errors.PresetNotFoundError(t.ID, id)
	}
	return p, nil
}

// FloorFor returns the declared normalized floor for a channel (0 if none).
func (t *Template) FloorFor(channel string) float64 {
	return t.Floors[channel]
}

// CeilingFor returns the declared normalized ceiling for a channel (1 if none).
func (t *Template) CeilingFor(channel string) float64 {
	if c, ok := t.Ceilings[channel]; ok {
		return c
	}
	return 1
}
