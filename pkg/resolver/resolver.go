// Semantic resolvers - pattern id registries for geometry, movement and
// dimmer handlers
//
// Each registry maps a pattern id to a handler. Lookup is exact match
// first; misses fall through to a single designated default handler that
// consults the broader curve catalog. Only when the default handler also
// cannot serve the id does resolution fail, with an error naming the
// registry kind and the known ids.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resolver

import (
	"sort"

	"showcompiler-go/pkg/curve"
	"showcompiler-go/pkg/errors"
	"showcompiler-go/pkg/rig"
)

// Registry kinds, used in HandlerNotFound errors.
const (
	KindGeometry = "geometry"
	KindMovement = "movement"
	KindDimmer   = "dimmer"
)

// Position is a static normalized pan/tilt pose; 0.5/0.5 is the
// calibrated center.
type Position struct {
	Pan  float64
	Tilt float64
}

// GeometryRequest carries everything a geometry handler may consult.
// Geometry handlers are pure functions of role + params; they never
// produce time variation.
type GeometryRequest struct {
	FixtureID   string
	Role        string
	RoleIndex   int // position of this fixture within the resolved target
	RoleCount   int // total fixtures in the resolved target
	Params      map[string]float64
	Calibration rig.Calibration
}

// GeometryHandler resolves a static pose.
type GeometryHandler interface {
	Resolve(req GeometryRequest) (Position, error)
}

// MovementRequest asks for offset-centered pan/tilt curves.
type MovementRequest struct {
	Params      map[string]float64
	SampleCount int
	Cycles      float64
	Intensity   float64 // normalized amplitude scale
}

// MovementCurves are sampled normalized curves in the offset-centered
// convention: 0.5 is neutral, values swing +/- amplitude around it. The
// channel mapper recenters them around the step's base pose.
type MovementCurves struct {
	Pan  []float64
	Tilt []float64
}

// MovementHandler generates movement curves.
type MovementHandler interface {
	Generate(req MovementRequest) (MovementCurves, error)
}

// DimmerRequest asks for an absolute normalized brightness curve.
type DimmerRequest struct {
	SampleCount int
	Cycles      float64
	Intensity   float64
	MinNorm     float64
	MaxNorm     float64
}

// DimmerHandler generates a brightness curve bounded by [MinNorm, MaxNorm].
type DimmerHandler interface {
	Generate(req DimmerRequest) ([]float64, error)
}

// GeometryRegistry dispatches geometry pattern ids.
type GeometryRegistry struct {
	handlers map[string]GeometryHandler
	fallback *defaultGeometryHandler
}

// NewGeometryRegistry builds the standard geometry registry.
func NewGeometryRegistry() *GeometryRegistry {
	r := &GeometryRegistry{
		handlers: make(map[string]GeometryHandler),
		fallback: &defaultGeometryHandler{},
	}
	r.handlers["center"] = geometryFunc(resolveCenter)
	r.handlers["pose"] = geometryFunc(resolvePose)
	r.handlers["fan"] = geometryFunc(resolveFan)
	r.handlers["line"] = geometryFunc(resolveLine)
	r.handlers["diagonal"] = geometryFunc(resolveDiagonal)
	r.handlers["vee"] = geometryFunc(resolveVee)
	r.handlers["mirror"] = geometryFunc(resolveMirror)
	r.handlers["audience_sweep_pose"] = geometryFunc(resolveAudiencePose)
	return r
}

// Known returns the sorted pattern ids with dedicated handlers.
func (r *GeometryRegistry) Known() []string {
	return sortedKeys(r.handlers)
}

// Resolve dispatches the pattern id, falling back to the default handler.
func (r *GeometryRegistry) Resolve(pattern string, req GeometryRequest) (Position, error) {
	if h, ok := r.handlers[pattern]; ok {
		return h.Resolve(req)
	}
	pos, err := r.fallback.resolveNamed(pattern, req)
	if err != nil {
		if errors.Is(err, errors.ErrPatternUnknown) {
			return Position{}, errors.HandlerNotFoundError(KindGeometry, pattern, r.Known())
		}
		return Position{}, err
	}
	return pos, nil
}

// MovementRegistry dispatches movement pattern ids.
type MovementRegistry struct {
	handlers map[string]MovementHandler
	fallback *defaultMovementHandler
}

// NewMovementRegistry builds the standard movement registry over the
// given curve catalog.
func NewMovementRegistry(catalog *curve.Catalog) *MovementRegistry {
	r := &MovementRegistry{
		handlers: make(map[string]MovementHandler),
		fallback: &defaultMovementHandler{catalog: catalog},
	}
	r.handlers["sweep"] = movementFunc(generateSweep)
	r.handlers["circle"] = movementFunc(generateCircle)
	r.handlers["figure_eight"] = movementFunc(generateFigureEight)
	r.handlers["nod"] = movementFunc(generateNod)
	r.handlers["wave"] = movementFunc(generateWave)
	r.handlers["drift"] = movementFunc(generateDriftMove)
	r.handlers["shake"] = movementFunc(generateShake)
	return r
}

// Known returns the sorted pattern ids with dedicated handlers.
func (r *MovementRegistry) Known() []string {
	return sortedKeys(r.handlers)
}

// Generate dispatches the pattern id, falling back to the default
// handler, which serves any catalog curve as a pan-only movement.
func (r *MovementRegistry) Generate(pattern string, req MovementRequest) (MovementCurves, error) {
	if h, ok := r.handlers[pattern]; ok {
		return h.Generate(req)
	}
	out, err := r.fallback.generateNamed(pattern, req)
	if err != nil {
		if errors.Is(err, errors.ErrPatternUnknown) {
			return MovementCurves{}, errors.HandlerNotFoundError(KindMovement, pattern, r.Known())
		}
		return MovementCurves{}, err
	}
	return out, nil
}

// DimmerRegistry dispatches dimmer pattern ids.
type DimmerRegistry struct {
	handlers map[string]DimmerHandler
	fallback *defaultDimmerHandler
}

// NewDimmerRegistry builds the standard dimmer registry over the given
// curve catalog.
func NewDimmerRegistry(catalog *curve.Catalog) *DimmerRegistry {
	r := &DimmerRegistry{
		handlers: make(map[string]DimmerHandler),
		fallback: &defaultDimmerHandler{catalog: catalog},
	}
	r.handlers["pulse"] = dimmerFunc(generatePulse)
	r.handlers["strobe"] = dimmerFunc(generateStrobe)
	r.handlers["swell"] = dimmerFunc(generateSwellDim)
	r.handlers["breathe"] = dimmerFunc(generateBreatheDim)
	r.handlers["flicker"] = dimmerFunc(generateFlicker)
	r.handlers["hold"] = dimmerFunc(generateHold)
	return r
}

// Known returns the sorted pattern ids with dedicated handlers.
func (r *DimmerRegistry) Known() []string {
	return sortedKeys(r.handlers)
}

// Generate dispatches the pattern id, falling back to the default
// handler, which serves any catalog curve shaped into [MinNorm, MaxNorm].
func (r *DimmerRegistry) Generate(pattern string, req DimmerRequest) ([]float64, error) {
	if h, ok := r.handlers[pattern]; ok {
		return h.Generate(req)
	}
	out, err := r.fallback.generateNamed(pattern, req)
	if err != nil {
		if errors.Is(err, errors.ErrPatternUnknown) {
			return nil, errors.HandlerNotFoundError(KindDimmer, pattern, r.Known())
		}
		return nil, err
	}
	return out, nil
}

// Adapters so plain functions satisfy the handler interfaces.

type geometryFunc func(req GeometryRequest) (Position, error)

func (f geometryFunc) Resolve(req GeometryRequest) (Position, error) { return f(req) }

type movementFunc func(req MovementRequest) (MovementCurves, error)

func (f movementFunc) Generate(req MovementRequest) (MovementCurves, error) { return f(req) }

type dimmerFunc func(req DimmerRequest) ([]float64, error)

func (f dimmerFunc) Generate(req DimmerRequest) ([]float64, error) { return f(req) }

func sortedKeys[H any](m map[string]H) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// param reads an optional numeric parameter with a default.
func param(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// roleFraction returns the fixture's normalized position within its
// target, in [0,1]. A single fixture sits at the middle.
func roleFraction(index, count int) float64 {
	if count <= 1 {
		return 0.5
	}
	return float64(index) / float64(count-1)
}
