// Movement handlers - named patterns to offset-centered pan/tilt curves
//
// All movement output uses the 0.5-neutral convention: a sample of 0.5
// means "no offset from the base pose"; the swing around it is scaled by
// the request intensity. The channel mapper recenters the curves around
// whatever pose geometry resolved, so movement composes with any pose.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resolver

import (
	"showcompiler-go/pkg/curve"
	"showcompiler-go/pkg/errors"
)

// recenter maps a [0,1] curve sample into the offset-centered convention
// with the given amplitude scale.
func recenter(samples []float64, amplitude float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = curve.Clamp01(0.5 + (s-0.5)*amplitude)
	}
	return out
}

// neutral returns an all-0.5 curve of length n.
func neutral(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5
	}
	return out
}

func sampleCount(req MovementRequest) int {
	if req.SampleCount > 1 {
		return req.SampleCount
	}
	return curve.DefaultSampleCount
}

// generateSweep pans side to side; tilt stays neutral.
func generateSweep(req MovementRequest) (MovementCurves, error) {
	n := sampleCount(req)
	return MovementCurves{
		Pan:  recenter(curve.Sample(curve.Sine, n, req.Cycles), req.Intensity),
		Tilt: neutral(n),
	}, nil
}

// generateCircle traces a circle: pan sine against tilt cosine.
func generateCircle(req MovementRequest) (MovementCurves, error) {
	n := sampleCount(req)
	tiltScale := param(req.Params, "tilt_scale", 0.6)
	return MovementCurves{
		Pan:  recenter(curve.Sample(curve.Sine, n, req.Cycles), req.Intensity),
		Tilt: recenter(curve.Sample(curve.Cosine, n, req.Cycles), req.Intensity*tiltScale),
	}, nil
}

// generateFigureEight runs tilt at double the pan frequency.
func generateFigureEight(req MovementRequest) (MovementCurves, error) {
	n := sampleCount(req)
	return MovementCurves{
		Pan:  recenter(curve.Sample(curve.Sine, n, req.Cycles), req.Intensity),
		Tilt: recenter(curve.Sample(curve.Sine, n, req.Cycles*2), req.Intensity*0.5),
	}, nil
}

// generateNod bobs tilt on a triangle wave; pan stays neutral.
func generateNod(req MovementRequest) (MovementCurves, error) {
	n := sampleCount(req)
	return MovementCurves{
		Pan:  neutral(n),
		Tilt: recenter(curve.Sample(curve.Triangle, n, req.Cycles), req.Intensity),
	}, nil
}

// generateWave rolls tilt on a smooth sine; pan stays neutral.
func generateWave(req MovementRequest) (MovementCurves, error) {
	n := sampleCount(req)
	return MovementCurves{
		Pan:  neutral(n),
		Tilt: recenter(curve.Sample(curve.Sine, n, req.Cycles), req.Intensity),
	}, nil
}

// generateDriftMove wanders both axes on independent noise lattices.
func generateDriftMove(req MovementRequest) (MovementCurves, error) {
	n := sampleCount(req)
	return MovementCurves{
		Pan:  recenter(curve.Sample(curve.Drift(1), n, req.Cycles), req.Intensity),
		Tilt: recenter(curve.Sample(curve.Drift(2), n, req.Cycles), req.Intensity*0.7),
	}, nil
}

// generateShake jitters pan at high frequency with small amplitude.
func generateShake(req MovementRequest) (MovementCurves, error) {
	n := sampleCount(req)
	freq := param(req.Params, "frequency", 8)
	return MovementCurves{
		Pan:  recenter(curve.Sample(curve.Noise(7), n, req.Cycles*freq), req.Intensity*0.3),
		Tilt: neutral(n),
	}, nil
}

// defaultMovementHandler serves any catalog curve as a pan-only
// movement, so template authors can reference curve ids directly.
type defaultMovementHandler struct {
	catalog *curve.Catalog
}

func (h *defaultMovementHandler) Generate(req MovementRequest) (MovementCurves, error) {
	n := sampleCount(req)
	return MovementCurves{Pan: neutral(n), Tilt: neutral(n)}, nil
}

func (h *defaultMovementHandler) generateNamed(pattern string, req MovementRequest) (MovementCurves, error) {
	def, ok := h.catalog.Lookup(pattern)
	if !ok {
		return MovementCurves{}, errors.PatternUnknownError(KindMovement, pattern)
	}
	n := sampleCount(req)
	return MovementCurves{
		Pan:  recenter(curve.Sample(def.Fn, n, req.Cycles), req.Intensity),
		Tilt: neutral(n),
	}, nil
}
