// Dimmer handlers - named patterns to absolute brightness curves
//
// Dimmer output is absolute: samples land inside [MinNorm, MaxNorm] and
// the request intensity scales the usable span from the floor up.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resolver

import (
	"showcompiler-go/pkg/curve"
	"showcompiler-go/pkg/errors"
)

// shapeDimmer maps [0,1] samples into [min, min+(max-min)*intensity].
func shapeDimmer(samples []float64, req DimmerRequest) []float64 {
	lo, hi := dimmerBounds(req)
	span := (hi - lo) * req.Intensity
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = lo + span*curve.Clamp01(s)
	}
	return out
}

func dimmerBounds(req DimmerRequest) (float64, float64) {
	lo := curve.Clamp01(req.MinNorm)
	hi := req.MaxNorm
	if hi <= 0 {
		hi = 1
	}
	hi = curve.Clamp01(hi)
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}

func dimmerSampleCount(req DimmerRequest) int {
	if req.SampleCount > 1 {
		return req.SampleCount
	}
	return curve.DefaultSampleCount
}

// generatePulse hits on the beat and decays.
func generatePulse(req DimmerRequest) ([]float64, error) {
	n := dimmerSampleCount(req)
	return shapeDimmer(curve.Sample(curve.Pulse, n, req.Cycles), req), nil
}

// generateStrobe hard-switches between floor and ceiling.
func generateStrobe(req DimmerRequest) ([]float64, error) {
	n := dimmerSampleCount(req)
	return shapeDimmer(curve.Sample(curve.Square, n, req.Cycles), req), nil
}

// generateSwellDim rises and falls smoothly once per cycle.
func generateSwellDim(req DimmerRequest) ([]float64, error) {
	n := dimmerSampleCount(req)
	return shapeDimmer(curve.Sample(curve.Swell, n, req.Cycles), req), nil
}

// generateBreatheDim is a slower, gentler swell.
func generateBreatheDim(req DimmerRequest) ([]float64, error) {
	n := dimmerSampleCount(req)
	return shapeDimmer(curve.Sample(curve.Breathe, n, req.Cycles), req), nil
}

// generateFlicker wobbles brightness on deterministic noise.
func generateFlicker(req DimmerRequest) ([]float64, error) {
	n := dimmerSampleCount(req)
	return shapeDimmer(curve.Sample(curve.Noise(11), n, req.Cycles*4), req), nil
}

// generateHold emits a constant level at the intensity point of the span.
func generateHold(req DimmerRequest) ([]float64, error) {
	n := dimmerSampleCount(req)
	lo, hi := dimmerBounds(req)
	level := lo + (hi-lo)*req.Intensity
	out := make([]float64, n)
	for i := range out {
		out[i] = level
	}
	return out, nil
}

// defaultDimmerHandler serves any catalog curve shaped into the
// requested bounds.
type defaultDimmerHandler struct {
	catalog *curve.Catalog
}

func (h *defaultDimmerHandler) Generate(req DimmerRequest) ([]float64, error) {
	return generateHold(req)
}

func (h *defaultDimmerHandler) generateNamed(pattern string, req DimmerRequest) ([]float64, error) {
	def, ok := h.catalog.Lookup(pattern)
	if !ok {
		return nil, errors.PatternUnknownError(KindDimmer, pattern)
	}
	n := dimmerSampleCount(req)
	return shapeDimmer(curve.Sample(def.Fn, n, req.Cycles), req), nil
}
