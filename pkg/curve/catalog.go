// Curve catalog - the constructed, immutable pattern library
//
// The catalog is an explicit value injected into the semantic resolvers
// at construction time. There is no package-level mutable registry.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package curve

import (
	"math"
	"sort"
)

// Def describes one named curve in the catalog.
type Def struct {
	ID        string
	Family    Family
	Fn        Func
	LoopReady bool // |Fn(1)-Fn(0)| < LoopEpsilon
}

// LoopEpsilon is the continuity threshold for loop-ready curves.
const LoopEpsilon = 1e-6

// DefaultSampleCount is the number of samples generated for a curve when
// the caller does not specify one.
const DefaultSampleCount = 32

// noiseSeed fixes the lattice for the catalog noise curves. Reproducible
// output requires a constant seed per catalog build.
const noiseSeed = 0x5eed

// Catalog is an immutable set of named curves.
type Catalog struct {
	defs map[string]Def
	ids  []string
}

// NewCatalog builds the standard curve catalog.
func NewCatalog() *Catalog {
	defs := []Def{
		// Easing family
		{ID: "linear", Family: FamilyEasing, Fn: Linear},
		{ID: "ease_in", Family: FamilyEasing, Fn: EaseInQuad},
		{ID: "ease_out", Family: FamilyEasing, Fn: EaseOutQuad},
		{ID: "ease_in_out", Family: FamilyEasing, Fn: EaseInOutQuad},
		{ID: "ease_in_cubic", Family: FamilyEasing, Fn: EaseInCubic},
		{ID: "ease_out_cubic", Family: FamilyEasing, Fn: EaseOutCubic},
		{ID: "smoothstep", Family: FamilyEasing, Fn: Smoothstep},

		// Periodic family
		{ID: "sine", Family: FamilyPeriodic, Fn: Sine, LoopReady: true},
		{ID: "cosine", Family: FamilyPeriodic, Fn: Cosine, LoopReady: true},
		{ID: "abs_sine", Family: FamilyPeriodic, Fn: AbsSine, LoopReady: true},
		{ID: "triangle", Family: FamilyPeriodic, Fn: Triangle, LoopReady: true},
		{ID: "sawtooth", Family: FamilyPeriodic, Fn: Sawtooth},
		{ID: "square", Family: FamilyPeriodic, Fn: Square},
		{ID: "parabolic", Family: FamilyPeriodic, Fn: Parabolic, LoopReady: true},

		// Noise family
		{ID: "noise", Family: FamilyNoise, Fn: Noise(noiseSeed), LoopReady: true},
		{ID: "drift", Family: FamilyNoise, Fn: Drift(noiseSeed), LoopReady: true},

		// Envelope family
		{ID: "pulse", Family: FamilyEnvelope, Fn: Pulse},
		{ID: "swell", Family: FamilyEnvelope, Fn: Swell, LoopReady: true},
		{ID: "breathe", Family: FamilyEnvelope, Fn: Breathe, LoopReady: true},
		{ID: "exp", Family: FamilyEnvelope, Fn: ExpRise},
		{ID: "log", Family: FamilyEnvelope, Fn: LogRise},
		{ID: "ramp_up", Family: FamilyEnvelope, Fn: Linear},
		{ID: "ramp_down", Family: FamilyEnvelope, Fn: RampDown},
		{ID: "flat", Family: FamilyEnvelope, Fn: Flat, LoopReady: true},
	}

	c := &Catalog{defs: make(map[string]Def, len(defs))}
	for _, d := range defs {
		c.defs[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	sort.Strings(c.ids)
	return c
}

// Lookup returns the curve definition for the given id.
func (c *Catalog) Lookup(id string) (Def, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// IDs returns the sorted list of known curve ids.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Sample evaluates fn at n evenly spaced points over the given number of
// cycles. The final sample lands exactly on the end of the last cycle;
// for whole cycle counts of a loop-ready curve this equals the first
// sample. n must be at least 2.
func Sample(fn Func, n int, cycles float64) []float64 {
	if n < 2 {
		n = 2
	}
	if cycles <= 0 {
		cycles = 1
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		phase := cycles * float64(i) / float64(n-1)
		t := phase - math.Floor(phase)
		if t == 0 && phase > 0 {
			t = 1
		}
		out[i] = fn(t)
	}
	return out
}

// SampleInto is Sample writing into a caller-provided buffer, for the
// render hot path where buffers are pooled. The buffer length selects n.
func SampleInto(fn Func, buf []float64, cycles float64) {
	n := len(buf)
	if n == 0 {
		return
	}
	if n == 1 {
		buf[0] = fn(0)
		return
	}
	if cycles <= 0 {
		cycles = 1
	}
	for i := 0; i < n; i++ {
		phase := cycles * float64(i) / float64(n-1)
		t := phase - math.Floor(phase)
		if t == 0 && phase > 0 {
			t = 1
		}
		buf[i] = fn(t)
	}
}
