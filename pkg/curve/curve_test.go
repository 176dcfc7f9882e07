// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package curve

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEasingEndpoints(t *testing.T) {
	cases := []struct {
		name string
		fn   Func
	}{
		{"linear", Linear},
		{"ease_in", EaseInQuad},
		{"ease_out", EaseOutQuad},
		{"ease_in_out", EaseInOutQuad},
		{"ease_in_cubic", EaseInCubic},
		{"ease_out_cubic", EaseOutCubic},
		{"smoothstep", Smoothstep},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if v := tc.fn(0); !almostEqual(v, 0) {
				t.Errorf("fn(0) = %v, want 0", v)
			}
			if v := tc.fn(1); !almostEqual(v, 1) {
				t.Errorf("fn(1) = %v, want 1", v)
			}
		})
	}
}

func TestCurvesStayNormalized(t *testing.T) {
	c := NewCatalog()
	for _, id := range c.IDs() {
		def, _ := c.Lookup(id)
		for i := 0; i <= 100; i++ {
			tt := float64(i) / 100
			v := def.Fn(tt)
			if v < 0 || v > 1 {
				t.Errorf("%s(%v) = %v out of [0,1]", id, tt, v)
			}
		}
	}
}

func TestLoopReadyCurvesClose(t *testing.T) {
	c := NewCatalog()
	for _, id := range c.IDs() {
		def, _ := c.Lookup(id)
		closes := math.Abs(def.Fn(1)-def.Fn(0)) < LoopEpsilon
		if closes != def.LoopReady {
			t.Errorf("%s: loop-ready flag %v but |fn(1)-fn(0)| = %v",
				id, def.LoopReady, math.Abs(def.Fn(1)-def.Fn(0)))
		}
	}
}

func TestSampleEndpointsAndCycles(t *testing.T) {
	s := Sample(Linear, 5, 1)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i, v := range want {
		if !almostEqual(s[i], v) {
			t.Errorf("sample[%d] = %v, want %v", i, s[i], v)
		}
	}

	// Two cycles of a loop-ready curve end where they started.
	s = Sample(Sine, 33, 2)
	if !almostEqual(s[0], s[len(s)-1]) {
		t.Errorf("two whole sine cycles: first %v != last %v", s[0], s[len(s)-1])
	}

	// The final sample of a whole cycle evaluates fn(1), not fn(0).
	s = Sample(Linear, 3, 1)
	if !almostEqual(s[2], 1) {
		t.Errorf("final sample = %v, want fn(1) = 1", s[2])
	}
}

func TestSampleIntoMatchesSample(t *testing.T) {
	buf := make([]float64, 16)
	SampleInto(Triangle, buf, 1.5)
	ref := Sample(Triangle, 16, 1.5)
	for i := range buf {
		if !almostEqual(buf[i], ref[i]) {
			t.Fatalf("SampleInto[%d] = %v, Sample = %v", i, buf[i], ref[i])
		}
	}
}

func TestNoiseDeterministic(t *testing.T) {
	a := Noise(42)
	b := Noise(42)
	c := Noise(43)
	same, diff := true, false
	for i := 0; i <= 20; i++ {
		tt := float64(i) / 20
		if a(tt) != b(tt) {
			same = false
		}
		if a(tt) != c(tt) {
			diff = true
		}
	}
	if !same {
		t.Error("same seed produced different noise")
	}
	if !diff {
		t.Error("different seeds produced identical noise")
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog()
	if _, ok := c.Lookup("sine"); !ok {
		t.Error("sine missing from catalog")
	}
	if _, ok := c.Lookup("no_such_curve"); ok {
		t.Error("unknown id resolved")
	}
	ids := c.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("ids not sorted: %s >= %s", ids[i-1], ids[i])
		}
	}
}
