// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resolver

import (
	"math"
	"strings"
	"testing"

	"showcompiler-go/pkg/curve"
	"showcompiler-go/pkg/errors"
)

func TestGeometryFanSpread(t *testing.T) {
	r := NewGeometryRegistry()

	// Three fixtures fan symmetrically around center.
	var pans []float64
	for i := 0; i < 3; i++ {
		pos, err := r.Resolve("fan", GeometryRequest{RoleIndex: i, RoleCount: 3})
		if err != nil {
			t.Fatalf("Resolve fan: %v", err)
		}
		pans = append(pans, pos.Pan)
	}
	if math.Abs(pans[1]-0.5) > 1e-9 {
		t.Errorf("middle fixture pan = %v, want 0.5", pans[1])
	}
	if math.Abs((0.5-pans[0])-(pans[2]-0.5)) > 1e-9 {
		t.Errorf("fan not symmetric: %v", pans)
	}
	if pans[0] >= pans[1] || pans[1] >= pans[2] {
		t.Errorf("fan pans not increasing: %v", pans)
	}
}

func TestGeometrySingleFixtureCentered(t *testing.T) {
	r := NewGeometryRegistry()
	pos, err := r.Resolve("line", GeometryRequest{RoleIndex: 0, RoleCount: 1})
	if err != nil {
		t.Fatalf("Resolve line: %v", err)
	}
	// A lone fixture sits at the middle of the line.
	if math.Abs(pos.Pan-0.5) > 1e-9 {
		t.Errorf("single fixture pan = %v, want midpoint 0.5", pos.Pan)
	}
}

func TestGeometryFallbackPoses(t *testing.T) {
	r := NewGeometryRegistry()
	pos, err := r.Resolve("stage_left", GeometryRequest{})
	if err != nil {
		t.Fatalf("builtin pose: %v", err)
	}
	if pos.Pan != 0.2 {
		t.Errorf("stage_left pan = %v, want 0.2", pos.Pan)
	}
}

func TestGeometryUnknownPattern(t *testing.T) {
	r := NewGeometryRegistry()
	_, err := r.Resolve("spiral_of_doom", GeometryRequest{})
	if !errors.Is(err, errors.ErrHandlerNotFound) {
		t.Fatalf("error = %v, want HANDLER_NOT_FOUND", err)
	}
	// The error names the known pattern ids.
	if !strings.Contains(err.Error(), "fan") {
		t.Errorf("error does not list known ids: %v", err)
	}
}

func TestMovementOffsetCentered(t *testing.T) {
	r := NewMovementRegistry(curve.NewCatalog())
	out, err := r.Generate("sweep", MovementRequest{SampleCount: 33, Cycles: 1, Intensity: 0.5})
	if err != nil {
		t.Fatalf("Generate sweep: %v", err)
	}
	if len(out.Pan) != 33 || len(out.Tilt) != 33 {
		t.Fatalf("sample counts = %d/%d", len(out.Pan), len(out.Tilt))
	}
	// Sweep starts at neutral and keeps tilt neutral throughout.
	if math.Abs(out.Pan[0]-0.5) > 1e-9 {
		t.Errorf("pan[0] = %v, want 0.5", out.Pan[0])
	}
	for i, v := range out.Tilt {
		if v != 0.5 {
			t.Fatalf("tilt[%d] = %v, want neutral", i, v)
		}
	}
	// Intensity bounds the swing.
	for i, v := range out.Pan {
		if v < 0.25-1e-9 || v > 0.75+1e-9 {
			t.Errorf("pan[%d] = %v outside intensity swing", i, v)
		}
	}
}

func TestMovementIntensityScales(t *testing.T) {
	r := NewMovementRegistry(curve.NewCatalog())
	lo, _ := r.Generate("sweep", MovementRequest{SampleCount: 17, Cycles: 1, Intensity: 0.25})
	hi, _ := r.Generate("sweep", MovementRequest{SampleCount: 17, Cycles: 1, Intensity: 1})
	swing := func(s []float64) float64 {
		max := 0.0
		for _, v := range s {
			if d := math.Abs(v - 0.5); d > max {
				max = d
			}
		}
		return max
	}
	if swing(lo.Pan) >= swing(hi.Pan) {
		t.Errorf("low intensity swing %v not below high %v", swing(lo.Pan), swing(hi.Pan))
	}
}

func TestMovementCatalogFallback(t *testing.T) {
	r := NewMovementRegistry(curve.NewCatalog())

	// A raw catalog id resolves through the default handler, pan-only.
	out, err := r.Generate("triangle", MovementRequest{SampleCount: 9, Cycles: 1, Intensity: 1})
	if err != nil {
		t.Fatalf("catalog fallback: %v", err)
	}
	for i, v := range out.Tilt {
		if v != 0.5 {
			t.Fatalf("fallback tilt[%d] = %v, want neutral", i, v)
		}
	}

	_, err = r.Generate("wobblevision", MovementRequest{SampleCount: 9})
	if !errors.Is(err, errors.ErrHandlerNotFound) {
		t.Errorf("unknown pattern error = %v, want HANDLER_NOT_FOUND", err)
	}
}

func TestDimmerBounds(t *testing.T) {
	r := NewDimmerRegistry(curve.NewCatalog())
	out, err := r.Generate("strobe", DimmerRequest{
		SampleCount: 16, Cycles: 4, Intensity: 1, MinNorm: 0.2, MaxNorm: 0.9,
	})
	if err != nil {
		t.Fatalf("Generate strobe: %v", err)
	}
	for i, v := range out {
		if v < 0.2-1e-9 || v > 0.9+1e-9 {
			t.Errorf("sample[%d] = %v outside [0.2, 0.9]", i, v)
		}
	}
}

func TestDimmerHoldLevel(t *testing.T) {
	r := NewDimmerRegistry(curve.NewCatalog())
	out, err := r.Generate("hold", DimmerRequest{SampleCount: 8, Intensity: 0.5, MaxNorm: 1})
	if err != nil {
		t.Fatalf("Generate hold: %v", err)
	}
	for i, v := range out {
		if math.Abs(v-0.5) > 1e-9 {
			t.Errorf("hold[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestDimmerCatalogFallbackAndUnknown(t *testing.T) {
	r := NewDimmerRegistry(curve.NewCatalog())
	out, err := r.Generate("ramp_up", DimmerRequest{SampleCount: 5, Cycles: 1, Intensity: 1, MaxNorm: 1})
	if err != nil {
		t.Fatalf("catalog fallback: %v", err)
	}
	if out[0] != 0 || math.Abs(out[4]-1) > 1e-9 {
		t.Errorf("ramp_up = %v, want 0..1", out)
	}

	_, err = r.Generate("lava_lamp", DimmerRequest{SampleCount: 5})
	if !errors.Is(err, errors.ErrHandlerNotFound) {
		t.Errorf("unknown pattern error = %v, want HANDLER_NOT_FOUND", err)
	}
}
