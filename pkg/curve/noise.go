// Deterministic value noise for organic movement curves
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package curve

import "math"

// noiseLattice is the number of lattice points across one period.
const noiseLattice = 8

// latticeValue returns a deterministic pseudo-random value in [0,1] for
// lattice index i under the given seed. Plain integer hash, no global
// RNG state, so identical inputs always produce identical curves.
func latticeValue(i int, seed uint64) float64 {
	h := uint64(i)*0x9e3779b97f4a7c15 + seed*0xbf58476d1ce4e5b9
	h ^= h >> 30
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return float64(h%100000) / 100000.0
}

// Noise returns a smooth deterministic value-noise curve for the given
// seed. The first and last lattice values coincide, so the curve is
// loop-ready.
func Noise(seed uint64) Func {
	return func(t float64) float64 {
		t = Clamp01(t)
		x := t * noiseLattice
		i := int(x)
		frac := x - float64(i)
		// Wrap the last segment back to lattice point 0 for loop continuity.
		a := latticeValue(i%noiseLattice, seed)
		b := latticeValue((i+1)%noiseLattice, seed)
		return a + (b-a)*Smoothstep(frac)
	}
}

// Drift returns a slow two-octave noise curve; lower frequency and
// smaller second octave than Noise, for lazy ambient movement.
func Drift(seed uint64) Func {
	base := Noise(seed)
	detail := Noise(seed + 1)
	return func(t float64) float64 {
		t = Clamp01(t)
		v := 0.75*base(t) + 0.25*detail(math.Mod(t*2, 1))
		return Clamp01(v)
	}
}
