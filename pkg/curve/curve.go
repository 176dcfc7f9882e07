// Normalized curve primitives for the show compiler
//
// Every curve maps a normalized time t in [0,1] to a normalized value in
// [0,1]. Curves are pure functions; periodic curves complete exactly one
// period over [0,1] so that cycle counts can be applied by sampling.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package curve

import "math"

// Func maps normalized time t in [0,1] to a normalized value in [0,1].
type Func func(t float64) float64

// Family groups curves by their musical/visual role.
type Family string

const (
	FamilyEasing   Family = "easing"
	FamilyPeriodic Family = "periodic"
	FamilyNoise    Family = "noise"
	FamilyEnvelope Family = "envelope"
)

// Clamp01 clamps v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Easing curves

// Linear is the identity curve.
func Linear(t float64) float64 { return Clamp01(t) }

// EaseInQuad accelerates from zero velocity.
func EaseInQuad(t float64) float64 { return Clamp01(t * t) }

// EaseOutQuad decelerates to zero velocity.
func EaseOutQuad(t float64) float64 { return Clamp01(t * (2 - t)) }

// EaseInOutQuad accelerates then decelerates.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return Clamp01(2 * t * t)
	}
	return Clamp01(-1 + (4-2*t)*t)
}

// EaseInCubic accelerates harder from zero velocity.
func EaseInCubic(t float64) float64 { return Clamp01(t * t * t) }

// EaseOutCubic decelerates harder to zero velocity.
func EaseOutCubic(t float64) float64 {
	u := t - 1
	return Clamp01(u*u*u + 1)
}

// Smoothstep is the classic 3t^2-2t^3 hermite blend.
func Smoothstep(t float64) float64 {
	t = Clamp01(t)
	return t * t * (3 - 2*t)
}

// Periodic curves (one period over [0,1])

// Sine is a full sine cycle centered on 0.5. Loop-ready.
func Sine(t float64) float64 { return 0.5 + 0.5*math.Sin(2*math.Pi*t) }

// Cosine is a full cosine cycle centered on 0.5, starting at 1. Loop-ready.
func Cosine(t float64) float64 { return 0.5 + 0.5*math.Cos(2*math.Pi*t) }

// AbsSine is the rectified half-sine arch: 0 at both ends, 1 at t=0.5.
// Loop-ready.
func AbsSine(t float64) float64 { return math.Abs(math.Sin(math.Pi * t)) }

// Triangle rises linearly to 1 at t=0.5 and falls back to 0. Loop-ready.
func Triangle(t float64) float64 { return 1 - math.Abs(2*Clamp01(t)-1) }

// Sawtooth rises linearly from 0 to 1 and resets.
func Sawtooth(t float64) float64 { return Clamp01(t) }

// Square is 1 for the first half period, 0 for the second.
func Square(t float64) float64 {
	if Clamp01(t) < 0.5 {
		return 1
	}
	return 0
}

// Parabolic is the arch 4t(1-t): 0 at both ends, 1 at t=0.5. Loop-ready.
func Parabolic(t float64) float64 {
	t = Clamp01(t)
	return 4 * t * (1 - t)
}

// Envelope curves

// Pulse is a fast attack with exponential decay, one hit per period.
func Pulse(t float64) float64 {
	t = Clamp01(t)
	const attack = 0.08
	if t < attack {
		return t / attack
	}
	return math.Exp(-5 * (t - attack) / (1 - attack))
}

// Swell is a slow symmetric rise-and-fall built on smoothstep. Loop-ready.
func Swell(t float64) float64 {
	t = Clamp01(t)
	if t < 0.5 {
		return Smoothstep(2 * t)
	}
	return Smoothstep(2 * (1 - t))
}

// Breathe is a gentle sinusoidal in/out, slower at the extremes than
// Swell. Loop-ready.
func Breathe(t float64) float64 {
	return 0.5 - 0.5*math.Cos(2*math.Pi*Clamp01(t))
}

// ExpRise rises exponentially from 0 to 1.
func ExpRise(t float64) float64 {
	t = Clamp01(t)
	return (math.Exp(3*t) - 1) / (math.Exp(3) - 1)
}

// LogRise rises logarithmically from 0 to 1 (fast start, slow finish).
func LogRise(t float64) float64 {
	t = Clamp01(t)
	return math.Log1p(9*t) / math.Log(10)
}

// RampDown falls linearly from 1 to 0.
func RampDown(t float64) float64 { return 1 - Clamp01(t) }

// Flat returns the constant 0.5 regardless of t. Loop-ready.
func Flat(t float64) float64 { return 0.5 }
