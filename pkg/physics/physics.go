// Physics validator - advisory checks against fixture motion limits
//
// Computes per-sample angular speed and acceleration from a channel's
// DMX sample sequence and the fixture's physical degree range, then
// compares against the configured maxima and minimum settle time.
// Violations are warnings only; they never block output.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package physics

import (
	"fmt"
	"math"

	"showcompiler-go/pkg/errors"
	"showcompiler-go/pkg/rig"
)

// Warning is one advisory violation.
type Warning struct {
	Code      errors.ErrorCode
	FixtureID string
	Channel   string
	AtMs      int64
	Value     float64
	Limit     float64
	Message   string
}

// Limits are the thresholds a channel is checked against.
type Limits struct {
	MaxSpeedDegPerSec  float64
	MaxAccelDegPerSec2 float64
	MinSettleMs        int64
}

// LimitsFrom extracts motion limits from a calibration.
func LimitsFrom(cal rig.Calibration) Limits {
	return Limits{
		MaxSpeedDegPerSec:  cal.MaxSpeedDegPerSec,
		MaxAccelDegPerSec2: cal.MaxAccelDegPerSec2,
		MinSettleMs:        cal.MinSettleMs,
	}
}

// rangeDegFor returns the physical travel for a positional channel,
// or 0 for channels without angular meaning.
func rangeDegFor(channel string, cal rig.Calibration) float64 {
	switch channel {
	case rig.ChannelPan:
		return cal.PanRangeDeg
	case rig.ChannelTilt:
		return cal.TiltRangeDeg
	default:
		return 0
	}
}

// Validate checks one channel's DMX samples spanning [startMs, endMs].
// Channels without angular meaning only get the settle-time check.
func Validate(fixtureID, channel string, samples []int, startMs, endMs int64, cal rig.Calibration) []Warning {
	var warnings []Warning

	spanMs := endMs - startMs
	if len(samples) < 2 || spanMs <= 0 {
		return nil
	}

	limits := LimitsFrom(cal)
	rangeDeg := rangeDegFor(channel, cal)

	if limits.MinSettleMs > 0 && spanMs < limits.MinSettleMs {
		warnings = append(warnings, Warning{
			Code:      errors.ErrPhysicsSettle,
			FixtureID: fixtureID,
			Channel:   channel,
			AtMs:      startMs,
			Value:     float64(spanMs),
			Limit:     float64(limits.MinSettleMs),
			Message: fmt.Sprintf("segment spans %dms, under the %dms settle minimum",
				spanMs, limits.MinSettleMs),
		})
	}

	if rangeDeg <= 0 {
		return warnings
	}

	dtSec := float64(spanMs) / float64(len(samples)-1) / 1000.0
	degPerDMX := rangeDeg / FullScale

	prevSpeed := 0.0
	for i := 1; i < len(samples); i++ {
		deltaDeg := math.Abs(float64(samples[i]-samples[i-1])) * degPerDMX
		speed := deltaDeg / dtSec
		atMs := startMs + int64(float64(i)*float64(spanMs)/float64(len(samples)-1))

		if limits.MaxSpeedDegPerSec > 0 && speed > limits.MaxSpeedDegPerSec {
			warnings = append(warnings, Warning{
				Code:      errors.ErrPhysicsSpeed,
				FixtureID: fixtureID,
				Channel:   channel,
				AtMs:      atMs,
				Value:     speed,
				Limit:     limits.MaxSpeedDegPerSec,
				Message: fmt.Sprintf("angular speed %.1f deg/s exceeds limit %.1f deg/s",
					speed, limits.MaxSpeedDegPerSec),
			})
		}

		if i > 1 && limits.MaxAccelDegPerSec2 > 0 {
			accel := math.Abs(speed-prevSpeed) / dtSec
			if accel > limits.MaxAccelDegPerSec2 {
				warnings = append(warnings, Warning{
					Code:      errors.ErrPhysicsAccel,
					FixtureID: fixtureID,
					Channel:   channel,
					AtMs:      atMs,
					Value:     accel,
					Limit:     limits.MaxAccelDegPerSec2,
					Message: fmt.Sprintf("angular acceleration %.1f deg/s^2 exceeds limit %.1f deg/s^2",
						accel, limits.MaxAccelDegPerSec2),
				})
			}
		}
		prevSpeed = speed
	}

	return warnings
}

// FullScale mirrors the DMX value range top without importing pkg/dmx.
const FullScale = 255.0
