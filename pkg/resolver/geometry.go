// Geometry handlers - named pose patterns to static normalized positions
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package resolver

import (
	"math"

	"showcompiler-go/pkg/curve"
	"showcompiler-go/pkg/errors"
)

// clampPos bounds both axes to [0,1].
func clampPos(p Position) Position {
	return Position{Pan: curve.Clamp01(p.Pan), Tilt: curve.Clamp01(p.Tilt)}
}

// resolveCenter aims every fixture at the calibrated center.
func resolveCenter(req GeometryRequest) (Position, error) {
	return Position{
		Pan:  param(req.Params, "pan", 0.5),
		Tilt: param(req.Params, "tilt", 0.5),
	}, nil
}

// resolvePose is the explicit pose: pan/tilt given directly in params.
func resolvePose(req GeometryRequest) (Position, error) {
	return clampPos(Position{
		Pan:  param(req.Params, "pan", 0.5),
		Tilt: param(req.Params, "tilt", 0.5),
	}), nil
}

// resolveFan spreads pans symmetrically around center by role position.
func resolveFan(req GeometryRequest) (Position, error) {
	spread := param(req.Params, "spread", 0.6)
	frac := roleFraction(req.RoleIndex, req.RoleCount)
	return clampPos(Position{
		Pan:  0.5 + spread*(frac-0.5),
		Tilt: param(req.Params, "tilt", 0.6),
	}), nil
}

// resolveLine places fixtures on an evenly spaced pan line.
func resolveLine(req GeometryRequest) (Position, error) {
	lo := param(req.Params, "pan_min", 0.2)
	hi := param(req.Params, "pan_max", 0.8)
	frac := roleFraction(req.RoleIndex, req.RoleCount)
	return clampPos(Position{
		Pan:  lo + (hi-lo)*frac,
		Tilt: param(req.Params, "tilt", 0.5),
	}), nil
}

// resolveDiagonal walks both axes together by role position.
func resolveDiagonal(req GeometryRequest) (Position, error) {
	frac := roleFraction(req.RoleIndex, req.RoleCount)
	panLo := param(req.Params, "pan_min", 0.25)
	panHi := param(req.Params, "pan_max", 0.75)
	tiltLo := param(req.Params, "tilt_min", 0.35)
	tiltHi := param(req.Params, "tilt_max", 0.75)
	return clampPos(Position{
		Pan:  panLo + (panHi-panLo)*frac,
		Tilt: tiltLo + (tiltHi-tiltLo)*frac,
	}), nil
}

// resolveVee dips tilt toward the middle of the group, forming a V.
func resolveVee(req GeometryRequest) (Position, error) {
	frac := roleFraction(req.RoleIndex, req.RoleCount)
	depth := param(req.Params, "depth", 0.3)
	base := param(req.Params, "tilt", 0.7)
	return clampPos(Position{
		Pan:  0.5 + param(req.Params, "spread", 0.5)*(frac-0.5),
		Tilt: base - depth*(1-math.Abs(2*frac-1)),
	}), nil
}

// resolveMirror alternates pan around center by role parity, so
// neighboring fixtures face each other.
func resolveMirror(req GeometryRequest) (Position, error) {
	offset := param(req.Params, "offset", 0.25)
	pan := 0.5 + offset
	if req.RoleIndex%2 == 1 {
		pan = 0.5 - offset
	}
	return clampPos(Position{
		Pan:  pan,
		Tilt: param(req.Params, "tilt", 0.55),
	}), nil
}

// resolveAudiencePose tilts out over the audience, pans by role.
func resolveAudiencePose(req GeometryRequest) (Position, error) {
	frac := roleFraction(req.RoleIndex, req.RoleCount)
	return clampPos(Position{
		Pan:  0.35 + 0.3*frac,
		Tilt: param(req.Params, "tilt", 0.25),
	}), nil
}

// builtinPoses is the broader pose library consulted by the default
// geometry handler for ids without a dedicated handler.
var builtinPoses = map[string]Position{
	"home":        {Pan: 0.5, Tilt: 0.5},
	"audience":    {Pan: 0.5, Tilt: 0.25},
	"ceiling":     {Pan: 0.5, Tilt: 0.95},
	"floor":       {Pan: 0.5, Tilt: 0.05},
	"stage_left":  {Pan: 0.2, Tilt: 0.5},
	"stage_right": {Pan: 0.8, Tilt: 0.5},
	"cross":       {Pan: 0.5, Tilt: 0.65},
}

// defaultGeometryHandler serves pose ids from the builtin pose library.
type defaultGeometryHandler struct{}

func (h *defaultGeometryHandler) Resolve(req GeometryRequest) (Position, error) {
	return resolveCenter(req)
}

// resolveNamed looks the pattern up in the pose library.
func (h *defaultGeometryHandler) resolveNamed(pattern string, req GeometryRequest) (Position, error) {
	if pose, ok := builtinPoses[pattern]; ok {
		return pose, nil
	}
	return Position{}, errors.PatternUnknownError(KindGeometry, pattern)
}
