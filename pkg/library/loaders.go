// Show document loaders - rig profile, plan and beat grid from YAML
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package library

import (
	"os"

	"showcompiler-go/pkg/errors"
	"showcompiler-go/pkg/plan"
	"showcompiler-go/pkg/rig"
)

// LoadRig reads and validates a rig profile document.
func LoadRig(path string) (*rig.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRigReference, "cannot read rig profile")
	}
	var p rig.Profile
	if err := strictDecode(data, &p); err != nil {
		return nil, errors.Wrap(err, errors.ErrRigReference, "cannot parse rig profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPlan reads and validates a standalone plan document.
func LoadPlan(path string) (*plan.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPlanSection, "cannot read plan file")
	}
	var p plan.Plan
	if err := strictDecode(data, &p); err != nil {
		return nil, errors.Wrap(err, errors.ErrPlanSection, "cannot parse plan file")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadBeatGrid reads and validates a standalone beat grid document.
func LoadBeatGrid(path string) (*plan.BeatGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPlanSection, "cannot read beat grid file")
	}
	var g plan.BeatGrid
	if err := strictDecode(data, &g); err != nil {
		return nil, errors.Wrap(err, errors.ErrPlanSection, "cannot parse beat grid file")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// showDoc is the top-level show file: the beat grid plus the plan.
type showDoc struct {
	Grid plan.BeatGrid `yaml:"grid"`
	Plan plan.Plan     `yaml:"plan"`
}

// LoadShow reads a show document holding both the beat grid and the
// section plan. Both halves are validated.
func LoadShow(path string) (*plan.Plan, *plan.BeatGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrPlanSection, "cannot read show file")
	}
	var doc showDoc
	if err := strictDecode(data, &doc); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrPlanSection, "cannot parse show file")
	}
	if err := doc.Grid.Validate(); err != nil {
		return nil, nil, err
	}
	if err := doc.Plan.Validate(); err != nil {
		return nil, nil, err
	}
	return &doc.Plan, &doc.Grid, nil
}
