// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package library

import (
	"os"
	"path/filepath"
	"testing"

	"showcompiler-go/pkg/errors"
)

const goodTemplate = `
id: sweep_wide
version: 1
steps:
  - id: s1
    target: "group:ALL"
    timing:
      start_bar: 0
      duration_bars: 4
    geometry:
      pattern: fan
    movement:
      pattern: sweep
      cycles: 2
    dimmer:
      pattern: swell
      max_norm: 1
repeat:
  repeatable: true
  cycle_bars: 4
  loop_steps: [s1]
`

const invalidTemplate = `
id: broken
version: 1
steps:
  - id: s1
    target: "group:ALL"
    timing:
      start_bar: 0
      duration_bars: 0
    geometry:
      pattern: center
    movement:
      pattern: sweep
    dimmer:
      pattern: hold
repeat:
  repeatable: false
`

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGetLoadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "sweep_wide.yaml", goodTemplate)

	lib, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tmpl, err := lib.Get("sweep_wide")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tmpl.ID != "sweep_wide" || len(tmpl.Steps) != 1 {
		t.Errorf("template = %+v", tmpl)
	}
	// Validation defaults applied on load.
	if tmpl.Repeat.Remainder == "" {
		t.Error("repeat remainder not defaulted")
	}

	// Second lookup hits the cache even if the file disappears.
	if err := os.Remove(filepath.Join(dir, "sweep_wide.yaml")); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Get("sweep_wide"); err != nil {
		t.Errorf("cached Get: %v", err)
	}
}

func TestGetFailureModesDistinct(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "garbled.yaml", "steps: [not: {valid")
	writeTemplate(t, dir, "broken.yaml", invalidTemplate)
	writeTemplate(t, dir, "unknown_field.yaml", goodTemplate+"\nbogus_key: 1\n")

	lib, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cases := []struct {
		id   string
		code errors.ErrorCode
	}{
		{"missing", errors.ErrTemplateNotFound},
		{"garbled", errors.ErrTemplateLoad},
		{"unknown_field", errors.ErrTemplateLoad},
		{"broken", errors.ErrTimingMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			_, err := lib.Get(tc.id)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tc.code) {
				t.Errorf("error = %v, want code %s", err, tc.code)
			}
		})
	}
}

func TestGetRejectsIDMismatch(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "alias.yaml", goodTemplate)

	lib, _ := Open(dir)
	_, err := lib.Get("alias")
	if !errors.Is(err, errors.ErrTemplateInvalid) {
		t.Errorf("id mismatch error = %v, want TEMPLATE_INVALID", err)
	}
}

func TestIDs(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "b.yaml", goodTemplate)
	writeTemplate(t, dir, "a.yml", goodTemplate)
	writeTemplate(t, dir, "notes.txt", "not a template")

	lib, _ := Open(dir)
	ids, err := lib.IDs()
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v, want [a b]", ids)
	}
}

func TestOpenRejectsMissingDir(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing directory accepted")
	}
}

const showFile = `
grid:
  bpm: 120
  beats_per_bar: 4
plan:
  sections:
    - name: verse
      start_bar: 0
      end_bar: 8
      template_id: sweep_wide
`

const rigFile = `
fixtures:
  - id: spot_1
    channels:
      pan: 1
      tilt: 2
      dimmer: 3
groups:
  spots: [spot_1]
`

func TestLoadShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "show.yaml")
	if err := os.WriteFile(path, []byte(showFile), 0644); err != nil {
		t.Fatal(err)
	}
	p, grid, err := LoadShow(path)
	if err != nil {
		t.Fatalf("LoadShow: %v", err)
	}
	if len(p.Sections) != 1 || p.Sections[0].TemplateID != "sweep_wide" {
		t.Errorf("plan = %+v", p)
	}
	if grid.BarToMs(1) != 2000 {
		t.Errorf("grid bar 1 = %d ms, want 2000", grid.BarToMs(1))
	}
}

func TestLoadRig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.yaml")
	if err := os.WriteFile(path, []byte(rigFile), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadRig(path)
	if err != nil {
		t.Fatalf("LoadRig: %v", err)
	}
	if _, ok := p.Fixture("spot_1"); !ok {
		t.Error("fixture missing after load")
	}
	if _, ok := p.Group("ALL"); !ok {
		t.Error("ALL group not populated by validation")
	}
}
