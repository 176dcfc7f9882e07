// Rendering pipeline - drives the whole compilation per section/fixture
//
// The compiler validates the plan, schedules every section's template,
// assembles the exploded timeline, renders each fixture's segments into
// channel output and resolves every gap. Structural errors abort the
// run; per-instruction resolution failures are logged, recorded as
// diagnostics and skipped, and the rest of the run proceeds.
//
// Per-fixture work is independent and runs on a bounded worker group;
// within one fixture segments are processed in increasing start-time
// order because each gap's resolution depends on the already-rendered
// neighboring effect's anchors.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package render

import (
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"

	"showcompiler-go/pkg/curve"
	"showcompiler-go/pkg/dmx"
	"showcompiler-go/pkg/errors"
	"showcompiler-go/pkg/log"
	"showcompiler-go/pkg/physics"
	"showcompiler-go/pkg/plan"
	"showcompiler-go/pkg/resolver"
	"showcompiler-go/pkg/rig"
	"showcompiler-go/pkg/scheduler"
	"showcompiler-go/pkg/template"
	"showcompiler-go/pkg/timeline"
)

// TemplateSource loads templates by id. Implemented by the library
// loader; a map-backed source is enough for tests.
type TemplateSource interface {
	Get(id string) (*template.Template, error)
}

// Options tune the pipeline.
type Options struct {
	// SampleCount overrides the per-curve sample count (default 32).
	SampleCount int

	// Workers bounds the per-fixture render parallelism.
	// Zero means one worker per CPU.
	Workers int

	// Physics enables the advisory motion validator.
	Physics bool
}

// Diagnostic records one skipped instruction.
type Diagnostic struct {
	Code        errors.ErrorCode
	SectionName string
	TemplateID  string
	StepID      string
	FixtureID   string
	Channel     string
	Reason      string
}

// Result is the complete output of one compilation run.
type Result struct {
	RunID    string
	Segments []dmx.ChannelSegment
	Skipped  []Diagnostic
	Warnings []physics.Warning
}

// Compiler is the top-level orchestrator.
type Compiler struct {
	Rig       *rig.Profile
	Templates TemplateSource
	Grid      *plan.BeatGrid
	Catalog   *curve.Catalog

	Geometry *resolver.GeometryRegistry
	Movement *resolver.MovementRegistry
	Dimmer   *resolver.DimmerRegistry

	Opts Options

	log *log.Logger
}

// NewCompiler wires the standard catalog and registries.
func NewCompiler(profile *rig.Profile, templates TemplateSource, grid *plan.BeatGrid, opts Options) *Compiler {
	catalog := curve.NewCatalog()
	return &Compiler{
		Rig:       profile,
		Templates: templates,
		Grid:      grid,
		Catalog:   catalog,
		Geometry:  resolver.NewGeometryRegistry(),
		Movement:  resolver.NewMovementRegistry(catalog),
		Dimmer:    resolver.NewDimmerRegistry(catalog),
		Opts:      opts,
		log:       log.New("render"),
	}
}

// Compile runs the full pipeline for one plan.
func (c *Compiler) Compile(p *plan.Plan) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := c.Grid.Validate(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}

	sched := scheduler.New(c.Grid, c.Rig)
	var instances []scheduler.StepInstance
	sections := make([]timeline.SectionSpan, 0, len(p.Sections))
	// Keyed by section index: names may repeat across a song.
	ctxs := make(map[int]*sectionContext, len(p.Sections))

	for idx, section := range p.Sections {
		tmpl, err := c.Templates.Get(section.TemplateID)
		if err != nil {
			return nil, err
		}
		preset, err := tmpl.PresetByID(section.PresetID)
		if err != nil {
			return nil, err
		}
		ctxs[idx] = &sectionContext{
			tmpl:   tmpl,
			preset: preset,
			params: section.Params,
		}

		insts, skips, err := sched.Schedule(tmpl, section)
		if err != nil {
			return nil, err
		}
		for i := range insts {
			insts[i].SectionIndex = idx
		}
		for _, sk := range skips {
			result.Skipped = append(result.Skipped, diagnosticFor(sk.Err, Diagnostic{
				SectionName: section.Name,
				TemplateID:  section.TemplateID,
				StepID:      sk.StepID,
			}))
		}
		instances = append(instances, insts...)

		sections = append(sections, timeline.SectionSpan{
			Name:    section.Name,
			StartMs: c.Grid.BarToMs(section.StartBar),
			EndMs:   c.Grid.BarToMs(section.EndBar),
		})
	}

	songEndMs := c.Grid.BarToMs(p.EndBar())
	tl, err := timeline.Assemble(instances, sections, songEndMs)
	if err != nil {
		return nil, err
	}

	fixtures := tl.Fixtures()
	workers := c.Opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(fixtures) {
		workers = len(fixtures)
	}
	if workers < 1 {
		workers = 1
	}

	type fixtureOutput struct {
		segments []dmx.ChannelSegment
		skipped  []Diagnostic
		warnings []physics.Warning
	}
	outputs := make(map[string]*fixtureOutput, len(fixtures))
	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan string)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fid := range work {
				fr := c.renderFixture(fid, tl.PerFixture[fid], ctxs)
				mu.Lock()
				outputs[fid] = &fixtureOutput{
					segments: fr.segments,
					skipped:  fr.skipped,
					warnings: fr.warnings,
				}
				mu.Unlock()
			}
		}()
	}
	for _, fid := range fixtures {
		work <- fid
	}
	close(work)
	wg.Wait()

	// Merge in sorted fixture order for deterministic output.
	for _, fid := range fixtures {
		out := outputs[fid]
		result.Segments = append(result.Segments, out.segments...)
		result.Skipped = append(result.Skipped, out.skipped...)
		result.Warnings = append(result.Warnings, out.warnings...)
	}

	sort.SliceStable(result.Segments, func(i, j int) bool {
		a, b := &result.Segments[i], &result.Segments[j]
		if a.FixtureID != b.FixtureID {
			return a.FixtureID < b.FixtureID
		}
		if a.StartMs != b.StartMs {
			return a.StartMs < b.StartMs
		}
		return a.Channel < b.Channel
	})

	c.log.InfoFields("compilation finished", log.Fields{
		"run_id":   result.RunID,
		"segments": len(result.Segments),
		"skipped":  len(result.Skipped),
		"warnings": len(result.Warnings),
	})
	return result, nil
}

// diagnosticFor shapes a resolution error into a diagnostic record.
func diagnosticFor(err error, base Diagnostic) Diagnostic {
	if showErr, ok := err.(*errors.ShowError); ok {
		base.Code = showErr.Code
		base.Reason = showErr.Message
		if showErr.Fixture != "" {
			base.FixtureID = showErr.Fixture
		}
	} else {
		base.Code = errors.ErrTargetUnresolved
		base.Reason = err.Error()
	}
	return base
}
