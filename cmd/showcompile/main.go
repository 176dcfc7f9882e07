// showcompile compiles a choreography plan into a DMX channel timeline.
// It loads a rig profile, a template library and a show file (beat grid
// plus section plan), runs the full compilation pipeline and writes the
// resulting channel segments as JSON.
//
// Usage:
//
//	showcompile -rig rig.yaml -show show.yaml -templates ./templates [options]
//
// Options:
//
//	-rig string        Rig profile file (required)
//	-show string       Show file with beat grid and plan (required)
//	-templates string  Template library directory (required)
//	-out string        Output file (default: stdout)
//	-samples int       Samples per curve (default 32)
//	-workers int       Render workers (default: one per CPU)
//	-physics           Enable the advisory physics validator
//	-trace             Enable debug tracing
//
// Examples:
//
//	# Compile a show to stdout
//	showcompile -rig rig.yaml -show show.yaml -templates ./templates
//
//	# Compile with physics checks into a file
//	showcompile -rig rig.yaml -show show.yaml -templates ./templates -physics -out out.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"showcompiler-go/pkg/library"
	"showcompiler-go/pkg/log"
	"showcompiler-go/pkg/render"
)

func main() {
	rigFile := flag.String("rig", "", "Rig profile file (required)")
	showFile := flag.String("show", "", "Show file with beat grid and plan (required)")
	templateDir := flag.String("templates", "", "Template library directory (required)")
	outFile := flag.String("out", "", "Output file (default: stdout)")
	samples := flag.Int("samples", 0, "Samples per curve (default 32)")
	workers := flag.Int("workers", 0, "Render workers (default: one per CPU)")
	physics := flag.Bool("physics", false, "Enable the advisory physics validator")
	trace := flag.Bool("trace", false, "Enable debug tracing")

	flag.Parse()

	if *rigFile == "" || *showFile == "" || *templateDir == "" {
		fmt.Fprintf(os.Stderr, "Error: -rig, -show and -templates are required\n")
		flag.Usage()
		os.Exit(1)
	}

	logger := log.Default()
	if *trace {
		logger.SetLevel(log.DEBUG)
	}

	profile, err := library.LoadRig(*rigFile)
	if err != nil {
		fatal("loading rig profile", err)
	}

	p, grid, err := library.LoadShow(*showFile)
	if err != nil {
		fatal("loading show file", err)
	}

	lib, err := library.Open(*templateDir)
	if err != nil {
		fatal("opening template library", err)
	}

	compiler := render.NewCompiler(profile, lib, grid, render.Options{
		SampleCount: *samples,
		Workers:     *workers,
		Physics:     *physics,
	})

	result, err := compiler.Compile(p)
	if err != nil {
		fatal("compilation failed", err)
	}

	for i := range result.Warnings {
		w := &result.Warnings[i]
		logger.WarnFields(w.Message, log.Fields{
			"code":    string(w.Code),
			"fixture": w.FixtureID,
			"channel": w.Channel,
			"at_ms":   w.AtMs,
		})
	}

	out := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatal("creating output file", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fatal("writing output", err)
	}

	logger.InfoFields("done", log.Fields{
		"run_id":   result.RunID,
		"segments": len(result.Segments),
		"skipped":  len(result.Skipped),
		"warnings": len(result.Warnings),
	})
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	os.Exit(1)
}
