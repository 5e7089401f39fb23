// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rulegen

import (
	"time"

	"github.com/google/uuid"
)

// Report summarizes one end-to-end generation run for logs, the CLI,
// and JSON consumers.
type Report struct {
	// RunID is a fresh UUID identifying this run in logs and audits.
	RunID string `json:"run_id"`

	// ID is the rule name-space the run generated under.
	ID string `json:"id"`

	// OutputDir is the directory artifacts were written to.
	OutputDir string `json:"output_dir"`

	// Files is the number of source files that contributed rules.
	Files int `json:"files"`

	// GlobalWords is the size of the cross-file rule set.
	GlobalWords int `json:"global_words"`

	// Artifacts are the written output paths in load order.
	Artifacts []string `json:"artifacts,omitempty"`

	// Failures are per-path ingestion problems, one line each.
	Failures []string `json:"failures,omitempty"`

	// WriteErrors are per-artifact write problems, one line each.
	WriteErrors []string `json:"write_errors,omitempty"`

	// DurationMilli is the wall time of the run in milliseconds.
	DurationMilli int64 `json:"duration_milli"`
}

// Clean reports whether the run finished without ingestion or write
// problems.
func (r *Report) Clean() bool {
	return len(r.Failures) == 0 && len(r.WriteErrors) == 0
}

// Run executes a full ingest → generate → write pass over paths.
//
// The returned error is a fatal naming failure; everything survivable
// (per-path ingestion problems, per-artifact write problems) rides in
// the report instead. The report is non-nil either way.
func (g *Generator) Run(paths ...string) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		ID:        g.opts.ID,
		OutputDir: g.opts.Dir,
	}

	for _, f := range g.Ingest(paths...) {
		report.Failures = append(report.Failures, f.Error())
	}
	report.Files = len(g.store.Files())
	report.GlobalWords = len(g.store.GlobalWords())

	if err := g.Generate(); err != nil {
		report.DurationMilli = time.Since(start).Milliseconds()
		return report, err
	}

	written, errs := g.Write()
	report.Artifacts = written
	for _, err := range errs {
		report.WriteErrors = append(report.WriteErrors, err.Error())
	}

	report.DurationMilli = time.Since(start).Milliseconds()
	return report, nil
}
