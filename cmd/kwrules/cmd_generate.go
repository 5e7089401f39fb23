// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kwrules/pkg/ux"
	"github.com/AleutianAI/kwrules/services/rulegen"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Exit codes for generate.
const (
	GenerateExitSuccess  = 0
	GenerateExitFailures = 1
	GenerateExitError    = 2
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	generateJSON  bool
	generateClean bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate [path...]",
	Short: "Compile keyword list files into rule artifacts",
	Long: `Compile keyword list files, or directories of them, into
SpamAssassin-style rule files.

Every word in a list yields a body rule, a Subject header rule, and a
meta rule combining the two. Every group yields "at least k of these
matched" threshold rules, and words declared GLOBAL feed one
cross-file rule set whose artifact always loads last.

Examples:
  kwrules generate lists/
  kwrules generate spam.txt ham.txt --id Spam --priority 10
  kwrules generate lists/ --single-outfile --quiet --json

Exit Codes:
  0 = All inputs compiled and written
  1 = Completed with per-file ingestion or write failures
  2 = Error (invalid options, artifact naming failure)`,
	Args: cobra.MinimumNArgs(1),
	Run:  runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&generateJSON, "json", false,
		"Output the run report as JSON")
	generateCmd.Flags().BoolVar(&generateClean, "clean", false,
		"Remove previously generated artifacts before writing")

	rootCmd.AddCommand(generateCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runGenerate(cmd *cobra.Command, args []string) {
	g, err := rulegen.New(ruleOptions(cmd)...)
	if err != nil {
		outputGenerateError("Invalid generator options", err)
		os.Exit(GenerateExitError)
	}

	if generateClean {
		if err := g.Clean(); err != nil {
			outputGenerateError("Failed to clean old artifacts", err)
			os.Exit(GenerateExitError)
		}
	}

	var report *rulegen.Report
	run := func() error {
		r, runErr := g.Run(args...)
		report = r
		return runErr
	}

	if generateJSON || quiet {
		err = run()
	} else {
		err = ux.WithSpinner("Compiling keyword lists", run)
	}
	if err != nil {
		outputGenerateError("Generation failed", err)
		os.Exit(GenerateExitError)
	}

	if generateJSON {
		outputGenerateJSON(report)
	} else if !quiet {
		outputGenerateText(report)
	}

	if !report.Clean() {
		os.Exit(GenerateExitFailures)
	}
	os.Exit(GenerateExitSuccess)
}

// =============================================================================
// OUTPUT FUNCTIONS
// =============================================================================

func outputGenerateError(msg string, err error) {
	if generateJSON {
		result := map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("%s: %v", msg, err),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		ux.Error(fmt.Sprintf("%s: %v", msg, err))
	}
}

func outputGenerateJSON(report *rulegen.Report) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(GenerateExitError)
	}
}

func outputGenerateText(report *rulegen.Report) {
	ux.Title("Keyword rule generation")
	for _, failure := range report.Failures {
		ux.Warning(failure)
	}
	for _, writeErr := range report.WriteErrors {
		ux.Error(writeErr)
	}
	for _, path := range report.Artifacts {
		ux.ArtifactStatus(path, ux.IconSuccess, artifactDetail(path))
	}
	ux.Summary(report.Files, len(report.Artifacts),
		len(report.Failures)+len(report.WriteErrors))
}

// artifactDetail renders the line count of one written artifact.
func artifactDetail(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d lines", bytes.Count(data, []byte("\n")))
}
