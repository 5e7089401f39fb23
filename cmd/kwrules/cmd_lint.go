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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kwrules/cmd/kwrules/config"
	"github.com/AleutianAI/kwrules/pkg/ux"
	"github.com/AleutianAI/kwrules/services/rulegen"
	"github.com/AleutianAI/kwrules/services/rulegen/lint"
)

// Exit codes for lint.
const (
	LintExitSuccess = 0
	LintExitInvalid = 1
	LintExitError   = 2
)

func runLint(cmd *cobra.Command, args []string) {
	dir, err := lintTargetDir(cmd, args)
	if err != nil {
		ux.Error(fmt.Sprintf("Invalid generator options: %v", err))
		os.Exit(LintExitError)
	}

	command := config.Global.Lint.Command
	if command == "" {
		command = lint.DefaultCommand
	}
	if cmd.Flags().Changed("command") {
		command = lintCommand
	}

	timeout := time.Duration(config.Global.Lint.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = lint.DefaultTimeout
	}
	if cmd.Flags().Changed("timeout") {
		timeout = lintTimeout
	}

	runner := lint.NewRunner(lint.WithCommand(command), lint.WithTimeout(timeout))

	var result *lint.Result
	check := func() error {
		r, checkErr := runner.Check(context.Background(), dir)
		result = r
		return checkErr
	}

	if lintJSON || quiet {
		err = check()
	} else {
		err = ux.WithSpinner(fmt.Sprintf("Running %s over %s", command, dir), check)
	}
	if err != nil {
		if !lintJSON {
			ux.Error(fmt.Sprintf("Validator could not run: %v", err))
		}
		os.Exit(LintExitError)
	}

	if lintJSON {
		outputLintJSON(result)
	} else if !quiet {
		outputLintText(result, dir)
	}

	if !result.Valid {
		os.Exit(LintExitInvalid)
	}
	os.Exit(LintExitSuccess)
}

// lintTargetDir picks the directory to validate: the positional
// argument when given, otherwise the generator's resolved output
// directory.
func lintTargetDir(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	g, err := rulegen.New(ruleOptions(cmd)...)
	if err != nil {
		return "", err
	}
	return g.Options().Dir, nil
}

func outputLintJSON(result *lint.Result) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(LintExitError)
	}
}

func outputLintText(result *lint.Result, dir string) {
	switch {
	case !result.Available:
		ux.Warning(fmt.Sprintf("%s is not installed; rules in %s were not validated",
			result.Command, dir))
	case result.Valid:
		ux.Success(fmt.Sprintf("%s accepted the rules in %s (%s)",
			result.Command, dir, result.Duration.Round(time.Millisecond)))
	default:
		ux.Error(fmt.Sprintf("%s rejected the rules in %s", result.Command, dir))
		if output := strings.TrimSpace(result.Output); output != "" {
			ux.Box("Validator diagnostics", output)
		}
	}
}
