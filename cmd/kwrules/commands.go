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
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kwrules/cmd/kwrules/config"
	"github.com/AleutianAI/kwrules/services/rulegen"
)

// --- Global Command Variables ---
var (
	configPath string
	outputMode string // UX output mode (styled/minimal/machine)
	logLevel   string
	logDir     string
	logJSON    bool
	quiet      bool

	ruleID         string
	rulePriority   int
	ruleDir        string
	singleOutfile  bool
	splitScores    bool
	globalConflict string
	debugMode      bool

	lintCommand string
	lintTimeout time.Duration
	lintJSON    bool

	watchDebounce time.Duration

	rootCmd = &cobra.Command{
		Use:   "kwrules",
		Short: "Compile keyword list files into mail-filter rule sets",
		Long: `kwrules turns plain-text keyword lists into SpamAssassin-style
rule files: matching rules per word, "at least k of these matched"
thresholds per group, and one cross-file rule set for words declared
GLOBAL. Artifact names carry a two-digit priority prefix so the
cross-file files always load after the per-file rules they reference.`,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the kwrules version",
		Run:   runVersion, // Defined in main.go
	}

	lintCmd = &cobra.Command{
		Use:   "lint [dir]",
		Short: "Validate generated rule files with the external rule engine",
		Args:  cobra.MaximumNArgs(1),
		Run:   runLint, // Defined in cmd_lint.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [path...]",
		Short: "Regenerate rules whenever the keyword sources change",
		Args:  cobra.MinimumNArgs(1),
		Run:   runWatch, // Defined in cmd_watch.go
	}

	cleanCmd = &cobra.Command{
		Use:   "clean",
		Short: "Remove generated rule artifacts from the output directory",
		Run:   runClean, // Defined in cmd_clean.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a kwrules.yaml configuration file")
	rootCmd.PersistentFlags().StringVar(&outputMode, "output", "",
		"Output style: styled (default on terminals), minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Minimum log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Directory for JSON log files (file logging disabled when empty)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Write stderr logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false,
		"Suppress stderr logging and decorative output")

	registerRuleFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)

	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().StringVar(&lintCommand, "command", "",
		"Validator binary to run (default spamassassin)")
	lintCmd.Flags().DurationVar(&lintTimeout, "timeout", 0,
		"Maximum duration for one validator run (default 60s)")
	lintCmd.Flags().BoolVar(&lintJSON, "json", false,
		"Output the validator result as JSON")

	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0,
		"Settle window before changed sources trigger a regeneration (default 250ms)")

	rootCmd.AddCommand(cleanCmd)
}

// registerRuleFlags declares the rule set identity flags shared by
// every subcommand.
func registerRuleFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&ruleID, "id", rulegen.DefaultID,
		"Name-space prefix for generated rules and artifacts")
	f.IntVar(&rulePriority, "priority", rulegen.DefaultPriority,
		"Two-digit load-order prefix, 0-99")
	f.StringVar(&ruleDir, "dir", "",
		"Output directory (default <ID>_rules)")
	f.BoolVar(&singleOutfile, "single-outfile", false,
		"Merge every artifact into one output file")
	f.BoolVar(&splitScores, "split-scores", false,
		"Write describe/score directives to separate _SCORES files")
	f.StringVar(&globalConflict, "global-conflict", "",
		"Policy when two files declare the same word GLOBAL: last or error")
	f.BoolVar(&debugMode, "debug", false,
		"Log per-line diagnostics for dropped input")
}

// ruleOptions merges the loaded config file with any rule flags set on
// cmd. Flags win over the file; the file wins over built-in defaults.
func ruleOptions(cmd *cobra.Command) []rulegen.Option {
	flags := cmd.Flags()
	rules := config.Global.Rules

	id := rulegen.DefaultID
	if rules.Id != "" {
		id = rules.Id
	}
	if flags.Changed("id") {
		id = ruleID
	}

	priority := rulegen.DefaultPriority
	if rules.Priority != 0 {
		priority = rules.Priority
	}
	if flags.Changed("priority") {
		priority = rulePriority
	}

	dir := rules.Dir
	if flags.Changed("dir") {
		dir = ruleDir
	}

	single := rules.SingleOutfile
	if flags.Changed("single-outfile") {
		single = singleOutfile
	}

	split := rules.SplitScores
	if flags.Changed("split-scores") {
		split = splitScores
	}

	conflict := rulegen.GlobalConflictLast
	if rules.GlobalConflict != "" {
		conflict = rulegen.GlobalConflictPolicy(rules.GlobalConflict)
	}
	if flags.Changed("global-conflict") {
		conflict = rulegen.GlobalConflictPolicy(globalConflict)
	}

	return []rulegen.Option{
		rulegen.WithID(id),
		rulegen.WithPriority(priority),
		rulegen.WithDir(dir),
		rulegen.WithSingleOutfile(single),
		rulegen.WithJoinScores(!split),
		rulegen.WithDebug(debugMode),
		rulegen.WithGlobalConflict(conflict),
	}
}
