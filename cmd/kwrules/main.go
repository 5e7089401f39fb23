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
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kwrules/cmd/kwrules/config"
	"github.com/AleutianAI/kwrules/pkg/logging"
	"github.com/AleutianAI/kwrules/pkg/ux"
)

// version is stamped by the release build; "dev" marks local builds.
var version = "dev"

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if err := config.Load(configPath); err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}
		initLogging(cmd)
		initOutputMode()
	}
}

// initLogging wires the process-wide slog default from flags and the
// config file. Flags win where both are set.
func initLogging(cmd *cobra.Command) {
	levelStr := config.Global.Logging.Level
	if cmd.Flags().Changed("log-level") {
		levelStr = logLevel
	}
	level := logging.LevelInfo
	if levelStr != "" {
		parsed, err := logging.ParseLevel(levelStr)
		if err != nil {
			log.Fatalf("Invalid log level: %v", err)
		}
		level = parsed
	}

	dir := config.Global.Logging.Dir
	if cmd.Flags().Changed("log-dir") {
		dir = logDir
	}

	logging.New(logging.Config{
		Level:   level,
		LogDir:  dir,
		Service: "kwrules",
		JSON:    logJSON || config.Global.Logging.JSON,
		Quiet:   quiet,
	}).SetDefault()
}

// initOutputMode applies the --output flag, falling back to terminal
// detection and NO_COLOR.
func initOutputMode() {
	if outputMode != "" {
		ux.SetMode(ux.ParseMode(outputMode))
		return
	}
	ux.InitMode()
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("kwrules %s\n", version)
}
