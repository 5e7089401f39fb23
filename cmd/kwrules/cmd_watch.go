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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kwrules/cmd/kwrules/config"
	"github.com/AleutianAI/kwrules/pkg/ux"
	"github.com/AleutianAI/kwrules/services/rulegen"
)

func runWatch(cmd *cobra.Command, args []string) {
	// Validate the option surface once up front; the same options feed
	// every regeneration pass.
	g, err := rulegen.New(ruleOptions(cmd)...)
	if err != nil {
		ux.Error(fmt.Sprintf("Invalid generator options: %v", err))
		os.Exit(1)
	}
	outDir := g.Options().Dir

	debounce := time.Duration(config.Global.Watch.DebounceMillis) * time.Millisecond
	if cmd.Flags().Changed("debounce") {
		debounce = watchDebounce
	}
	if debounce <= 0 {
		debounce = rulegen.DefaultWatcherOptions().Debounce
	}

	// A fresh generator per pass, so deleted source files drop out of
	// the output instead of lingering in accumulated state.
	regenerate := func() {
		pass, passErr := rulegen.New(ruleOptions(cmd)...)
		if passErr != nil {
			ux.Error(fmt.Sprintf("Invalid generator options: %v", passErr))
			return
		}
		report, runErr := pass.Run(args...)
		if runErr != nil {
			ux.Error(fmt.Sprintf("Generation failed: %v", runErr))
			return
		}
		if !quiet {
			for _, failure := range report.Failures {
				ux.Warning(failure)
			}
			for _, writeErr := range report.WriteErrors {
				ux.Error(writeErr)
			}
			ux.Summary(report.Files, len(report.Artifacts),
				len(report.Failures)+len(report.WriteErrors))
		}
	}

	handler := func(changes []rulegen.SourceChange) {
		if !quiet {
			ux.Info(fmt.Sprintf("%d changed paths, regenerating", len(changes)))
		}
		regenerate()
	}

	watcher, err := rulegen.NewWatcher(args, handler, &rulegen.WatcherOptions{
		Debounce:  debounce,
		IgnoreDir: outDir,
	})
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to create watcher: %v", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regenerate()

	if err := watcher.Start(ctx); err != nil {
		ux.Error(fmt.Sprintf("Failed to start watching: %v", err))
		os.Exit(1)
	}
	defer watcher.Stop()

	if !quiet {
		ux.Info("Watching for keyword changes. Press Ctrl-C to stop.")
	}
	<-ctx.Done()

	if !quiet {
		ux.Muted("Watcher stopped")
	}
}
