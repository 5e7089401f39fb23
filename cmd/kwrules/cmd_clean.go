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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kwrules/pkg/ux"
	"github.com/AleutianAI/kwrules/services/rulegen"
)

func runClean(cmd *cobra.Command, args []string) {
	g, err := rulegen.New(ruleOptions(cmd)...)
	if err != nil {
		ux.Error(fmt.Sprintf("Invalid generator options: %v", err))
		os.Exit(1)
	}

	if err := g.Clean(); err != nil {
		ux.Error(fmt.Sprintf("Clean failed: %v", err))
		os.Exit(1)
	}

	if !quiet {
		ux.Success("Removed generated artifacts from " + g.Options().Dir)
	}
}
