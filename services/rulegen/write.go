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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/AleutianAI/kwrules/services/rulegen/artifact"
)

// Write flushes every non-empty buffer from the last generation pass,
// creating the output directory first.
//
// Writes are best-effort: a failed artifact is reported and the rest
// still write. Empty buffers produce no file. The written paths come
// back in load order.
func (g *Generator) Write() (written []string, errs []error) {
	if g.buffers == nil {
		return nil, []error{ErrNotGenerated}
	}
	if err := os.MkdirAll(g.opts.Dir, 0755); err != nil {
		return nil, []error{fmt.Errorf("creating output directory %s: %w", g.opts.Dir, err)}
	}

	paths := make([]string, 0, len(g.buffers))
	for p := range g.buffers {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return artifact.LoadsBefore(paths[i], paths[j]) })

	for _, path := range paths {
		buf := g.buffers[path]
		if buf.Len() == 0 {
			continue
		}
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			errs = append(errs, fmt.Errorf("writing %s: %w", path, err))
			continue
		}
		written = append(written, path)
		slog.Info("wrote rule artifact",
			slog.String("path", path),
			slog.Int("lines", buf.Len()),
		)
	}
	return written, errs
}

// Clean removes this generator's artifacts from the output directory:
// files carrying a two-digit priority prefix and the configured id,
// including the doubled-underscore cross-file spelling. Anything else
// in the directory stays.
func (g *Generator) Clean() error {
	patterns := []string{
		fmt.Sprintf("[0-9][0-9]_%s*.cf", g.opts.ID),
		fmt.Sprintf("[0-9][0-9]__%s*.cf", g.opts.ID),
	}

	removed := 0
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(g.opts.Dir, pattern))
		if err != nil {
			return fmt.Errorf("globbing %s: %w", pattern, err)
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				return fmt.Errorf("removing %s: %w", m, err)
			}
			removed++
		}
	}

	slog.Info("cleaned generated artifacts",
		slog.String("dir", g.opts.Dir),
		slog.Int("removed", removed),
	)
	return nil
}
