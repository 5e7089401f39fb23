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
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/AleutianAI/kwrules/services/rulegen/keyword"
)

// inodeKey uniquely identifies a file for duplicate and cycle
// detection across symlinks.
type inodeKey struct {
	dev uint64
	ino uint64
}

// getInodeKey extracts the inode key from file info.
func getInodeKey(info os.FileInfo) inodeKey {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return inodeKey{
			dev: uint64(stat.Dev),
			ino: stat.Ino,
		}
	}
	return inodeKey{}
}

// withinRoot ensures a resolved symlink target stays inside root.
//
// Returns ErrSymlinkEscape when the target's path relative to root
// climbs out of it.
func withinRoot(root, target string) error {
	var abs string
	if filepath.IsAbs(target) {
		abs = filepath.Clean(target)
	} else {
		abs = filepath.Clean(filepath.Join(root, target))
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSymlinkEscape, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s resolves to %s", ErrSymlinkEscape, target, abs)
	}
	return nil
}

// expand resolves a mix of file, directory, and symlink paths into the
// regular files to ingest, depth-first with directory entries in name
// order so a fixed input tree always yields the same file sequence.
//
// Every problem becomes one entry in the returned failure list;
// expansion continues past all of them. Files reached twice through
// links are visited once.
func expand(root string, paths []string) (files []string, failures []*IngestError) {
	work := make([]string, 0, len(paths))
	for i := len(paths) - 1; i >= 0; i-- {
		work = append(work, filepath.Clean(paths[i]))
	}

	visited := make(map[inodeKey]bool)
	for len(work) > 0 {
		path := work[len(work)-1]
		work = work[:len(work)-1]

		info, err := os.Lstat(path)
		if err != nil {
			if os.IsNotExist(err) {
				failures = append(failures, &IngestError{Path: path, Err: ErrPathNotFound})
			} else {
				failures = append(failures, &IngestError{Path: path, Err: err})
			}
			continue
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				failures = append(failures, &IngestError{Path: path, Err: err})
				continue
			}
			if err := withinRoot(root, target); err != nil {
				failures = append(failures, &IngestError{Path: path, Err: err})
				continue
			}
			targetInfo, err := os.Stat(target)
			if err != nil {
				failures = append(failures, &IngestError{Path: path, Err: err})
				continue
			}
			info = targetInfo
			path = target
		}

		key := getInodeKey(info)
		if visited[key] {
			slog.Debug("skipping already-visited path", slog.String("path", path))
			continue
		}
		visited[key] = true

		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				failures = append(failures, &IngestError{Path: path, Err: err})
				continue
			}
			// ReadDir sorts by name; push reversed so entries pop in
			// name order.
			for i := len(entries) - 1; i >= 0; i-- {
				work = append(work, filepath.Join(path, entries[i].Name()))
			}
			continue
		}

		files = append(files, path)
	}

	return files, failures
}

// Ingest expands paths and parses every keyword file found, merging
// declarations into the generator's store.
//
// # Description
//
// Non-existent paths, unreadable files, escaping symlinks, and files
// yielding zero declarations each contribute one entry to the returned
// list; the rest of the batch still ingests. Malformed lines inside a
// file are dropped, with a diagnostic when Debug is set, and never
// fail the file. An empty return means every input ingested cleanly.
//
// Ingest may be called repeatedly; later calls merge into the same
// store.
func (g *Generator) Ingest(paths ...string) []*IngestError {
	root, err := os.Getwd()
	if err != nil {
		return []*IngestError{{Path: ".", Err: err}}
	}

	files, failures := expand(root, paths)
	for _, f := range files {
		failures = append(failures, g.ingestFile(f)...)
	}

	if len(failures) > 0 {
		slog.Warn("ingestion finished with failures",
			slog.Int("files", len(files)),
			slog.Int("failures", len(failures)),
		)
	}
	return failures
}

// ingestFile parses one keyword file line by line into the store.
func (g *Generator) ingestFile(path string) []*IngestError {
	fh, err := os.Open(path)
	if err != nil {
		return []*IngestError{{Path: path, Err: fmt.Errorf("%w: %v", ErrFileUnreadable, err)}}
	}
	defer fh.Close()

	var failures []*IngestError
	declared := 0
	lineNo := 0

	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, err := keyword.Parse(line)
		if err != nil {
			if g.opts.Debug {
				slog.Debug("dropping malformed keyword line",
					slog.String("file", path),
					slog.Int("line", lineNo),
					slog.String("content", line),
					slog.String("error", err.Error()),
				)
			}
			continue
		}

		if err := g.store.Add(path, d); err != nil {
			failures = append(failures, &IngestError{Path: path, Err: err})
			continue
		}
		declared++
	}
	if err := scanner.Err(); err != nil {
		failures = append(failures, &IngestError{Path: path, Err: fmt.Errorf("%w: %v", ErrFileUnreadable, err)})
		return failures
	}

	if declared == 0 {
		failures = append(failures, &IngestError{Path: path, Err: ErrNoDeclarations})
	}
	return failures
}
