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
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions is returned when generator options fail
	// validation.
	ErrInvalidOptions = errors.New("invalid generator options")

	// ErrPathNotFound is returned for an input path that does not
	// exist.
	ErrPathNotFound = errors.New("path does not exist")

	// ErrFileUnreadable is returned when an input file cannot be
	// opened or read.
	ErrFileUnreadable = errors.New("failed to read file")

	// ErrSymlinkEscape is returned for a symlink whose target resolves
	// outside the working root.
	ErrSymlinkEscape = errors.New("symlink escapes working root")

	// ErrNoDeclarations is returned when a keyword file yields no
	// valid declaration lines.
	ErrNoDeclarations = errors.New("no rules found")

	// ErrGlobalConflict is returned when two files declare the same
	// word GLOBAL and the conflict policy is GlobalConflictError.
	ErrGlobalConflict = errors.New("word declared GLOBAL in multiple files")

	// ErrNotGenerated is returned when output is requested before a
	// generation pass has run.
	ErrNotGenerated = errors.New("no generation pass has run")
)

// IngestError describes one problem encountered while expanding and
// parsing input paths. Ingestion continues past these; callers inspect
// the collected list and decide whether the batch proceeds.
type IngestError struct {
	// Path is the input path the problem occurred on.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *IngestError) Unwrap() error {
	return e.Err
}
