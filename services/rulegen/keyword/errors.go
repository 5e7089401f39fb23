// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package keyword

import "errors"

// Sentinel errors for declaration parsing. A failed Parse never yields a
// partial Declaration; ingestion drops the line and keeps going.
var (
	// ErrMissingWord is returned for lines with no word clause, including
	// blank and comment-only lines.
	ErrMissingWord = errors.New("keyword line has no word")

	// ErrScoreBeforeWord is returned when a numeric clause appears before
	// any word clause.
	ErrScoreBeforeWord = errors.New("score clause precedes word")

	// ErrMultipleScores is returned when a line carries more than one
	// numeric clause.
	ErrMultipleScores = errors.New("more than one score clause")

	// ErrBadClause is returned when a clause matches neither the numeric
	// nor the wordlike shape.
	ErrBadClause = errors.New("unrecognized clause")
)
