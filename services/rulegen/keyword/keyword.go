// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package keyword implements the one-line declaration grammar for keyword
// list files.
//
// A declaration line has the shape
//
//	word [score] [GROUP...] [# comment]
//
// where word is the first non-numeric clause (stored lower-cased), score is
// an optional non-negative integer or decimal, every further non-numeric
// clause names a group (stored upper-cased), and everything from the first
// #-prefixed clause to end of line is a free-text comment. A line with no
// group clause belongs to the implicit LOCAL group.
//
// Blank lines and lines whose first non-space byte is '#' are not
// declarations; callers skip them before invoking Parse. Parse still fails
// cleanly on such input so it can be driven directly in tests.
package keyword

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultGroup is the implicit group a declaration belongs to when the line
// lists no groups.
const DefaultGroup = "LOCAL"

// GlobalGroup marks a word for the cross-file global rule set instead of a
// per-file group list.
const GlobalGroup = "GLOBAL"

var (
	// scorePattern accepts a bare non-negative integer or decimal clause.
	scorePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

	// tokenPattern accepts word and group clauses. The alphabet is limited
	// to what survives inside a generated rule name.
	tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Declaration is one parsed keyword line.
//
// Score 0 means "no standalone score"; an empty Comment means "no comment".
// Groups is never empty: a line without group clauses yields {DefaultGroup}.
type Declaration struct {
	// Word is the keyword, lower-cased.
	Word string

	// Score is the standalone score, or 0 when the line carried none.
	Score float64

	// Comment is the free text after the first '#' clause, or "".
	Comment string

	// Groups are the group names in listed order, upper-cased.
	Groups []string
}

// Scored reports whether the declaration carries a standalone score.
// A literal score of 0 is equivalent to omitting the score entirely.
func (d Declaration) Scored() bool {
	return d.Score > 0
}

// Canonical renders the declaration back into grammar form. Re-parsing the
// canonical line yields an identical Declaration, which is the round-trip
// property the parser tests rely on.
func (d Declaration) Canonical() string {
	var b strings.Builder
	b.WriteString(d.Word)
	if d.Scored() {
		b.WriteByte(' ')
		b.WriteString(FormatScore(d.Score))
	}
	for _, g := range d.Groups {
		b.WriteByte(' ')
		b.WriteString(g)
	}
	if d.Comment != "" {
		b.WriteString(" # ")
		b.WriteString(d.Comment)
	}
	return b.String()
}

// FormatScore renders a score without trailing zeros, the way it appears in
// generated "score" directives.
func FormatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// Parse turns one raw line into a Declaration.
//
// The whole line is rejected (no partial result) when it has no word, when a
// numeric clause precedes the word, when more than one numeric clause
// appears, or when any clause matches neither the numeric nor the wordlike
// shape. The caller owns diagnostics; the returned error carries enough
// context for a debug log line.
func Parse(line string) (Declaration, error) {
	clauses := strings.Fields(line)

	var d Declaration
	var haveScore bool
	for i, clause := range clauses {
		if strings.HasPrefix(clause, "#") {
			// Everything from here is one comment value, minus the leading
			// '#' and at most one following space.
			joined := strings.Join(clauses[i:], " ")
			d.Comment = strings.TrimPrefix(strings.TrimPrefix(joined, "#"), " ")
			break
		}
		switch {
		case scorePattern.MatchString(clause):
			if d.Word == "" {
				return Declaration{}, fmt.Errorf("%w: %q", ErrScoreBeforeWord, clause)
			}
			if haveScore {
				return Declaration{}, fmt.Errorf("%w: %q", ErrMultipleScores, clause)
			}
			s, err := strconv.ParseFloat(clause, 64)
			if err != nil {
				return Declaration{}, fmt.Errorf("%w: %q", ErrBadClause, clause)
			}
			d.Score = s
			haveScore = true
		case tokenPattern.MatchString(clause):
			if d.Word == "" {
				d.Word = strings.ToLower(clause)
			} else {
				d.Groups = append(d.Groups, strings.ToUpper(clause))
			}
		default:
			return Declaration{}, fmt.Errorf("%w: %q", ErrBadClause, clause)
		}
	}

	if d.Word == "" {
		return Declaration{}, ErrMissingWord
	}
	if len(d.Groups) == 0 {
		d.Groups = []string{DefaultGroup}
	}
	return d, nil
}
