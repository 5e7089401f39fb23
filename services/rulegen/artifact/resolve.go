// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package artifact

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadsBefore reports whether an artifact at path a is consumed before
// one at path b. Downstream consumers read generated files in byte-wise
// lexicographic path order, so candidate acceptance throughout the
// resolver uses this comparison and nothing platform-dependent.
func LoadsBefore(a, b string) bool {
	return a < b
}

// Sanitize derives the artifact name segment for a source file path:
// the extension is dropped, the remainder is upper-cased, and every
// byte outside the rule name alphabet, directory separators included,
// becomes an underscore.
func Sanitize(path string) string {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	var b strings.Builder
	b.Grow(len(stem))
	for _, r := range strings.ToUpper(stem) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// globalRulesPath resolves the cross-file rules artifact against last,
// the lexicographically-last per-file path already assigned.
//
// Fallbacks, first success wins: the canonical <priority>_<ID>.cf
// (accepted only when it sorts after last; '.' sorts before '_', so any
// per-file sibling rejects it), the same name at priority+1, then the
// canonical name with its first underscore doubled ('_' sorts after
// every digit and upper-case letter).
func (c Config) globalRulesPath(last string) (string, error) {
	canonical := c.canonicalPath()
	if last == "" || LoadsBefore(last, canonical) {
		return canonical, nil
	}
	if c.Priority < 99 {
		return filepath.Join(c.Dir, fmt.Sprintf("%02d_%s.cf", c.Priority+1, c.ID)), nil
	}
	if doubled, ok := doubleFirstUnderscore(canonical); ok && LoadsBefore(last, doubled) {
		return doubled, nil
	}
	return "", fmt.Errorf("%w: no candidate for id %q at priority %d sorts after %s",
		ErrNoGlobalPath, c.ID, c.Priority, last)
}

// globalScoresPath resolves the cross-file scores artifact relative to
// the already-resolved rules path, mirroring the rules fallbacks:
// insert _SCORES before the extension, bump the two leading priority
// digits, then double the first underscore.
func (c Config) globalScoresPath(rules, last string) (string, error) {
	scores := insertScoresSuffix(rules)
	if last == "" || LoadsBefore(last, scores) {
		return scores, nil
	}
	if bumped, ok := incrementPriority(scores); ok {
		return bumped, nil
	}
	if doubled, ok := doubleFirstUnderscore(scores); ok && LoadsBefore(last, doubled) {
		return doubled, nil
	}
	return "", fmt.Errorf("%w: no scores candidate derived from %s sorts after %s",
		ErrNoGlobalPath, rules, last)
}

// insertScoresSuffix places the literal _SCORES between a path's stem
// and extension.
func insertScoresSuffix(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ScoresSuffix + ext
}

// incrementPriority bumps the two leading priority digits of the path's
// base name by one. ok is false when the digits are missing or already
// at the 99 ceiling.
func incrementPriority(path string) (string, bool) {
	dir, base := filepath.Split(path)
	if len(base) < 2 || !isDigit(base[0]) || !isDigit(base[1]) {
		return "", false
	}
	n, err := strconv.Atoi(base[:2])
	if err != nil || n >= 99 {
		return "", false
	}
	return dir + fmt.Sprintf("%02d", n+1) + base[2:], true
}

// doubleFirstUnderscore rewrites the first underscore of the path's
// base name as two. ok is false when the name has none.
func doubleFirstUnderscore(path string) (string, bool) {
	dir, base := filepath.Split(path)
	i := strings.IndexByte(base, '_')
	if i < 0 {
		return "", false
	}
	return dir + base[:i] + "_" + base[i:], true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
