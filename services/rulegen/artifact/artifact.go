// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package artifact resolves which output file each logical rule set
// lands in.
//
// Downstream consumers read generated .cf files in lexicographic path
// order, and the cross-file GLOBAL rules reference component rules that
// per-file artifacts define. The resolver therefore has one hard job
// beyond deterministic naming: placing the GLOBAL artifacts on paths
// that sort after every per-file artifact already named, falling back
// through alternate spellings until one does.
package artifact

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Key identifies one logical artifact before path resolution.
//
// Per-file keys are the source file's path as given to ingestion; the
// cross-file rule set uses the reserved Global key. A scores artifact
// shares its rules twin's key with ScoresSuffix appended.
type Key string

const (
	// Global keys the cross-file rules artifact.
	Global Key = "GLOBAL"

	// ScoresSuffix distinguishes a scores key from its rules twin.
	ScoresSuffix = "_SCORES"
)

// GlobalScores keys the cross-file scores artifact.
const GlobalScores = Global + ScoresSuffix

// FileKey returns the rules key for one source file.
func FileKey(path string) Key { return Key(path) }

// ScoresKey returns the scores twin of a rules key.
func ScoresKey(k Key) Key { return k + ScoresSuffix }

// Config carries the naming inputs every resolved path derives from.
type Config struct {
	// Dir is the output directory all artifacts are placed in.
	Dir string

	// ID is the caller-supplied rule name-space identifier.
	ID string

	// Priority is the two-digit load-order prefix, 0 through 99.
	Priority int

	// SingleOutfile merges every per-file artifact into one shared file.
	SingleOutfile bool

	// JoinScores merges score directives into the rule artifacts
	// instead of separate _SCORES files.
	JoinScores bool
}

// canonicalPath is the plain <priority>_<ID>.cf spelling. It doubles as
// the shared path in single-outfile mode and as the first GLOBAL
// candidate otherwise.
func (c Config) canonicalPath() string {
	return filepath.Join(c.Dir, fmt.Sprintf("%02d_%s.cf", c.Priority, c.ID))
}

// Map assigns a concrete output path to every logical artifact key.
//
// # Description
//
// Per-file keys resolve incrementally as source files are ingested; the
// Global keys resolve last, once the full per-file ordering context is
// known. The map refuses to let two keys share a path unless the share
// is one of the intentional merges: single-outfile mode, or scores
// joined into their rules artifact.
//
// # Thread Safety
//
// Not safe for concurrent use. A Map belongs to one generation pass.
type Map struct {
	cfg   Config
	paths map[Key]string
	owner map[string]Key
}

// New returns an empty Map resolving against cfg.
func New(cfg Config) *Map {
	return &Map{
		cfg:   cfg,
		paths: make(map[Key]string),
		owner: make(map[string]Key),
	}
}

// ResolveFile assigns output paths for one source file's rules and
// scores artifacts. In single-outfile mode every file aliases the one
// shared path; otherwise the path derives from the sanitized file stem,
// and landing on a path another key already owns is an error.
func (m *Map) ResolveFile(src string) error {
	key := FileKey(src)
	if m.cfg.SingleOutfile {
		shared := m.cfg.canonicalPath()
		m.alias(key, shared)
		m.alias(ScoresKey(key), m.sharedScoresPath(shared))
		return nil
	}

	rules := filepath.Join(m.cfg.Dir,
		fmt.Sprintf("%02d_%s_%s.cf", m.cfg.Priority, m.cfg.ID, Sanitize(src)))
	if err := m.assign(key, rules); err != nil {
		return err
	}
	if m.cfg.JoinScores {
		m.alias(ScoresKey(key), rules)
		return nil
	}
	return m.assign(ScoresKey(key), insertScoresSuffix(rules))
}

// ResolveGlobal assigns paths for the Global and GlobalScores keys.
// Call it only after every source file has resolved: candidate
// acceptance depends on the lexicographically-last path already in the
// map.
func (m *Map) ResolveGlobal() error {
	if m.cfg.SingleOutfile {
		shared := m.cfg.canonicalPath()
		m.alias(Global, shared)
		m.alias(GlobalScores, m.sharedScoresPath(shared))
		return nil
	}

	rules, err := m.cfg.globalRulesPath(m.lastPath())
	if err != nil {
		return err
	}
	if err := m.assign(Global, rules); err != nil {
		return err
	}
	if m.cfg.JoinScores {
		m.alias(GlobalScores, rules)
		return nil
	}
	scores, err := m.cfg.globalScoresPath(rules, m.lastPath())
	if err != nil {
		return err
	}
	return m.assign(GlobalScores, scores)
}

// sharedScoresPath places the scores twin of the shared single-outfile
// artifact: the shared path itself when scores are joined, otherwise
// its _SCORES spelling.
func (m *Map) sharedScoresPath(shared string) string {
	if m.cfg.JoinScores {
		return shared
	}
	return insertScoresSuffix(shared)
}

// Path returns the resolved path for key.
func (m *Map) Path(k Key) (string, bool) {
	p, ok := m.paths[k]
	return p, ok
}

// OutputPaths returns every distinct resolved path in load order.
func (m *Map) OutputPaths() []string {
	paths := make([]string, 0, len(m.owner))
	for p := range m.owner {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return LoadsBefore(paths[i], paths[j]) })
	return paths
}

// assign binds key to path, refusing paths another key already owns.
func (m *Map) assign(key Key, path string) error {
	if prior, taken := m.owner[path]; taken {
		return fmt.Errorf("%w: %q and %q both resolve to %s",
			ErrArtifactCollision, prior, key, path)
	}
	m.owner[path] = key
	m.paths[key] = path
	return nil
}

// alias binds key to a path that is intentionally shared with other
// keys.
func (m *Map) alias(key Key, path string) {
	m.paths[key] = path
	if _, taken := m.owner[path]; !taken {
		m.owner[path] = key
	}
}

// lastPath returns the lexicographically-last path assigned so far, or
// "" while the map is empty.
func (m *Map) lastPath() string {
	var last string
	for _, p := range m.paths {
		if last == "" || LoadsBefore(last, p) {
			last = p
		}
	}
	return last
}
