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
	"sort"

	"github.com/AleutianAI/kwrules/services/rulegen/keyword"
)

// FileRuleSet aggregates the declarations parsed from one source file.
//
// Group lists, standalone scores, and comments are held in separate
// fields rather than reserved pseudo-group keys, so iterating groups
// can never mistake metadata for a word list.
type FileRuleSet struct {
	// Source is the cleaned path the declarations came from.
	Source string

	// groups maps group name to its words in first-appearance order.
	// Duplicate declarations of a word within one group are kept as
	// declared. The GLOBAL group is never stored here.
	groups map[string][]string

	// scores holds the last non-zero standalone score per word.
	scores map[string]float64

	// comments holds the last non-empty comment per word.
	comments map[string]string
}

func newFileRuleSet(source string) *FileRuleSet {
	return &FileRuleSet{
		Source:   source,
		groups:   make(map[string][]string),
		scores:   make(map[string]float64),
		comments: make(map[string]string),
	}
}

// addGroupWord appends word to the named group's list.
func (f *FileRuleSet) addGroupWord(group, word string) {
	f.groups[group] = append(f.groups[group], word)
}

// recordMeta merges a declaration's score and comment. A declaration
// without a score (or comment) leaves an earlier one in place; scores
// of zero mean "no score" everywhere downstream, so they never clear
// anything.
func (f *FileRuleSet) recordMeta(d keyword.Declaration) {
	if d.Scored() {
		f.scores[d.Word] = d.Score
	}
	if d.Comment != "" {
		f.comments[d.Word] = d.Comment
	}
}

// GroupNames returns the file's group names sorted for deterministic
// iteration.
func (f *FileRuleSet) GroupNames() []string {
	names := make([]string, 0, len(f.groups))
	for name := range f.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupWords returns the named group's words in declared order.
func (f *FileRuleSet) GroupWords(group string) []string {
	return f.groups[group]
}

// Score returns the word's standalone score, or 0 when it has none.
func (f *FileRuleSet) Score(word string) float64 {
	return f.scores[word]
}

// Comment returns the word's recorded comment, or "".
func (f *FileRuleSet) Comment(word string) string {
	return f.comments[word]
}

// ScoredWords returns the words carrying a standalone score, sorted.
func (f *FileRuleSet) ScoredWords() []string {
	words := make([]string, 0, len(f.scores))
	for w := range f.scores {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Declarations counts the words reachable through this file's group
// lists and score map.
func (f *FileRuleSet) Declarations() int {
	n := len(f.scores)
	for _, words := range f.groups {
		n += len(words)
	}
	return n
}

// Store aggregates parsed declarations across every ingested file,
// plus the cross-file index of words declared GLOBAL.
//
// # Thread Safety
//
// Not safe for concurrent use. A Store belongs to one Generator.
type Store struct {
	files    map[string]*FileRuleSet
	global   map[string]string
	conflict GlobalConflictPolicy
}

// NewStore returns an empty Store using the given conflict policy.
func NewStore(conflict GlobalConflictPolicy) *Store {
	return &Store{
		files:    make(map[string]*FileRuleSet),
		global:   make(map[string]string),
		conflict: conflict,
	}
}

// File returns the rule set for path, creating it on first use.
// Re-ingesting a path merges into the same set.
func (s *Store) File(path string) *FileRuleSet {
	f, ok := s.files[path]
	if !ok {
		f = newFileRuleSet(path)
		s.files[path] = f
	}
	return f
}

// Files returns the ingested paths sorted lexicographically. Sorted
// iteration keeps generation output reproducible for a fixed input
// set.
func (s *Store) Files() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Add merges one declaration from path into the store. GLOBAL group
// listings update the cross-file index instead of the file's own
// groups. Under GlobalConflictError a second origin for a word rejects
// the whole line before anything merges.
func (s *Store) Add(path string, d keyword.Declaration) error {
	if s.conflict == GlobalConflictError {
		for _, g := range d.Groups {
			if g != keyword.GlobalGroup {
				continue
			}
			if prior, ok := s.global[d.Word]; ok && prior != path {
				return fmt.Errorf("%w: %q in %s and %s", ErrGlobalConflict, d.Word, prior, path)
			}
		}
	}

	f := s.File(path)
	f.recordMeta(d)
	for _, g := range d.Groups {
		if g == keyword.GlobalGroup {
			s.global[d.Word] = path
		} else {
			f.addGroupWord(g, d.Word)
		}
	}
	return nil
}

// GlobalWords returns every word in the cross-file index, sorted.
func (s *Store) GlobalWords() []string {
	words := make([]string, 0, len(s.global))
	for w := range s.global {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// GlobalOrigin returns the file a GLOBAL word's component rules live
// in.
func (s *Store) GlobalOrigin(word string) (string, bool) {
	path, ok := s.global[word]
	return path, ok
}

// ComponentWords returns every distinct word file must define component
// rules for, sorted: the union of its group lists, its scored words,
// and the GLOBAL words originating from it. A word reachable through
// several groups appears once.
func (s *Store) ComponentWords(f *FileRuleSet) []string {
	seen := make(map[string]bool)
	for _, words := range f.groups {
		for _, w := range words {
			seen[w] = true
		}
	}
	for w := range f.scores {
		seen[w] = true
	}
	for w, origin := range s.global {
		if origin == f.Source {
			seen[w] = true
		}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
