// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rulegen turns human-authored keyword list files into
// generated rule files for a mail-filtering engine.
//
// Each input file contributes name-spaced body/header/meta directives
// plus per-group threshold rules ("at least k of these words
// matched"), and words declared GLOBAL feed one cross-file rule set
// whose metas reference component rules defined by their origin files.
// Output naming guarantees the cross-file artifacts load after every
// per-file artifact they reference.
package rulegen

import (
	"strings"

	"github.com/AleutianAI/kwrules/services/rulegen/artifact"
)

// Buffer accumulates generated directive lines for one output path.
//
// Logical artifacts that alias one path (single-outfile mode, joined
// scores) share one Buffer, so their writes interleave in generation
// order instead of overwriting each other.
type Buffer struct {
	lines []string
}

// Add appends lines to the buffer.
func (b *Buffer) Add(lines ...string) {
	b.lines = append(b.lines, lines...)
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Lines returns the buffered lines in write order.
func (b *Buffer) Lines() []string {
	return b.lines
}

// Bytes renders the buffer as newline-terminated file content. An
// empty buffer renders to nil.
func (b *Buffer) Bytes() []byte {
	if len(b.lines) == 0 {
		return nil
	}
	return []byte(strings.Join(b.lines, "\n") + "\n")
}

// Generator turns ingested keyword declarations into rule artifacts.
//
// # Description
//
// The lifecycle is New → Ingest (repeatable) → Generate → Write →
// optional Clean. Generate builds a fresh artifact map and fresh
// output buffers every time it runs; ingested declarations persist
// across passes, so re-generating after further ingestion is cheap and
// re-running an identical batch is idempotent.
//
// # Thread Safety
//
// Not safe for concurrent use. One Generator serves one batch at a
// time.
type Generator struct {
	opts  Options
	store *Store

	// artifacts and buffers hold the current generation pass and are
	// replaced wholesale by Generate.
	artifacts *artifact.Map
	buffers   map[string]*Buffer
}

// New creates a Generator from the default options overlaid with opts.
func New(opts ...Option) (*Generator, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		opts:  o,
		store: NewStore(o.GlobalConflict),
	}, nil
}

// Options returns a copy of the generator's effective options.
func (g *Generator) Options() Options {
	return g.opts
}

// Generate resolves every artifact path and fills the output buffers
// from the current store contents.
//
// Naming failures (two sources colliding on one path, no acceptable
// cross-file path) abort the pass with nothing buffered; ingestion
// state is untouched and a caller can fix the configuration and
// generate again.
func (g *Generator) Generate() error {
	m := artifact.New(artifact.Config{
		Dir:           g.opts.Dir,
		ID:            g.opts.ID,
		Priority:      g.opts.Priority,
		SingleOutfile: g.opts.SingleOutfile,
		JoinScores:    g.opts.JoinScores,
	})

	files := g.store.Files()
	for _, f := range files {
		if err := m.ResolveFile(f); err != nil {
			return err
		}
	}
	if err := m.ResolveGlobal(); err != nil {
		return err
	}

	g.artifacts = m
	g.buffers = make(map[string]*Buffer)

	for _, f := range files {
		key := artifact.FileKey(f)
		g.emitFile(g.store.files[f], g.buffer(key), g.buffer(artifact.ScoresKey(key)))
	}
	g.emitGlobal(g.buffer(artifact.Global), g.buffer(artifact.GlobalScores))
	return nil
}

// buffer returns the shared buffer for a key's resolved path, creating
// it on first use. Generate resolves every key before any emission, so
// the lookup cannot miss.
func (g *Generator) buffer(k artifact.Key) *Buffer {
	path, _ := g.artifacts.Path(k)
	b, ok := g.buffers[path]
	if !ok {
		b = &Buffer{}
		g.buffers[path] = b
	}
	return b
}

// BufferFor returns the buffer holding the named key's generated
// lines, if a generation pass has run.
func (g *Generator) BufferFor(k artifact.Key) (*Buffer, bool) {
	if g.artifacts == nil {
		return nil, false
	}
	path, ok := g.artifacts.Path(k)
	if !ok {
		return nil, false
	}
	b, ok := g.buffers[path]
	return b, ok
}

// ArtifactPath returns the resolved output path for a logical key, if
// a generation pass has run.
func (g *Generator) ArtifactPath(k artifact.Key) (string, bool) {
	if g.artifacts == nil {
		return "", false
	}
	return g.artifacts.Path(k)
}
