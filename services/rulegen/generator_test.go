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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/AleutianAI/kwrules/services/rulegen/artifact"
)

func addLine(t *testing.T, g *Generator, path, line string) {
	t.Helper()
	if err := g.store.Add(path, mustParse(t, line)); err != nil {
		t.Fatalf("Add(%q, %q): %v", path, line, err)
	}
}

func bufferLines(t *testing.T, g *Generator, k artifact.Key) []string {
	t.Helper()
	b, ok := g.BufferFor(k)
	if !ok {
		t.Fatalf("BufferFor(%q): no buffer", k)
	}
	return b.Lines()
}

func TestGenerator_Generate_JoinedOutput(t *testing.T) {
	tmpDir := t.TempDir()
	chdir(t, tmpDir)
	writeKeywordFile(t, "spam.txt", "# Example keyword list\n\nword\nanother 2\nfinal group LOCAL\n")

	g := newTestGenerator(t, WithDir("out"))
	if failures := g.Ingest("spam.txt"); len(failures) != 0 {
		t.Fatalf("Ingest: %v", failures)
	}
	if err := g.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if path, _ := g.ArtifactPath(artifact.FileKey("spam.txt")); path != filepath.Join("out", "50_KW_SPAM.cf") {
		t.Errorf("rules path = %s", path)
	}

	want := []string{
		"# KW rules generated from spam.txt",
		`body __KW_SPAM_ANOTHER_BODY /\banother\b/i`,
		`header __KW_SPAM_ANOTHER_SUBJ Subject =~ /\banother\b/i`,
		"meta __KW_SPAM_ANOTHER (__KW_SPAM_ANOTHER_BODY || __KW_SPAM_ANOTHER_SUBJ)",
		`body __KW_SPAM_FINAL_BODY /\bfinal\b/i`,
		`header __KW_SPAM_FINAL_SUBJ Subject =~ /\bfinal\b/i`,
		"meta __KW_SPAM_FINAL (__KW_SPAM_FINAL_BODY || __KW_SPAM_FINAL_SUBJ)",
		`body __KW_SPAM_WORD_BODY /\bword\b/i`,
		`header __KW_SPAM_WORD_SUBJ Subject =~ /\bword\b/i`,
		"meta __KW_SPAM_WORD (__KW_SPAM_WORD_BODY || __KW_SPAM_WORD_SUBJ)",
		"meta KW_SPAM_ANOTHER (__KW_SPAM_ANOTHER)",
		"describe KW_SPAM_ANOTHER Keyword another found",
		"score KW_SPAM_ANOTHER 2",
		"meta KW_SPAM_GROUP_1 ((__KW_SPAM_FINAL) >= 1)",
		"describe KW_SPAM_GROUP_1 At least 1 GROUP keywords from spam.txt",
		"score KW_SPAM_GROUP_1 0.01",
		"meta KW_SPAM_1 ((__KW_SPAM_WORD + __KW_SPAM_ANOTHER + __KW_SPAM_FINAL) >= 1)",
		"describe KW_SPAM_1 At least 1 keywords from spam.txt",
		"score KW_SPAM_1 0.01",
		"meta KW_SPAM_2 ((__KW_SPAM_WORD + __KW_SPAM_ANOTHER + __KW_SPAM_FINAL) >= 2)",
		"describe KW_SPAM_2 At least 2 keywords from spam.txt",
		"score KW_SPAM_2 0.01",
		"meta KW_SPAM_3 ((__KW_SPAM_WORD + __KW_SPAM_ANOTHER + __KW_SPAM_FINAL) >= 3)",
		"describe KW_SPAM_3 At least 3 keywords from spam.txt",
		"score KW_SPAM_3 0.01",
	}
	got := bufferLines(t, g, artifact.FileKey("spam.txt"))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buffer mismatch\ngot:\n%s\nwant:\n%s",
			strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	// Joined scores share the rules buffer.
	rules, _ := g.BufferFor(artifact.FileKey("spam.txt"))
	scores, _ := g.BufferFor(artifact.ScoresKey(artifact.FileKey("spam.txt")))
	if rules != scores {
		t.Error("joined scores should share the rules buffer")
	}

	// No GLOBAL words, so the cross-file buffer stays empty.
	if global, ok := g.BufferFor(artifact.Global); !ok || global.Len() != 0 {
		t.Errorf("global buffer Len = %d, want 0", global.Len())
	}
}

func TestGenerator_Generate_SplitScores(t *testing.T) {
	g := newTestGenerator(t, WithDir("out"), WithJoinScores(false))
	addLine(t, g, "spam.txt", "word")
	addLine(t, g, "spam.txt", "another 2 # paid keyword")
	if err := g.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	key := artifact.FileKey("spam.txt")
	if path, _ := g.ArtifactPath(artifact.ScoresKey(key)); path != filepath.Join("out", "50_KW_SPAM_SCORES.cf") {
		t.Errorf("scores path = %s", path)
	}

	rules, _ := g.BufferFor(key)
	scores, _ := g.BufferFor(artifact.ScoresKey(key))
	if rules == scores {
		t.Fatal("split scores should not share the rules buffer")
	}

	for _, line := range rules.Lines() {
		if strings.HasPrefix(line, "describe ") || strings.HasPrefix(line, "score ") {
			t.Errorf("rules buffer carries a scores directive: %s", line)
		}
	}

	wantScores := []string{
		"# KW scores generated from spam.txt",
		"describe KW_SPAM_ANOTHER paid keyword",
		"score KW_SPAM_ANOTHER 2",
		"describe KW_SPAM_1 At least 1 keywords from spam.txt",
		"score KW_SPAM_1 0.01",
		"describe KW_SPAM_2 At least 2 keywords from spam.txt",
		"score KW_SPAM_2 0.01",
	}
	if got := scores.Lines(); !reflect.DeepEqual(got, wantScores) {
		t.Errorf("scores buffer = %v, want %v", got, wantScores)
	}
}

func TestGenerator_Generate_CrossFileGlobal(t *testing.T) {
	g := newTestGenerator(t, WithDir("out"))
	addLine(t, g, "a.txt", "alpha")
	addLine(t, g, "a.txt", "shared GLOBAL")
	addLine(t, g, "b.txt", "beta")
	addLine(t, g, "b.txt", "omega GLOBAL")
	if err := g.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// The cross-file artifact must sort after both per-file artifacts,
	// which forces the bumped-priority spelling.
	if path, _ := g.ArtifactPath(artifact.Global); path != filepath.Join("out", "51_KW.cf") {
		t.Errorf("global path = %s, want bumped 51_KW.cf", path)
	}

	want := []string{
		"# KW cross-file GLOBAL rules",
		"meta KW_GLOBAL_1 ((__KW_B_OMEGA + __KW_A_SHARED) >= 1)",
		"describe KW_GLOBAL_1 At least 1 GLOBAL keywords",
		"score KW_GLOBAL_1 0.01",
		"meta KW_GLOBAL_2 ((__KW_B_OMEGA + __KW_A_SHARED) >= 2)",
		"describe KW_GLOBAL_2 At least 2 GLOBAL keywords",
		"score KW_GLOBAL_2 0.01",
	}
	if got := bufferLines(t, g, artifact.Global); !reflect.DeepEqual(got, want) {
		t.Errorf("global buffer = %v, want %v", got, want)
	}

	// Each origin file defines the component its GLOBAL reference
	// names; the other file never mentions it.
	aLines := strings.Join(bufferLines(t, g, artifact.FileKey("a.txt")), "\n")
	if !strings.Contains(aLines, "meta __KW_A_SHARED (__KW_A_SHARED_BODY || __KW_A_SHARED_SUBJ)") {
		t.Error("a.txt buffer missing the shared component rule")
	}
	bLines := strings.Join(bufferLines(t, g, artifact.FileKey("b.txt")), "\n")
	if strings.Contains(bLines, "SHARED") {
		t.Error("b.txt buffer must not reference a.txt's GLOBAL word")
	}

	// GLOBAL-only words stay out of the per-file threshold sums.
	if strings.Contains(aLines, "meta KW_A_2 ") {
		t.Error("a.txt LOCAL thresholds should only cover alpha")
	}
}

func TestGenerator_Generate_SingleOutfile(t *testing.T) {
	g := newTestGenerator(t, WithDir("out"), WithSingleOutfile(true))
	addLine(t, g, "b.txt", "beta")
	addLine(t, g, "a.txt", "alpha GLOBAL")
	if err := g.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	shared := filepath.Join("out", "50_KW.cf")
	for _, k := range []artifact.Key{artifact.FileKey("a.txt"), artifact.FileKey("b.txt"), artifact.Global} {
		if path, _ := g.ArtifactPath(k); path != shared {
			t.Errorf("ArtifactPath(%q) = %s, want %s", k, path, shared)
		}
	}

	aBuf, _ := g.BufferFor(artifact.FileKey("a.txt"))
	gBuf, _ := g.BufferFor(artifact.Global)
	if aBuf != gBuf {
		t.Fatal("single-outfile keys should share one buffer")
	}

	// Sections interleave in generation order: files sorted by path,
	// the cross-file rules last.
	lines := aBuf.Lines()
	order := []string{
		"# KW rules generated from a.txt",
		"# KW rules generated from b.txt",
		"# KW cross-file GLOBAL rules",
	}
	idx := -1
	for _, header := range order {
		found := -1
		for i, line := range lines {
			if line == header {
				found = i
				break
			}
		}
		if found < 0 {
			t.Fatalf("missing section header %q", header)
		}
		if found < idx {
			t.Errorf("section %q out of order", header)
		}
		idx = found
	}
}

func TestGenerator_Generate_Collision(t *testing.T) {
	g := newTestGenerator(t, WithDir("out"))
	addLine(t, g, "a/spam.txt", "word")
	addLine(t, g, "a_spam.txt", "other")

	err := g.Generate()
	if !errors.Is(err, artifact.ErrArtifactCollision) {
		t.Fatalf("Generate = %v, want ErrArtifactCollision", err)
	}
}

func TestGenerator_Generate_DeduplicatesComponents(t *testing.T) {
	g := newTestGenerator(t, WithDir("out"))
	addLine(t, g, "spam.txt", "dual ALPHA")
	addLine(t, g, "spam.txt", "dual BETA")
	if err := g.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lines := bufferLines(t, g, artifact.FileKey("spam.txt"))
	count := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "body __KW_SPAM_DUAL_BODY ") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("component body rule emitted %d times, want once", count)
	}

	// Both group thresholds still reference the one component.
	joined := strings.Join(lines, "\n")
	for _, name := range []string{"KW_SPAM_ALPHA_1", "KW_SPAM_BETA_1"} {
		if !strings.Contains(joined, "meta "+name+" ((__KW_SPAM_DUAL) >= 1)") {
			t.Errorf("missing threshold meta %s", name)
		}
	}
}

func TestGenerator_Write(t *testing.T) {
	t.Run("writes buffers in load order", func(t *testing.T) {
		tmpDir := t.TempDir()
		g := newTestGenerator(t, WithDir(tmpDir))
		addLine(t, g, "a.txt", "alpha")
		addLine(t, g, "a.txt", "shared GLOBAL")
		if err := g.Generate(); err != nil {
			t.Fatalf("Generate: %v", err)
		}

		written, errs := g.Write()
		if len(errs) != 0 {
			t.Fatalf("Write errors: %v", errs)
		}
		want := []string{
			filepath.Join(tmpDir, "50_KW_A.cf"),
			filepath.Join(tmpDir, "51_KW.cf"),
		}
		if !reflect.DeepEqual(written, want) {
			t.Fatalf("written = %v, want %v", written, want)
		}

		for _, path := range written {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile(%s): %v", path, err)
			}
			buf := g.buffers[path]
			if !reflect.DeepEqual(data, buf.Bytes()) {
				t.Errorf("%s content does not match its buffer", path)
			}
		}

		// A second pass over the same store is byte-identical.
		first, err := os.ReadFile(written[0])
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if err := g.Generate(); err != nil {
			t.Fatalf("re-Generate: %v", err)
		}
		if _, errs := g.Write(); len(errs) != 0 {
			t.Fatalf("re-Write errors: %v", errs)
		}
		second, err := os.ReadFile(written[0])
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Error("re-running an identical batch changed the output")
		}
	})

	t.Run("before generation fails", func(t *testing.T) {
		g := newTestGenerator(t, WithDir(t.TempDir()))
		_, errs := g.Write()
		if len(errs) != 1 || !errors.Is(errs[0], ErrNotGenerated) {
			t.Fatalf("Write errors = %v, want ErrNotGenerated", errs)
		}
	})

	t.Run("empty buffers produce no files", func(t *testing.T) {
		tmpDir := t.TempDir()
		g := newTestGenerator(t, WithDir(tmpDir))
		if err := g.Generate(); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		written, errs := g.Write()
		if len(errs) != 0 || len(written) != 0 {
			t.Fatalf("written = %v, errs = %v, want neither", written, errs)
		}
		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatalf("ReadDir: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("output dir has %d entries, want none", len(entries))
		}
	})
}

func TestGenerator_Clean(t *testing.T) {
	tmpDir := t.TempDir()
	generated := []string{"50_KW_SPAM.cf", "51_KW.cf", "99__KW.cf"}
	kept := []string{"50_AB_SPAM.cf", "50_KW_SPAM.txt", "notes.txt"}
	for _, name := range append(append([]string{}, generated...), kept...) {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x\n"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	g := newTestGenerator(t, WithDir(tmpDir))
	if err := g.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var remaining []string
	for _, e := range entries {
		remaining = append(remaining, e.Name())
	}
	if !reflect.DeepEqual(remaining, kept) {
		t.Errorf("remaining = %v, want %v", remaining, kept)
	}
}

func TestGenerator_Run(t *testing.T) {
	t.Run("clean run", func(t *testing.T) {
		tmpDir := t.TempDir()
		chdir(t, tmpDir)
		writeKeywordFile(t, filepath.Join("lists", "a.txt"), "alpha\nshared GLOBAL\n")
		writeKeywordFile(t, filepath.Join("lists", "b.txt"), "beta\n")

		g := newTestGenerator(t, WithDir("out"))
		report, err := g.Run("lists")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !report.Clean() {
			t.Errorf("report not clean: failures=%v writeErrors=%v", report.Failures, report.WriteErrors)
		}
		if report.RunID == "" {
			t.Error("RunID empty")
		}
		if report.Files != 2 || report.GlobalWords != 1 {
			t.Errorf("Files=%d GlobalWords=%d, want 2 and 1", report.Files, report.GlobalWords)
		}

		want := []string{
			filepath.Join("out", "50_KW_LISTS_A.cf"),
			filepath.Join("out", "50_KW_LISTS_B.cf"),
			filepath.Join("out", "51_KW.cf"),
		}
		if !reflect.DeepEqual(report.Artifacts, want) {
			t.Errorf("Artifacts = %v, want %v", report.Artifacts, want)
		}
		for _, path := range report.Artifacts {
			if _, err := os.Stat(path); err != nil {
				t.Errorf("artifact %s missing: %v", path, err)
			}
		}
	})

	t.Run("ingestion failures ride in the report", func(t *testing.T) {
		tmpDir := t.TempDir()
		chdir(t, tmpDir)
		writeKeywordFile(t, "good.txt", "word\n")

		g := newTestGenerator(t, WithDir("out"))
		report, err := g.Run("good.txt", "missing.txt")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.Clean() {
			t.Error("report should not be clean")
		}
		if len(report.Failures) != 1 {
			t.Errorf("Failures = %v, want one", report.Failures)
		}
		if report.Files != 1 || len(report.Artifacts) != 1 {
			t.Errorf("Files=%d Artifacts=%v, want the good file only", report.Files, report.Artifacts)
		}
	})
}
