// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo}, // Unknown defaults to Info
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.toSlogLevel(); got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"Warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{" info ", LevelInfo, false},
		{"verbose", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Constructor Tests
// =============================================================================

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.slog == nil {
		t.Error("logger.slog is nil")
	}
	defer logger.Close()
}

func TestNew_AllLevels(t *testing.T) {
	levels := []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			logger := New(Config{Level: level, Quiet: true})
			if logger == nil {
				t.Fatal("New() returned nil")
			}
			defer logger.Close()
		})
	}
}

func TestNew_QuietWithoutFile(t *testing.T) {
	logger := New(Config{Quiet: true})
	defer logger.Close()

	// Nothing should panic; every record is discarded.
	logger.Info("dropped")
	if logger.slog.Enabled(context.Background(), slog.LevelError) {
		t.Error("quiet logger without file should discard all records")
	}
}

// =============================================================================
// File Logging Tests
// =============================================================================

func TestNew_FileLogging(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  tmpDir,
		Service: "testsvc",
		Quiet:   true,
	})

	logger.Info("artifact written", "path", "out/50_KW.cf", "lines", 12)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	wantName := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(tmpDir, wantName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	// File logs are JSON with the service attribute attached.
	var entry map[string]any
	line := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	if entry["msg"] != "artifact written" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["service"] != "testsvc" {
		t.Errorf("service = %v", entry["service"])
	}
	if entry["path"] != "out/50_KW.cf" {
		t.Errorf("path = %v", entry["path"])
	}
}

func TestNew_FileLogging_LevelFilter(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{
		Level:  LevelWarn,
		LogDir: tmpDir,
		Quiet:  true,
	})

	logger.Debug("filtered")
	logger.Info("filtered")
	logger.Warn("kept")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	wantName := "kwrules_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(tmpDir, wantName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "filtered") {
		t.Error("below-level messages reached the file")
	}
	if !strings.Contains(content, "kept") {
		t.Error("warn message missing from the file")
	}
}

func TestNew_BadLogDir(t *testing.T) {
	// A file where the directory should be: setup fails, logging
	// degrades to stderr-only instead of erroring.
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	logger := New(Config{LogDir: blocker, Quiet: true})
	defer logger.Close()
	if logger.file != nil {
		t.Error("file handle should be nil when LogDir setup fails")
	}
	logger.Info("still works")
}

// =============================================================================
// Logger Behavior Tests
// =============================================================================

func TestLogger_With(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{LogDir: tmpDir, Quiet: true})

	child := logger.With("run_id", "abc123")
	child.Info("ingest complete")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	wantName := "kwrules_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(tmpDir, wantName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "abc123") {
		t.Error("child logger attribute missing")
	}
}

func TestLogger_Close_NoFile(t *testing.T) {
	logger := New(Config{Quiet: true})
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	// Closing again is harmless.
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestLogger_SetDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	tmpDir := t.TempDir()
	logger := New(Config{LogDir: tmpDir, Service: "defaulted", Quiet: true})
	logger.SetDefault()

	slog.Info("through the default")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	wantName := "defaulted_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(tmpDir, wantName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "through the default") {
		t.Error("package-level slog call did not reach the configured file")
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/logs", filepath.Join(home, "logs")},
		{"/var/log/kwrules", "/var/log/kwrules"},
		{"relative/logs", "relative/logs"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
