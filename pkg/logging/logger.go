// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for the keyword rule
// toolchain.
//
// The design follows Unix CLI conventions: diagnostics go to stderr so
// generated rule output and JSON reports on stdout stay clean, with an
// optional JSON log file for automation that wants machine-parseable
// history:
//
//   - Default: human-readable text on stderr
//   - Optional: a per-day JSON log file under LogDir
//   - Quiet: suppress stderr entirely (file logging still applies)
//
// # Basic Usage
//
// Library packages log through the process-default slog logger, so the
// CLI installs its configuration once at startup:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    LogDir: "~/.kwrules/logs",
//	})
//	defer logger.Close()
//	logger.SetDefault()
//
// After SetDefault, every slog.Info/Warn/Debug call in the process
// flows through the configured destinations.
//
// # Log Levels
//
// Four levels are supported, matching slog conventions:
//
//   - Debug: per-line parse diagnostics, dropped input
//   - Info: normal operations (artifacts written, watch triggers)
//   - Warn: recoverable issues (validator missing, partial ingestion)
//   - Error: operation failures the run survives
//
// # Thread Safety
//
// Logger is safe for concurrent use. The underlying slog.Logger is
// thread-safe and mutable state is protected by a mutex.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity.
//
// Levels follow the slog convention and are ordered by severity:
// Debug < Info < Warn < Error. Setting a minimum level filters out
// everything below it.
type Level int

const (
	// LevelDebug is for development troubleshooting and per-line
	// ingestion diagnostics.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for potentially problematic situations the run
	// survives.
	LevelWarn

	// LevelError is for operation failures.
	LevelError
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel converts our Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a flag or config string to a Level.
//
// Accepted values are "debug", "info", "warn", and "error",
// case-insensitive.
//
// Parameters:
//   - s: The level name to parse.
//
// Returns:
//   - Level: The parsed level.
//   - error: Non-nil when s names no known level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// All fields have sensible defaults. A zero-value Config creates a
// logger that writes Info+ messages to stderr in text format.
type Config struct {
	// Level sets the minimum log level.
	//
	// Messages below this level are discarded.
	// Default: LevelInfo
	Level Level

	// LogDir enables file logging to the specified directory.
	//
	// When set, logs are written to both stderr and a file named
	// "{Service}_{YYYY-MM-DD}.log" in JSON format. The directory is
	// created with 0750 permissions if it doesn't exist.
	//
	// Supports ~ for home directory expansion:
	//   "~/.kwrules/logs" -> "/home/user/.kwrules/logs"
	//
	// Default: "" (file logging disabled)
	LogDir string

	// Service identifies the component generating logs.
	//
	// Included in every entry as the "service" attribute and in the
	// log file name.
	//
	// Default: "" (no service attribute, file name uses "kwrules")
	Service string

	// JSON switches stderr output to JSON format.
	//
	// File logs are always JSON regardless of this setting, as they
	// are intended for machine processing.
	//
	// Default: false (text format for stderr)
	JSON bool

	// Quiet disables stderr output.
	//
	// When true, logs only reach the file (if LogDir is set). Useful
	// when stdout carries a JSON report that scripts parse.
	//
	// Default: false (stderr enabled)
	Quiet bool
}

// =============================================================================
// Logger
// =============================================================================

// Logger provides structured logging with multi-destination output.
//
// Logger wraps slog.Logger with stderr plus optional file output and
// proper cleanup via Close.
//
// # Thread Safety
//
// Safe for concurrent use from multiple goroutines.
type Logger struct {
	// slog is the underlying structured logger
	slog *slog.Logger

	// config stores the configuration for reference
	config Config

	// file is the optional log file handle (nil if file logging disabled)
	file *os.File

	// mu protects mutable state
	mu sync.Mutex
}

// New creates a Logger with the given configuration.
//
// Destinations follow the config: a stderr handler unless Quiet, and a
// JSON file handler when LogDir is set. File setup failures degrade to
// stderr-only logging rather than failing the program.
//
// The returned Logger should be closed with Close to flush the file.
//
// Parameters:
//   - config: Logger configuration (see Config for options).
//
// Returns:
//   - *Logger: Configured logger ready for use.
func New(config Config) *Logger {
	var handlers []slog.Handler

	opts := &slog.HandlerOptions{
		Level: config.Level.toSlogLevel(),
	}

	if !config.Quiet {
		var stderrHandler slog.Handler
		if config.JSON {
			stderrHandler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			stderrHandler = slog.NewTextHandler(os.Stderr, opts)
		}
		handlers = append(handlers, stderrHandler)
	}

	logger := &Logger{config: config}

	if config.LogDir != "" {
		logDir := expandPath(config.LogDir)
		if err := os.MkdirAll(logDir, 0750); err == nil {
			serviceName := config.Service
			if serviceName == "" {
				serviceName = "kwrules"
			}
			filename := fmt.Sprintf("%s_%s.log", serviceName, time.Now().Format("2006-01-02"))
			logPath := filepath.Join(logDir, filename)

			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err == nil {
				logger.file = file
				// File logs are always JSON.
				handlers = append(handlers, slog.NewJSONHandler(file, opts))
			}
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		// Quiet with no file: discard everything above the level gate.
		handler = discardHandler{}
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", config.Service),
		})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns a logger with default settings: Info level, text
// format, stderr only.
func Default() *Logger {
	return New(Config{
		Level:   LevelInfo,
		Service: "kwrules",
	})
}

// Debug logs a message at Debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs a message at Info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a message at Warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs a message at Error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a new Logger carrying additional attributes.
//
// The returned logger includes all attributes from the parent plus the
// new ones; the parent is not modified. The file handle is shared, so
// only close one of them.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
		file:   l.file,
	}
}

// Slog returns the underlying slog.Logger for direct use.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// SetDefault installs this logger as the process-wide slog default.
//
// Library packages in this module log through the package-level slog
// functions, so the CLI calls this once during startup to route their
// output through the configured destinations.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.slog)
}

// Close flushes and closes the log file, if one is open.
//
// Returns:
//   - error: First error encountered during cleanup.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	var errs []error
	if err := l.file.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("sync log file: %w", err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	l.file = nil

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// =============================================================================
// Handlers (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
//
// This enables simultaneous output to stderr and file with different
// formats (text vs JSON).
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithAttrs returns a new handler with additional attributes.
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

// WithGroup returns a new handler with a group name.
func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// discardHandler drops every record. Used when Quiet is set and no
// file destination exists.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

// =============================================================================
// Helper Functions
// =============================================================================

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
