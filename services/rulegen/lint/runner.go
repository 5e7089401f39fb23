// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lint verifies generated rule artifacts with the external
// rule engine's own lint mode. Generation never depends on it; a
// missing binary degrades to "nothing to report" rather than an error.
package lint

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// DefaultCommand is the validator probed for when none is configured.
const DefaultCommand = "spamassassin"

// DefaultTimeout bounds one validator invocation.
const DefaultTimeout = 60 * time.Second

// Result describes one validator invocation over an artifact
// directory.
type Result struct {
	// Valid is false only when the validator ran and rejected the
	// rules. An unavailable validator leaves it true.
	Valid bool `json:"valid"`

	// Available reports whether the validator binary was found.
	Available bool `json:"available"`

	// Command is the binary the runner used or looked for.
	Command string `json:"command"`

	// Output is the validator's combined diagnostic text.
	Output string `json:"output,omitempty"`

	// Duration is how long the invocation took.
	Duration time.Duration `json:"duration"`
}

// Option configures the Runner.
type Option func(*Runner)

// WithCommand overrides the validator binary.
func WithCommand(command string) Option {
	return func(r *Runner) {
		r.command = command
	}
}

// WithArgs overrides the arguments passed before the artifact
// directory.
func WithArgs(args ...string) Option {
	return func(r *Runner) {
		r.args = args
	}
}

// WithTimeout bounds one validator invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		r.timeout = timeout
	}
}

// Runner executes the external rule validator.
//
// Thread Safety: Safe for concurrent use after construction.
type Runner struct {
	command string
	args    []string
	timeout time.Duration
}

// NewRunner creates a runner with default or custom configuration. The
// default invocation is "spamassassin --lint --siteconfigpath <dir>".
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		command: DefaultCommand,
		args:    []string{"--lint", "--siteconfigpath"},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available probes the system PATH for the validator binary.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.command)
	return err == nil
}

// Check runs the validator over a directory of generated artifacts.
//
// # Description
//
// A missing validator binary is not an error: the result comes back
// Valid with Available false, so callers can proceed and surface the
// gap as a notice. A validator that runs and rejects the rules yields
// Valid false with its diagnostics in Output. Only failures to execute
// at all return an error.
//
// # Inputs
//
//	ctx - Context for cancellation; the configured timeout also applies.
//	dir - Directory containing the generated .cf artifacts.
//
// # Outputs
//
//	*Result - The invocation outcome. Never nil on a nil error.
//	error - Non-nil when the validator could not be executed.
func (r *Runner) Check(ctx context.Context, dir string) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}
	start := time.Now()

	if !r.Available() {
		slog.Warn("rule validator not installed",
			slog.String("command", r.command),
		)
		return &Result{
			Valid:     true,
			Available: false,
			Command:   r.command,
			Duration:  time.Since(start),
		}, nil
	}

	args := make([]string, len(r.args), len(r.args)+1)
	copy(args, r.args)
	args = append(args, dir)

	cmdCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, r.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: %s after %s", ErrLintTimeout, r.command, r.timeout)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	output := stderr.String() + stdout.String()
	result := &Result{
		Valid:     err == nil,
		Available: true,
		Command:   r.command,
		Output:    output,
		Duration:  time.Since(start),
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, fmt.Errorf("%w: %v", ErrLintFailed, err)
		}
		// Non-zero exit means the rules failed lint; the diagnostics
		// are the result, not an execution error.
	}

	slog.Debug("rule lint completed",
		slog.String("dir", dir),
		slog.Bool("valid", result.Valid),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}
