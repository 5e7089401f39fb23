// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Mode defines the richness of CLI output.
type Mode string

const (
	// ModeStyled enables colors, icons, and boxes.
	ModeStyled Mode = "styled"

	// ModeMinimal uses icons and basic formatting without color.
	ModeMinimal Mode = "minimal"

	// ModeMachine outputs plain prefixed text suitable for scripting
	// and log scraping.
	ModeMachine Mode = "machine"
)

var (
	currentMode = ModeStyled
	modeMu      sync.RWMutex
)

// CurrentMode returns the active output mode.
func CurrentMode() Mode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode updates the active output mode.
func SetMode(m Mode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}

// ParseMode converts a flag or environment string to a Mode. Unknown
// values fall back to styled output.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "styled", "full", "s":
		return ModeStyled
	case "minimal", "min", "m":
		return ModeMinimal
	case "machine", "plain", "q":
		return ModeMachine
	default:
		return ModeStyled
	}
}

// InitMode picks the output mode from the environment.
//
// Precedence: the KWRULES_OUTPUT variable, then NO_COLOR, then whether
// stdout is a terminal. Pipes and redirects get machine output so
// scripts never parse ANSI sequences.
func InitMode() {
	if env := os.Getenv("KWRULES_OUTPUT"); env != "" {
		SetMode(ParseMode(env))
		return
	}
	if !stdoutIsTerminal() {
		SetMode(ModeMachine)
		return
	}
	if os.Getenv("NO_COLOR") != "" {
		SetMode(ModeMinimal)
		return
	}
	SetMode(ModeStyled)
}

// stdoutIsTerminal reports whether stdout is an interactive terminal.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive returns true when prompts and progress animation make
// sense.
func IsInteractive() bool {
	return CurrentMode() != ModeMachine && stdoutIsTerminal()
}
