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
	"fmt"
	"os"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner provides an animated waiting indicator.
//
// The animation writes to stderr so stdout stays parseable; in machine
// mode the message prints once instead of animating.
type Spinner struct {
	stop chan struct{}
	done chan struct{}

	mu         sync.Mutex
	message    string
	isRunning  bool
	frameIndex int
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	if CurrentMode() == ModeMachine {
		fmt.Fprintf(os.Stderr, "PROGRESS: %s\n", s.message)
		return
	}

	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				// Clear the spinner line
				fmt.Fprint(os.Stderr, "\r\033[K")
				close(s.done)
				return
			case <-ticker.C:
				s.mu.Lock()
				frame := Styles.Highlight.Render(spinnerFrames[s.frameIndex])
				message := s.message
				s.frameIndex = (s.frameIndex + 1) % len(spinnerFrames)
				s.mu.Unlock()
				fmt.Fprintf(os.Stderr, "\r%s %s", frame, message)
			}
		}
	}()
}

// Stop halts the spinner animation.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	if CurrentMode() == ModeMachine {
		return
	}

	close(s.stop)
	<-s.done
}

// UpdateMessage changes the spinner message while running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// StopWithSuccess stops and prints a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	Success(message)
}

// StopWithError stops and prints an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	Error(message)
}

// WithSpinner runs fn behind a spinner, reporting its outcome.
func WithSpinner(message string, fn func() error) error {
	spin := NewSpinner(message)
	spin.Start()

	err := fn()

	if err != nil {
		spin.StopWithError(fmt.Sprintf("%s: %v", message, err))
		return err
	}
	spin.StopWithSuccess(message)
	return nil
}
