// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the kwrules CLI.
//
// All helpers respect the active output Mode: styled output for
// interactive terminals, icon-only output when color is unwanted, and
// plain prefixed text when stdout is a pipe.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	// Semantic colors
	ColorSuccess = lipgloss.Color("#2CD7C7") // Bright teal for success
	ColorWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	if CurrentMode() != ModeStyled {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Title prints a styled title
func Title(text string) {
	if CurrentMode() == ModeMachine {
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(text string) {
	switch CurrentMode() {
	case ModeMachine:
		fmt.Fprintf(os.Stdout, "OK: %s\n", text)
	case ModeMinimal:
		fmt.Printf("%s %s\n", IconSuccess.Render(), text)
	default:
		fmt.Printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func Warning(text string) {
	switch CurrentMode() {
	case ModeMachine:
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
	case ModeMinimal:
		fmt.Printf("%s %s\n", IconWarning.Render(), text)
	default:
		fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message
func Error(text string) {
	switch CurrentMode() {
	case ModeMachine:
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
	case ModeMinimal:
		fmt.Printf("%s %s\n", IconError.Render(), text)
	default:
		fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational message
func Info(text string) {
	if CurrentMode() == ModeMachine {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints muted/secondary text
func Muted(text string) {
	if CurrentMode() == ModeMachine {
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// Box prints text in a rounded box
func Box(title, content string) {
	if CurrentMode() == ModeMachine {
		fmt.Printf("%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(60)
	titleLine := Styles.Title.Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// WarningBox prints text in a warning-styled box
func WarningBox(title, content string) {
	if CurrentMode() == ModeMachine {
		fmt.Fprintf(os.Stderr, "WARN %s: %s\n", title, content)
		return
	}
	boxStyle := Styles.WarningBox.Width(60)
	titleLine := Styles.Warning.Bold(true).Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// ArtifactStatus prints an output file with its write status
func ArtifactStatus(path string, status Icon, detail string) {
	switch CurrentMode() {
	case ModeMachine:
		fmt.Printf("%s\t%s\t%s\n", status, path, detail)
	case ModeMinimal:
		fmt.Printf("%s %s\n", status.Render(), path)
	default:
		if detail != "" {
			fmt.Printf("%s %s %s\n", status.Render(), path, Styles.Muted.Render("("+detail+")"))
		} else {
			fmt.Printf("%s %s\n", status.Render(), path)
		}
	}
}

// Summary prints a run summary line with counts
func Summary(files, artifacts, failures int) {
	if CurrentMode() == ModeMachine {
		fmt.Printf("SUMMARY: files=%d artifacts=%d failures=%d\n", files, artifacts, failures)
		return
	}

	failureStyle := Styles.Muted
	if failures > 0 {
		failureStyle = Styles.Error
	}
	fmt.Printf("\n%s %s  %s %s  %s %s\n",
		Styles.Bold.Render(fmt.Sprintf("%d", files)), Styles.Muted.Render("files"),
		Styles.Success.Render(fmt.Sprintf("%d", artifacts)), Styles.Muted.Render("artifacts"),
		failureStyle.Render(fmt.Sprintf("%d", failures)), Styles.Muted.Render("failures"),
	)
}
