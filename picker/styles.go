// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package picker

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	destructive = lipgloss.Color("#e53935")
	muted       = lipgloss.Color("#6b7280")
)

// Styles of the picker screen.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style
	Status lipgloss.Style
	Pane   lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Label:  lipgloss.NewStyle().Bold(true).Width(10),
		Muted:  lipgloss.NewStyle().Foreground(muted),
		Error:  lipgloss.NewStyle().Foreground(destructive),
		Status: lipgloss.NewStyle().Foreground(muted).MarginTop(1),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
	}
}
