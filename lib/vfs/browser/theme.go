// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the tree browser. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	DirColor     lipgloss.Color
	FileColor    lipgloss.Color
	SymlinkColor lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	ScrollbarThumb lipgloss.Color
	ScrollbarTrack lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	DirColor:     lipgloss.Color("75"),  // blue
	FileColor:    lipgloss.Color("252"), // normal text
	SymlinkColor: lipgloss.Color("220"), // amber

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	ScrollbarThumb: lipgloss.Color("220"),
	ScrollbarTrack: lipgloss.Color("240"),
}

// colorFor returns the theme color used for a node of the given kind.
func (theme Theme) colorFor(kind nodeKind) lipgloss.Color {
	switch kind {
	case nodeKindDir:
		return theme.DirColor
	case nodeKindSymlink:
		return theme.SymlinkColor
	default:
		return theme.FileColor
	}
}
