// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the tree browser.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding // Collapse a directory, or move to its parent.
	Right  key.Binding // Expand a directory.
	Toggle key.Binding // Expand/collapse under the cursor.
	Top     key.Binding
	Bottom  key.Binding
	Inspect key.Binding // Show the debug summary of the node under the cursor.
	Quit    key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (hjkl) alongside standard arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "toggle"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Inspect: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "inspect"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}
