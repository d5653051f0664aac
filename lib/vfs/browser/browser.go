// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

// Run starts the interactive tree browser over engine, blocking until
// the user quits. It attaches to the process's own terminal.
func Run(engine *vfs.Engine) error {
	program := tea.NewProgram(NewModel(engine), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
