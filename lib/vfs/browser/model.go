// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package browser implements an interactive terminal tree browser
// over a live *vfs.Engine, for inspecting a mounted (or even
// unmounted, in-process) filesystem without leaving the terminal. It
// exercises the same programmatic engine API (ListDir/Stat/Readlink)
// that the FUSE adapter uses, just from the other side.
package browser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coldbrew-systems/memfuse/lib/vfs"
)

type nodeKind int

const (
	nodeKindFile nodeKind = iota
	nodeKindDir
	nodeKindSymlink
)

func kindFrom(k vfs.Kind) nodeKind {
	switch k {
	case vfs.KindDir:
		return nodeKindDir
	case vfs.KindSymlink:
		return nodeKindSymlink
	default:
		return nodeKindFile
	}
}

// line is one flattened, currently-visible row of the tree.
type line struct {
	path        string
	name        string
	depth       int
	kind        nodeKind
	size        uint64
	hasChildren bool
	target      string // populated for symlinks
}

// Model is the bubbletea model for the tree browser.
type Model struct {
	engine *vfs.Engine
	theme  Theme
	keys   KeyMap

	lines    []line
	expanded map[string]bool
	cursor   int

	width  int
	height int

	statusMessage string
}

// NewModel builds a browser model rooted at the engine's "/",
// initially expanded one level deep.
func NewModel(engine *vfs.Engine) Model {
	m := Model{
		engine:   engine,
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		expanded: map[string]bool{"/": true},
	}
	m.rebuild()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
		case key.Matches(msg, m.keys.Bottom):
			m.cursor = len(m.lines) - 1
		case key.Matches(msg, m.keys.Right):
			m.expandCursor()
		case key.Matches(msg, m.keys.Left):
			m.collapseCursor()
		case key.Matches(msg, m.keys.Toggle):
			m.toggleCursor()
		case key.Matches(msg, m.keys.Inspect):
			m.inspectCursor()
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.height == 0 {
		return ""
	}

	header := lipgloss.NewStyle().
		Foreground(m.theme.HeaderForeground).
		Bold(true).
		Render(fmt.Sprintf("memfuse tree browser — %d entries", len(m.lines)))

	visibleRows := m.height - 3 // header + help + status
	if visibleRows < 1 {
		visibleRows = 1
	}
	offset := m.scrollOffset(visibleRows)

	var body strings.Builder
	end := offset + visibleRows
	if end > len(m.lines) {
		end = len(m.lines)
	}
	for i := offset; i < end; i++ {
		if i > offset {
			body.WriteString("\n")
		}
		body.WriteString(m.renderLine(i))
	}

	bodyBlock := body.String()
	if len(m.lines) > visibleRows {
		scrollbar := renderScrollbar(m.theme, end-offset, len(m.lines), visibleRows, offset)
		bodyBlock = lipgloss.JoinHorizontal(lipgloss.Top, bodyBlock, " ", scrollbar)
	}

	help := lipgloss.NewStyle().Foreground(m.theme.HelpText).
		Render("↑/↓ move · → expand · enter toggle · ← collapse · i inspect · g/G top/bottom · q quit")

	status := ""
	if m.statusMessage != "" {
		status = lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(m.statusMessage)
	}

	return strings.Join([]string{header, bodyBlock, help, status}, "\n")
}

func (m Model) renderLine(i int) string {
	l := m.lines[i]
	indent := strings.Repeat("  ", l.depth)

	marker := " "
	if l.kind == nodeKindDir {
		if m.expanded[l.path] {
			marker = "▾"
		} else {
			marker = "▸"
		}
	}

	label := l.name
	if l.kind == nodeKindSymlink {
		label = fmt.Sprintf("%s -> %s", l.name, l.target)
	} else if l.kind == nodeKindFile {
		label = fmt.Sprintf("%s (%d bytes)", l.name, l.size)
	}

	style := lipgloss.NewStyle().Foreground(m.theme.colorFor(l.kind))
	if i == m.cursor {
		style = style.Background(m.theme.SelectedBackground).Foreground(m.theme.SelectedForeground)
	}

	return style.Render(fmt.Sprintf("%s%s %s", indent, marker, label))
}

func (m Model) scrollOffset(visibleRows int) int {
	if m.cursor < visibleRows {
		return 0
	}
	offset := m.cursor - visibleRows + 1
	if offset < 0 {
		offset = 0
	}
	return offset
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.lines) {
		m.cursor = len(m.lines) - 1
	}
}

func (m *Model) current() (line, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return line{}, false
	}
	return m.lines[m.cursor], true
}

func (m *Model) expandCursor() {
	l, ok := m.current()
	if !ok || l.kind != nodeKindDir {
		return
	}
	m.expanded[l.path] = true
	m.rebuild()
}

func (m *Model) collapseCursor() {
	l, ok := m.current()
	if !ok {
		return
	}
	if l.kind == nodeKindDir && m.expanded[l.path] {
		delete(m.expanded, l.path)
		m.rebuild()
		return
	}
	// Already collapsed (or not a directory): move to the parent row.
	for i := m.cursor - 1; i >= 0; i-- {
		if m.lines[i].depth < l.depth {
			m.cursor = i
			return
		}
	}
}

func (m *Model) toggleCursor() {
	l, ok := m.current()
	if !ok || l.kind != nodeKindDir {
		return
	}
	if m.expanded[l.path] {
		delete(m.expanded, l.path)
	} else {
		m.expanded[l.path] = true
	}
	m.rebuild()
}

// inspectCursor loads the debug summary of the node under the cursor
// into the status line.
func (m *Model) inspectCursor() {
	l, ok := m.current()
	if !ok {
		return
	}
	handle, err := m.engine.Get(l.path)
	if err != nil {
		m.statusMessage = fmt.Sprintf("error: %v", err)
		return
	}
	defer handle.Close()

	debug, err := handle.Debug()
	if err != nil {
		m.statusMessage = fmt.Sprintf("error: %v", err)
		return
	}

	keys := make([]string, 0, len(debug))
	for k := range debug {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, debug[k]))
	}
	m.statusMessage = strings.Join(parts, " ")
}

// rebuild recomputes the flattened visible line list from the
// engine's current tree state and the expanded set, then clamps the
// cursor to the new length.
func (m *Model) rebuild() {
	m.lines = m.lines[:0]
	m.statusMessage = ""
	if err := m.appendSubtree("/", 0); err != nil {
		m.statusMessage = fmt.Sprintf("error: %v", err)
	}
	if m.cursor >= len(m.lines) {
		m.cursor = len(m.lines) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) appendSubtree(path string, depth int) error {
	info, err := m.engine.Stat(path)
	if err != nil {
		return err
	}

	l := line{
		path:  path,
		name:  displayName(path),
		depth: depth,
		kind:  kindFrom(info.Kind),
		size:  info.Size,
	}
	if info.Kind == vfs.KindSymlink {
		target, err := m.engine.Readlink(path)
		if err == nil {
			l.target = target
		}
	}
	if info.Kind == vfs.KindDir {
		names, err := m.engine.ListDir(path)
		if err != nil {
			return err
		}
		l.hasChildren = len(names) > 0
	}
	m.lines = append(m.lines, l)

	if info.Kind != vfs.KindDir || !m.expanded[path] {
		return nil
	}

	names, err := m.engine.ListDir(path)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		childPath := name
		if path == "/" {
			childPath = "/" + name
		} else {
			childPath = path + "/" + name
		}
		if err := m.appendSubtree(childPath, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func displayName(path string) string {
	if path == "/" {
		return "/"
	}
	idx := strings.LastIndexByte(path, '/')
	return path[idx+1:]
}
