package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	bterm "github.com/wippyai/bert/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Expand   key.Binding
	Collapse key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "toggle"),
	),
	Expand: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "expand all"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "collapse all"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// node is one line of the term tree.
type node struct {
	label    string
	kind     string
	children []*node
	expanded bool
}

// buildTree converts t into display nodes. Containers start collapsed
// below the first level.
func buildTree(label string, t bterm.Term, depth int) *node {
	n := &node{label: label, expanded: depth < 1}
	switch v := t.(type) {
	case bterm.Tuple:
		n.kind = fmt.Sprintf("tuple/%d", len(v))
		for i, e := range v {
			n.children = append(n.children, buildTree(fmt.Sprintf("%d", i+1), e, depth+1))
		}
	case *bterm.List:
		n.kind = fmt.Sprintf("list/%d", len(v.Elems))
		for i, e := range v.Elems {
			n.children = append(n.children, buildTree(fmt.Sprintf("%d", i+1), e, depth+1))
		}
		if !v.Proper() {
			n.children = append(n.children, buildTree("tail", v.Tail, depth+1))
		}
	default:
		n.kind = leafKind(t)
		n.label += " = " + bterm.Format(t)
	}
	return n
}

func leafKind(t bterm.Term) string {
	switch v := t.(type) {
	case bterm.Atom:
		return "atom"
	case bterm.Int:
		return "integer"
	case bterm.Binary:
		return fmt.Sprintf("binary/%d", len(v))
	case bterm.String:
		return fmt.Sprintf("string/%d", len(v))
	default:
		return "nil"
	}
}

// visible flattens the expanded part of the tree into display rows.
func visible(roots []*node) []row {
	var rows []row
	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		rows = append(rows, row{n: n, depth: depth})
		if !n.expanded {
			return
		}
		for _, c := range n.children {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return rows
}

type row struct {
	n     *node
	depth int
}

func setExpanded(roots []*node, v bool) {
	for _, n := range roots {
		if len(n.children) > 0 {
			n.expanded = v
		}
		setExpanded(n.children, v)
	}
}

type inspectModel struct {
	err      error
	filename string
	roots    []*node
	rows     []row
	view     viewport.Model
	selected int
	ready    bool
}

func newInspectModel(filename string, terms []bterm.Term) *inspectModel {
	m := &inspectModel{filename: filename}
	for i, t := range terms {
		m.roots = append(m.roots, buildTree(fmt.Sprintf("term %d", i+1), t, 0))
	}
	if len(terms) == 0 {
		m.err = fmt.Errorf("no terms in %s", filename)
	}
	m.rows = visible(m.roots)
	return m
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-4, 1)
		if !m.ready {
			m.view = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = height
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case key.Matches(msg, keys.Toggle):
			if m.selected < len(m.rows) {
				n := m.rows[m.selected].n
				if len(n.children) > 0 {
					n.expanded = !n.expanded
				}
			}
		case key.Matches(msg, keys.Expand):
			setExpanded(m.roots, true)
		case key.Matches(msg, keys.Collapse):
			setExpanded(m.roots, false)
			m.selected = 0
		}
		m.rows = visible(m.roots)
		m.selected = max(min(m.selected, len(m.rows)-1), 0)
	}

	if m.ready {
		m.view.SetContent(m.render())
		m.follow()
	}
	return m, nil
}

// follow scrolls the viewport so the selected row is visible.
func (m *inspectModel) follow() {
	switch {
	case m.selected < m.view.YOffset:
		m.view.SetYOffset(m.selected)
	case m.selected >= m.view.YOffset+m.view.Height:
		m.view.SetYOffset(m.selected - m.view.Height + 1)
	}
}

func (m *inspectModel) render() string {
	var b strings.Builder
	for i, r := range m.rows {
		marker := "  "
		if len(r.n.children) > 0 {
			marker = "▸ "
			if r.n.expanded {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", r.depth) + marker + r.n.label
		if i == m.selected {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString(" ")
		b.WriteString(kindStyle.Render(r.n.kind))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *inspectModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("BERT Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • enter toggle • e expand • c collapse • q quit"))
	return b.String()
}

func runInteractive(filename string, terms []bterm.Term) error {
	p := tea.NewProgram(newInspectModel(filename, terms), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
