// Package viewer is an interactive pager over a comparison report.
package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/banjo360/dump-diff/internal/compare"
	"github.com/banjo360/dump-diff/internal/dumpdiff/styles"
	"github.com/banjo360/dump-diff/internal/report"
)

// Model pages through the aligned rows. The header stays pinned above the
// viewport and the status bar below it.
type Model struct {
	viewport viewport.Model
	header   string
	rows     []string

	// mismatches holds the row indices of mismatching rows, ascending.
	mismatches []int
	// cursor indexes mismatches; -1 before the first jump.
	cursor int

	summary compare.Summary
	width   int
	height  int
}

// New builds a viewer for res. color selects the styled text rendering.
func New(res *compare.Result, color bool) Model {
	lines := report.NewTextRenderer(report.Options{Color: color}).Lines(res)

	var mismatches []int
	for i, row := range res.Rows {
		if row.Mismatch() {
			mismatches = append(mismatches, i)
		}
	}

	vp := viewport.New()
	vp.SetContent(strings.Join(lines[1:], "\n"))

	return Model{
		viewport:   vp,
		header:     lines[0],
		rows:       lines[1:],
		mismatches: mismatches,
		cursor:     -1,
		summary:    res.Summary(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.SetWidth(msg.Width)
		// header and status bar
		m.viewport.SetHeight(max(msg.Height-2, 1))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "n":
			m.Next()
			return m, nil
		case "p", "N":
			m.Prev()
			return m, nil
		case "g", "home":
			m.cursor = -1
			m.viewport.GotoTop()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Next scrolls to the following mismatch, wrapping to the first.
func (m *Model) Next() {
	if len(m.mismatches) == 0 {
		return
	}
	m.cursor = (m.cursor + 1) % len(m.mismatches)
	m.viewport.SetYOffset(m.mismatches[m.cursor])
}

// Prev scrolls to the preceding mismatch, wrapping to the last.
func (m *Model) Prev() {
	if len(m.mismatches) == 0 {
		return
	}
	if m.cursor <= 0 {
		m.cursor = len(m.mismatches) - 1
	} else {
		m.cursor--
	}
	m.viewport.SetYOffset(m.mismatches[m.cursor])
}

// Current returns the row index of the selected mismatch, or -1.
func (m Model) Current() int {
	if m.cursor < 0 {
		return -1
	}
	return m.mismatches[m.cursor]
}

func (m Model) View() string {
	return m.header + "\n" + m.viewport.View() + "\n" + styles.StatusBar.Width(m.width).Render(m.status())
}

func (m Model) status() string {
	position := "-"
	if m.cursor >= 0 {
		position = fmt.Sprintf("%d", m.cursor+1)
	}
	return fmt.Sprintf(" mismatch %s/%d • %d rows • n: next • p: prev • g: top • q: quit ",
		position, len(m.mismatches), m.summary.Rows)
}

// Run shows the viewer until the user quits or ctx is cancelled.
func Run(ctx context.Context, res *compare.Result, color bool) error {
	program := tea.NewProgram(
		New(res, color),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
