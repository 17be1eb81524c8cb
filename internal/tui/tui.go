// Package tui is an interactive viewer for an assembled report. Each profile
// gets its own table; tab cycles between them.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tckreport/internal/report"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tabStyle   = lipgloss.NewStyle().Padding(0, 1)
	activeTab  = tabStyle.Reverse(true)
	statsStyle = lipgloss.NewStyle().Faint(true)
	descStyle  = lipgloss.NewStyle().Italic(true).Width(100)
	helpStyle  = lipgloss.NewStyle().Faint(true)
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var columns = []table.Column{
	{Title: "Assertion ID", Width: 52},
	{Title: "Type", Width: 16},
	{Title: "Test", Width: 28},
	{Title: "Time", Width: 23},
	{Title: "Result", Width: 20},
}

// Model is a bubbletea model showing one profile table at a time.
type Model struct {
	report *report.Report
	idx    int
	tables []table.Model
	quit   bool
}

// New builds a Model with one table per profile of rep.
func New(rep *report.Report, height int) Model {
	if height <= 0 {
		height = 20
	}
	m := Model{report: rep, tables: make([]table.Model, len(rep.Profiles))}
	for i, pr := range rep.Profiles {
		m.tables[i] = table.New(
			table.WithColumns(columns),
			table.WithRows(tableRows(pr.Rows)),
			table.WithHeight(height),
			table.WithFocused(i == 0),
		)
	}
	return m
}

func tableRows(rows []report.Row) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row{string(r.ID), r.TypeLabel(), r.Test, r.Time, r.Result}
	}
	return out
}

// Profile returns the index of the visible profile.
func (m Model) Profile() int { return m.idx }

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool { return m.quit }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quit = true
			return m, tea.Quit
		case "tab", "right":
			if len(m.tables) == 0 {
				return m, nil
			}
			m.focus((m.idx + 1) % len(m.tables))
			return m, nil
		case "shift+tab", "left":
			if len(m.tables) == 0 {
				return m, nil
			}
			m.focus((m.idx + len(m.tables) - 1) % len(m.tables))
			return m, nil
		}
	}
	if len(m.tables) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.tables[m.idx], cmd = m.tables[m.idx].Update(msg)
	return m, cmd
}

func (m *Model) focus(i int) {
	m.tables[m.idx].Blur()
	m.idx = i
	m.tables[m.idx].Focus()
}

func (m Model) View() string {
	if m.quit || len(m.tables) == 0 {
		return ""
	}
	pr := m.report.Profiles[m.idx]

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sparkplug TCK Results"))
	b.WriteString("\n\n")

	tabs := make([]string, len(m.report.Profiles))
	for i, p := range m.report.Profiles {
		style := tabStyle
		if i == m.idx {
			style = activeTab
		}
		tabs[i] = style.Render(p.Profile.String())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	b.WriteString(statsStyle.Render(fmt.Sprintf("Assertion count: %d  Number passed: %d  Percent passed: %d%%",
		pr.Stats.Count, pr.Stats.Passed, pr.Stats.Percent)))
	b.WriteString("\n\n")
	b.WriteString(m.tables[m.idx].View())
	b.WriteString("\n")

	if c := m.tables[m.idx].Cursor(); c >= 0 && c < len(pr.Rows) {
		row := pr.Rows[c]
		switch {
		case row.Passed():
			b.WriteString(passStyle.Render(row.Result))
		case row.Exercised:
			b.WriteString(failStyle.Render(row.Result))
		}
		b.WriteString("\n")
		b.WriteString(descStyle.Render(row.Description))
		b.WriteString("\n")
	}
	if n := len(pr.Unmatched); n > 0 {
		b.WriteString(statsStyle.Render(fmt.Sprintf("%d result(s) not declared for this profile", n)))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab/shift+tab: profile  ↑/↓: row  q: quit"))
	b.WriteString("\n")
	return b.String()
}

// Run shows rep until the user quits.
func Run(rep *report.Report) error {
	_, err := tea.NewProgram(New(rep, 0), tea.WithAltScreen()).Run()
	return err
}
