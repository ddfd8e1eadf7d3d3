// Package tui is a full-screen process picker for the "shut down when this
// process exits" trigger.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shutdowner/internal/process"
)

var ErrCanceled = errors.New("tui: no process chosen")

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	filterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model lists processes in a table; enter chooses the highlighted row.
type Model struct {
	keys  KeyMap
	table table.Model

	all      []process.Record
	filtered []process.Record

	filtering  bool
	filterText string

	chosen   *process.Record
	canceled bool
}

func NewModel(records []process.Record) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "PID", Width: 8},
			{Title: "Process", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := Model{keys: DefaultKeyMap(), table: t, all: records}
	m.applyFilter()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 6; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.canceled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Choose):
			if len(m.filtered) == 0 {
				return m, nil
			}
			r := m.filtered[m.table.Cursor()]
			m.chosen = &r
			return m, tea.Quit
		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.filterText = ""
			m.applyFilter()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filtering = false
	case tea.KeyBackspace:
		if m.filterText != "" {
			_, size := utf8.DecodeLastRuneInString(m.filterText)
			m.filterText = m.filterText[:len(m.filterText)-size]
			m.applyFilter()
		}
	case tea.KeyRunes:
		m.filterText += string(msg.Runes)
		m.applyFilter()
	case tea.KeyCtrlC:
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

// applyFilter keeps records whose name or pid contains the filter text (case-insensitive).
func (m *Model) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filterText))
	m.filtered = make([]process.Record, 0, len(m.all))
	rows := make([]table.Row, 0, len(m.all))
	for _, r := range m.all {
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) && !strings.Contains(r.PID, q) {
			continue
		}
		m.filtered = append(m.filtered, r)
		rows = append(rows, table.Row{r.PID, r.Name})
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose the process to watch"))
	b.WriteString("\n")
	switch {
	case m.filtering:
		b.WriteString(filterStyle.Render("/" + m.filterText + "▏"))
	case m.filterText != "":
		b.WriteString(filterStyle.Render(fmt.Sprintf("filter: %s (%d of %d)", m.filterText, len(m.filtered), len(m.all))))
	}
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move • / filter • esc clear • enter watch • q quit"))
	return b.String()
}

// Chosen returns the selected record once the user pressed enter.
func (m Model) Chosen() (process.Record, bool) {
	if m.chosen == nil {
		return process.Record{}, false
	}
	return *m.chosen, true
}

func (m Model) Canceled() bool { return m.canceled }

// Picker runs the model full-screen. It satisfies menu.Picker.
type Picker struct{}

func (Picker) Pick(ctx context.Context, records []process.Record) (process.Record, error) {
	p := tea.NewProgram(NewModel(records), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return process.Record{}, err
	}
	m, ok := final.(Model)
	if !ok {
		return process.Record{}, ErrCanceled
	}
	if r, ok := m.Chosen(); ok {
		return r, nil
	}
	return process.Record{}, ErrCanceled
}
