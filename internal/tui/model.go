// Package tui is the interactive terminal front end: a live clock, the topic
// field and the saved history.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SoarinFerret/StudyTimer/internal/format"
	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/timer"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
)

type focus int

const (
	focusHistory focus = iota
	focusTopic
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmSave
	confirmDelete
)

// tickMsg refreshes the clock. gen ties it to one run of the tick loop so a
// stale tick from a stopped loop does not start a second one.
type tickMsg struct{ gen int }

// loadedMsg carries the first status and history read.
type loadedMsg struct {
	status  tracker.Status
	records []history.Record
	err     error
}

type keyMap struct {
	Start  key.Binding
	Pause  key.Binding
	Reset  key.Binding
	Save   key.Binding
	Delete key.Binding
	Topic  key.Binding
	Yes    key.Binding
	No     key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Start:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Pause:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Save:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save")),
	Delete: key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
	Topic:  key.NewBinding(key.WithKeys("tab", "t"), key.WithHelp("tab", "topic")),
	Yes:    key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
	No:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type Model struct {
	backend Backend
	refresh time.Duration

	status  tracker.Status
	records []history.Record
	history table.Model
	topic   textinput.Model
	focus   focus

	confirm confirmKind
	pending history.Record

	message string
	err     error

	ticking bool
	tickGen int
}

func New(backend Backend, refresh time.Duration, defaultTopic string) Model {
	if refresh <= 0 {
		refresh = time.Second
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = defaultTopic
	ti.CharLimit = 80

	columns := make([]table.Column, len(format.Headers))
	widths := []int{4, 10, 8, 8, 8, 8, 24, 12}
	for i, h := range format.Headers {
		columns[i] = table.Column{Title: h, Width: widths[i]}
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(colorMuted)
	s.Selected = s.Selected.Foreground(lipgloss.Color("0")).Background(colorRest)
	t.SetStyles(s)

	return Model{
		backend: backend,
		refresh: refresh,
		history: t,
		topic:   ti,
		status:  tracker.Status{Mode: timer.Standby},
	}
}

// Run starts the UI full screen and blocks until the user quits.
func Run(backend Backend, refresh time.Duration, defaultTopic string) error {
	_, err := tea.NewProgram(New(backend, refresh, defaultTopic), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		st, err := b.Status()
		if err != nil {
			return loadedMsg{err: err}
		}
		records, err := b.History()
		return loadedMsg{status: st, records: records, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.history.SetHeight(max(3, msg.Height-14))
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.status = msg.status
		m.setRecords(msg.records)
		if m.status.Mode != timer.Standby {
			return m, m.startTicking()
		}
		return m, nil

	case tickMsg:
		if !m.ticking || msg.gen != m.tickGen {
			return m, nil
		}
		st, err := m.backend.Status()
		if err != nil {
			m.setErr(err)
			return m, m.tick()
		}
		m.status = st
		if st.Mode == timer.Standby {
			// reset or saved elsewhere
			m.stopTicking()
			m.reloadHistory()
			return m, nil
		}
		return m, m.tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.focus == focusTopic {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc, tea.KeyTab:
			m.topic.Blur()
			m.focus = focusHistory
			return m, nil
		}
		var cmd tea.Cmd
		m.topic, cmd = m.topic.Update(msg)
		return m, cmd
	}

	if m.confirm != confirmNone {
		switch {
		case key.Matches(msg, keys.Yes):
			return m.confirmed()
		case key.Matches(msg, keys.No):
			m.confirm = confirmNone
			m.message = "Cancelled"
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Start):
		st, err := m.backend.Start()
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		m.setStatus(st, "")
		return m, m.startTicking()

	case key.Matches(msg, keys.Pause):
		st, err := m.backend.Pause()
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		m.setStatus(st, "")
		return m, nil

	case key.Matches(msg, keys.Reset):
		st, err := m.backend.Reset()
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		m.stopTicking()
		m.setStatus(st, "Timer reset")
		return m, nil

	case key.Matches(msg, keys.Save):
		rec, err := m.backend.Preview(m.topicValue())
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		m.pending = rec
		m.confirm = confirmSave
		m.err = nil
		return m, nil

	case key.Matches(msg, keys.Delete):
		rec, ok := m.selected()
		if !ok {
			m.message = "No session selected"
			return m, nil
		}
		m.pending = rec
		m.confirm = confirmDelete
		m.err = nil
		return m, nil

	case key.Matches(msg, keys.Topic):
		m.focus = focusTopic
		return m, m.topic.Focus()
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m Model) confirmed() (tea.Model, tea.Cmd) {
	kind := m.confirm
	m.confirm = confirmNone

	switch kind {
	case confirmSave:
		rec, err := m.backend.Save(m.topicValue())
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		m.stopTicking()
		if st, err := m.backend.Status(); err == nil {
			m.status = st
		}
		m.reloadHistory()
		m.message = fmt.Sprintf("Saved %s: studied %s, rested %s", rec.Topic, format.Clock(rec.StudyDuration), format.Clock(rec.RestDuration))
		m.err = nil

	case confirmDelete:
		if err := m.backend.Delete(m.pending.ID.String()); err != nil {
			m.setErr(err)
			return m, nil
		}
		m.reloadHistory()
		m.message = fmt.Sprintf("Deleted session %s", m.pending.ID)
		m.err = nil
	}
	return m, nil
}

func (m *Model) startTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	m.tickGen++
	return m.tick()
}

func (m *Model) stopTicking() {
	m.ticking = false
	m.tickGen++
}

func (m Model) tick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *Model) setStatus(st tracker.Status, message string) {
	m.status = st
	m.message = message
	m.err = nil
}

func (m *Model) setErr(err error) {
	m.err = err
	m.message = ""
}

func (m *Model) reloadHistory() {
	records, err := m.backend.History()
	if err != nil {
		m.setErr(err)
		return
	}
	m.setRecords(records)
}

func (m *Model) setRecords(records []history.Record) {
	m.records = records

	rows := make([]table.Row, 0, len(records))
	for _, r := range format.Rows(records) {
		rows = append(rows, table.Row(r))
	}
	m.history.SetRows(rows)

	if c := m.history.Cursor(); c >= len(rows) {
		m.history.SetCursor(max(0, len(rows)-1))
	}
}

func (m Model) selected() (history.Record, bool) {
	c := m.history.Cursor()
	if c < 0 || c >= len(m.records) {
		return history.Record{}, false
	}
	return m.records[c], true
}

func (m Model) topicValue() string {
	return strings.TrimSpace(m.topic.Value())
}

func (m Model) View() string {
	var b strings.Builder

	mode := m.status.Mode
	b.WriteString(titleStyle.Render("StudyTimer"))
	b.WriteString("  ")
	b.WriteString(modeStyle(mode == timer.Studying, mode == timer.Resting).Render(mode.String()))
	b.WriteString("\n\n")

	clock := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("Study"), clockStyle.Render(format.Clock(m.status.Study)),
		"  ",
		labelStyle.Render("Rest"), clockStyle.Render(format.Clock(m.status.Rest)),
	)
	b.WriteString(boxStyle.Render(clock))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Topic: "))
	b.WriteString(m.topic.View())
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		b.WriteString(mutedStyle.Render("No saved sessions"))
	} else {
		b.WriteString(m.history.View())
	}
	b.WriteString("\n\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help()))
	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.confirm == confirmSave:
		r := m.pending
		return promptStyle.Render(fmt.Sprintf("Save %q (%s to %s, study %s, rest %s)? [y/n]",
			r.Topic,
			r.CreatedAt.Local().Format("15:04:05"),
			r.EndedAt.Local().Format("15:04:05"),
			format.Clock(r.StudyDuration),
			format.Clock(r.RestDuration),
		))
	case m.confirm == confirmDelete:
		return promptStyle.Render(fmt.Sprintf("Delete session %s (%s)? [y/n]", m.pending.ID, m.pending.Topic))
	case m.err != nil:
		return errorStyle.Render(describe(m.err))
	default:
		return m.message
	}
}

func (m Model) help() string {
	bindings := []key.Binding{keys.Start, keys.Pause, keys.Reset, keys.Save, keys.Delete, keys.Topic, keys.Quit}
	if m.confirm != confirmNone {
		bindings = []key.Binding{keys.Yes, keys.No}
	} else if m.focus == focusTopic {
		return "enter done"
	}

	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

func describe(err error) string {
	switch {
	case errors.Is(err, timer.ErrNoSession):
		return "Nothing to save: start a session first"
	case errors.Is(err, history.ErrStorageUnavailable):
		return "Could not write history, the session is kept: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
