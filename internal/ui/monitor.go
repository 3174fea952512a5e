package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pleimann/tap-pad/internal/gesture"
	"github.com/pleimann/tap-pad/internal/pad"
)

const (
	monitorRefresh = 50 * time.Millisecond
	maxLogLines    = 12
)

// Controls drives simulated buttons from the keyboard
type Controls interface {
	Toggle(index int)
	Reset()
	Sleep()
	Wakeup()
}

// StateFunc returns the current button snapshot
type StateFunc func() []pad.State

type eventMsg pad.Event

type refreshMsg struct{}

// Monitor is a Bubble Tea model showing each button and a log of events.
// Events arrive on a channel fed by a pad subscriber.
type Monitor struct {
	title    string
	states   StateFunc
	events   <-chan pad.Event
	controls Controls

	rows   []pad.State
	log    []pad.Event
	asleep bool
	width  int
}

// NewMonitor creates a monitor. controls may be nil, which disables the
// simulation keys.
func NewMonitor(title string, states StateFunc, events <-chan pad.Event, controls Controls) *Monitor {
	return &Monitor{
		title:    title,
		states:   states,
		events:   events,
		controls: controls,
		rows:     states(),
	}
}

// Run shows the monitor until the user quits
func (m *Monitor) Run() error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Monitor) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), refresh())
}

func (m *Monitor) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func refresh() tea.Cmd {
	return tea.Tick(monitorRefresh, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case eventMsg:
		m.log = append(m.log, pad.Event(msg))
		if len(m.log) > maxLogLines {
			m.log = m.log[len(m.log)-maxLogLines:]
		}
		return m, m.waitForEvent()

	case refreshMsg:
		m.rows = m.states()
		return m, refresh()
	}
	return m, nil
}

func (m *Monitor) handleKey(key string) tea.Cmd {
	switch key {
	case "ctrl+c", "q", "esc":
		return tea.Quit
	}
	if m.controls == nil {
		return nil
	}

	switch key {
	case "r":
		m.controls.Reset()
	case "s":
		m.controls.Sleep()
		m.asleep = true
	case "w":
		m.controls.Wakeup()
		m.asleep = false
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			m.controls.Toggle(int(key[0] - '1'))
		}
	}
	return nil
}

func (m *Monitor) View() string {
	var b strings.Builder

	b.WriteString(Title(m.title))
	if m.asleep {
		b.WriteString("  " + WarningStyle.Render("asleep"))
	}
	b.WriteString("\n\n")

	rows := make([]string, 0, len(m.rows))
	for _, s := range m.rows {
		rows = append(rows, renderRow(s))
	}
	if len(rows) == 0 {
		rows = append(rows, Muted("no buttons configured"))
	}
	b.WriteString(PanelStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n\n")

	b.WriteString(Bold("Events"))
	b.WriteString("\n")
	if len(m.log) == 0 {
		b.WriteString(Muted("  waiting for input"))
		b.WriteString("\n")
	}
	for i := len(m.log) - 1; i >= 0; i-- {
		b.WriteString("  " + renderEvent(m.log[i]) + "\n")
	}
	b.WriteString("\n")

	help := "q quit"
	if m.controls != nil {
		help = "1-9 toggle button · r reset · s sleep · w wake · " + help
	}
	b.WriteString(Muted(help))

	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}

func renderRow(s pad.State) string {
	indicator := ButtonUpStyle.Render("○ up  ")
	if s.Down {
		indicator = ButtonDownStyle.Render("● down")
	}

	open := Muted("-")
	if s.Gesture != gesture.NoEvent {
		open = GestureStyle.Render(s.Gesture.String())
	}
	last := Muted("-")
	if s.Last != gesture.NoEvent {
		last = EventStyle.Render(s.Last.String())
	}

	return fmt.Sprintf("%s %s  %s  %s", ButtonNameStyle.Render(s.Name), indicator, open, last)
}

func renderEvent(ev pad.Event) string {
	return fmt.Sprintf("%s  %s %s",
		Muted(ev.At.Format("15:04:05.000")),
		ButtonNameStyle.Render(ev.Name),
		EventStyle.Render(ev.Event.String()),
	)
}
