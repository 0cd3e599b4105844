package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

const historyCapacity = 600

// Monitor is the live view of one run.
type Monitor struct {
	title    string
	duration float64

	last    RecordMsg
	seen    bool
	holding bool
	trials  int

	tilt   []float64
	alt    []float64
	reward []float64
	td     []float64

	frozen bool
	done   bool
	err    error
	width  int
}

func NewMonitor(title string, duration float64) Monitor {
	return Monitor{
		title:    title,
		duration: duration,
		tilt:     make([]float64, 0, historyCapacity),
		alt:      make([]float64, 0, historyCapacity),
		reward:   make([]float64, 0, historyCapacity),
		td:       make([]float64, 0, historyCapacity),
		width:    80,
	}
}

func push(buf []float64, v float64) []float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if len(buf) == historyCapacity {
		copy(buf, buf[1:])
		buf = buf[:historyCapacity-1]
	}
	return append(buf, v)
}

func (m Monitor) Init() tea.Cmd { return nil }

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case RecordMsg:
		if msg.Holding && !m.holding {
			m.trials++
		}
		m.holding = msg.Holding
		if m.frozen {
			return m, nil
		}
		m.last = msg
		m.seen = true
		m.tilt = push(m.tilt, msg.State[dynamo.Tilt])
		m.alt = push(m.alt, msg.State[dynamo.PosZ])
		m.reward = push(m.reward, msg.Reward)
		m.td = push(m.td, msg.Signals.TDError)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Result != nil {
			m.trials = len(msg.Result.Trials)
		}
	}
	return m, nil
}

// Trials counts holds seen so far.
func (m Monitor) Trials() int { return m.trials }

func (m Monitor) Done() bool { return m.done }

func (m Monitor) Err() error { return m.err }

func (m Monitor) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("FAILED")
	case m.done:
		return StatusDone.Render("DONE")
	case m.holding:
		return StatusHold.Render("HOLD")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func (m Monitor) View() string {
	var s strings.Builder
	s.WriteString(Title.Render(m.title) + "  " + m.status())
	if m.frozen {
		s.WriteString("  " + Subtle.Render("(frozen)"))
	}
	s.WriteString("\n\n")

	if !m.seen {
		s.WriteString(Subtle.Render("waiting for the first record...") + "\n")
		return s.String()
	}

	x := m.last.State
	var stats strings.Builder
	row := func(label, value string) {
		stats.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3fs", m.last.Time))
	row("Tilt", fmt.Sprintf("%+.4f rad", x[dynamo.Tilt]))
	row("Tilt rate", fmt.Sprintf("%+.3f rad/s", x[dynamo.TiltRate]))
	row("Altitude", fmt.Sprintf("%.4f m", x[dynamo.PosZ]))
	row("Reward", fmt.Sprintf("%+.2f", m.last.Reward))
	row("Value", fmt.Sprintf("%+.3f", m.last.Signals.Value))
	row("TD error", fmt.Sprintf("%+.3f", m.last.Signals.TDError))
	row("Policy", fmt.Sprintf("%+.3e", m.last.Signals.Policy))
	row("Trials", fmt.Sprintf("%d", m.trials))

	charts := asciigraph.Plot(m.tilt, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption("tilt (rad)"))
	if len(m.reward) > 1 {
		charts += "\n\n" + asciigraph.Plot(m.reward, asciigraph.Height(4), asciigraph.Width(40), asciigraph.Caption("reward"))
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, Panel.Render(stats.String()), "  ", charts))
	s.WriteString("\n\n")

	if m.duration > 0 {
		s.WriteString(ProgressBar(m.last.Time/m.duration, 40) + "\n")
	}
	s.WriteString("altitude " + Sparkline(m.alt, 40) + "\n")
	s.WriteString("td error " + Sparkline(m.td, 40) + "\n\n")
	s.WriteString(KeyHint.Render("space freeze • q quit"))
	return s.String()
}
