package viz

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nash169/RoboBrain/internal/sim"
)

// RecordMsg carries one simulation record into the monitor.
type RecordMsg sim.Record

// DoneMsg ends the run.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// Feed forwards every Nth record, plus every hold transition, to a running
// program. It is a sim.Observer.
type Feed struct {
	send    func(tea.Msg)
	every   int
	n       int
	holding bool
}

func NewFeed(p *tea.Program, every int) *Feed {
	return NewFeedFunc(p.Send, every)
}

func NewFeedFunc(send func(tea.Msg), every int) *Feed {
	if every < 1 {
		every = 1
	}
	return &Feed{send: send, every: every}
}

func (f *Feed) OnRecord(r sim.Record) {
	f.n++
	changed := r.Holding != f.holding
	f.holding = r.Holding
	if !changed && f.n%f.every != 0 {
		return
	}
	f.send(RecordMsg(r))
}
