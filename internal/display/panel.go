package display

import (
	"fmt"
	"sync"

	"github.com/pleimann/tap-pad/internal/gesture"
	"github.com/pleimann/tap-pad/internal/pad"
)

const (
	boxHeight = 10
	margin    = 2
)

// Panel is the status screen: one box per button, lit while the button is
// down, followed by the last event and a status line
type Panel struct {
	mu     sync.Mutex
	states []pad.State
	last   *pad.Event
	status string
	dirty  bool
}

// NewPanel creates an empty panel that needs a first render
func NewPanel() *Panel {
	return &Panel{dirty: true}
}

// Handle records ev as the last event. It is a pad subscriber.
func (p *Panel) Handle(ev pad.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = &ev
	p.dirty = true
}

// SetStates replaces the button snapshot
func (p *Panel) SetStates(states []pad.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if statesEqual(p.states, states) {
		return
	}
	p.states = states
	p.dirty = true
}

// SetStatus sets the bottom line
func (p *Panel) SetStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == status {
		return
	}
	p.status = status
	p.dirty = true
}

func (p *Panel) invalidate() {
	p.mu.Lock()
	p.dirty = true
	p.mu.Unlock()
}

// Draw renders the panel into r if anything changed since the last draw.
// It reports whether it drew.
func (p *Panel) Draw(r *Renderer) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.dirty {
		return false
	}
	p.dirty = false

	r.Clear()
	p.drawButtons(r)

	lineHeight := r.LineHeight()
	baseline := boxHeight + margin + r.Ascent()
	width := r.Width() - 2*margin

	if p.last != nil {
		r.DrawTextFit(margin, baseline, width, fmt.Sprintf("%s %s", p.last.Name, p.last.Event))
		baseline += lineHeight
		if p.last.Gesture != gesture.NoEvent {
			r.DrawTextFit(margin, baseline, width, p.last.Gesture.String())
		}
	}
	if p.status != "" {
		r.DrawTextFit(margin, r.Height()-r.LineHeight()+r.Ascent(), width, p.status)
	}
	return true
}

func (p *Panel) drawButtons(r *Renderer) {
	n := len(p.states)
	if n == 0 {
		return
	}

	cell := r.Width() / n
	for i, s := range p.states {
		x := i * cell
		w := cell - margin
		if w < 1 {
			w = 1
		}
		if s.Down {
			r.FillRect(x, 0, w, boxHeight)
		} else {
			r.DrawRect(x, 0, w, boxHeight)
		}
		if !s.Down && s.Gesture != gesture.NoEvent {
			// Gesture still open, e.g. waiting out the double tap interval
			r.FillRect(x+w/2-1, boxHeight/2-1, 2, 2)
		}
	}
}

func statesEqual(a, b []pad.State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
