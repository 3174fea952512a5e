// Package pad drives a set of gesture buttons from one poll loop.
package pad

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/pleimann/tap-pad/internal/config"
	"github.com/pleimann/tap-pad/internal/gesture"
	"github.com/pleimann/tap-pad/internal/input"
)

const defaultPollInterval = 5 * time.Millisecond

// Event is a single button event as seen by subscribers
type Event struct {
	Button  int
	Name    string
	Event   gesture.Event
	Gesture gesture.Event // events fired so far in the gesture, including Event
	At      time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Event, e.Name)
}

// State is a snapshot of one button taken at the end of a poll
type State struct {
	Button  int
	Name    string
	Down    bool
	Gesture gesture.Event
	Last    gesture.Event
}

// Options configures a Pad
type Options struct {
	// Debounce wraps every bank level in a software debouncer when positive
	Debounce time.Duration
}

type slot struct {
	index  int
	name   string
	button *gesture.Button
	rules  map[gesture.Event]gesture.Event
	last   gesture.Event

	// what the last snapshot showed
	shownDown    bool
	shownGesture gesture.Event
}

// stale reports whether the button moved since the last snapshot. Suppressed
// releases and swallowed presses change it without firing anything.
func (s *slot) stale() bool {
	return s.button.Down() != s.shownDown || s.button.Gesture() != s.shownGesture
}

// Pad owns one gesture.Button per configured button. All button state is
// touched only from the goroutine running Poll; other goroutines reach it
// through Apply.
type Pad struct {
	logger   *zap.SugaredLogger
	clock    clock.Clock
	bank     *input.Bank
	opts     Options
	interval time.Duration

	slots  []*slot
	inputs map[int]gesture.Input
	asleep bool

	mu      sync.Mutex
	pending []func()

	subMu       sync.RWMutex
	subscribers []func(Event)

	stateMu sync.RWMutex
	states  []State
}

// New creates a pad reading levels from bank and configures it from cfg
func New(logger *zap.SugaredLogger, clk clock.Clock, bank *input.Bank, cfg *config.Config, opts Options) (*Pad, error) {
	p := &Pad{
		logger: logger.Named("pad"),
		clock:  clk,
		bank:   bank,
		opts:   opts,
		inputs: make(map[int]gesture.Input),
	}
	if err := p.configure(cfg); err != nil {
		return nil, err
	}
	p.snapshot()
	return p, nil
}

// Subscribe registers fn for every event fired by any button. Subscribers
// run on the poll goroutine and must not block.
func (p *Pad) Subscribe(fn func(Event)) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// Apply queues fn to run on the poll goroutine before the next update
func (p *Pad) Apply(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, fn)
}

// Configure queues a reconfiguration. Buttons that keep their index keep
// their gesture state; new indices get fresh buttons.
func (p *Pad) Configure(cfg *config.Config) {
	p.Apply(func() {
		if err := p.configure(cfg); err != nil {
			p.logger.Warnw("Failed to apply config", "error", err)
			return
		}
		p.logger.Infow("Pad reconfigured", "buttons", len(p.slots))
	})
}

// Sleep queues a sleep of every button. Polls skip updates until Wakeup.
func (p *Pad) Sleep() {
	p.Apply(func() {
		if p.asleep {
			return
		}
		p.asleep = true
		for _, s := range p.slots {
			s.button.Sleep()
		}
		p.logger.Debugw("Pad asleep")
	})
}

// Wakeup queues a wakeup of every button
func (p *Pad) Wakeup() {
	p.Apply(func() {
		if !p.asleep {
			return
		}
		p.asleep = false
		for _, s := range p.slots {
			s.button.Wakeup()
		}
		p.logger.Debugw("Pad awake")
	})
}

// Reset queues a reset of every button
func (p *Pad) Reset() {
	p.Apply(func() {
		for _, s := range p.slots {
			s.button.Reset()
			s.last = gesture.NoEvent
		}
	})
}

// Asleep reports whether the pad is sleeping. Only meaningful on the poll
// goroutine.
func (p *Pad) Asleep() bool { return p.asleep }

// Poll runs queued work, then updates every button in index order. It
// reports whether any event fired.
func (p *Pad) Poll() bool {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, fn := range pending {
		fn()
	}

	fired, changed := false, len(pending) > 0
	if !p.asleep {
		for _, s := range p.slots {
			if s.button.Update() {
				fired = true
			}
			if s.stale() {
				changed = true
			}
		}
	}

	if fired || changed {
		p.snapshot()
	}
	return fired
}

// Run polls at the configured interval until ctx is cancelled
func (p *Pad) Run(ctx context.Context) error {
	interval := p.interval
	ticker := p.clock.Ticker(interval)
	defer ticker.Stop()

	p.logger.Infow("Poll loop started", "interval", p.interval, "buttons", len(p.slots))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debugw("Poll loop stopped")
			return nil
		case <-ticker.C:
			p.Poll()
			if p.interval != interval {
				interval = p.interval
				ticker.Reset(interval)
			}
		}
	}
}

// States returns the button snapshot taken after the last poll in which any
// button changed level or gesture
func (p *Pad) States() []State {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	out := make([]State, len(p.states))
	copy(out, p.states)
	return out
}

// Button returns the gesture button for index, or nil. Only safe on the
// poll goroutine.
func (p *Pad) Button(index int) *gesture.Button {
	for _, s := range p.slots {
		if s.index == index {
			return s.button
		}
	}
	return nil
}

func (p *Pad) configure(cfg *config.Config) error {
	existing := make(map[int]*slot, len(p.slots))
	for _, s := range p.slots {
		existing[s.index] = s
	}

	slots := make([]*slot, 0, len(cfg.Buttons))
	for _, bc := range cfg.Buttons {
		s, ok := existing[bc.Index]
		if !ok {
			in, err := p.input(bc.Index)
			if err != nil {
				return err
			}
			s = &slot{index: bc.Index}
			s.button = gesture.NewButton(in)
			s.button.SetID(bc.Index)
			s.button.CallbackWithInfo(p.handler(s), gesture.AllEvents)
		}

		s.name = bc.Label()
		s.rules = bc.SuppressRules()
		s.button.SetHoldDuration(bc.HoldDuration(cfg.Timing))
		s.button.SetDoubleTapInterval(bc.DoubleTapInterval(cfg.Timing))
		s.button.SetInverted(bc.IsInverted(cfg.Source))
		slots = append(slots, s)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].index < slots[j].index })

	p.slots = slots
	p.interval = cfg.Timing.PollInterval()
	if p.interval <= 0 {
		p.interval = defaultPollInterval
	}
	return nil
}

func (p *Pad) input(index int) (gesture.Input, error) {
	if in, ok := p.inputs[index]; ok {
		return in, nil
	}

	level := p.bank.Level(index)
	if level == nil {
		return nil, fmt.Errorf("button %d has no input (bank has %d levels)", index, p.bank.Len())
	}

	var in gesture.Input = level
	if p.opts.Debounce > 0 {
		in = input.NewDebouncer(input.SamplerFunc(level.Read), p.clock, p.opts.Debounce)
	}
	p.inputs[index] = in
	return in, nil
}

func (p *Pad) handler(s *slot) func(gesture.EventInfo) {
	return func(info gesture.EventInfo) {
		mask, ok := s.rules[info.Event]
		if !ok {
			mask = s.rules[gesture.AllEvents]
		}
		if mask != gesture.NoEvent {
			info.Button.SuppressOnce(mask)
		}
		s.last = info.Event

		ev := Event{
			Button:  s.index,
			Name:    s.name,
			Event:   info.Event,
			Gesture: info.Button.Gesture(),
			At:      p.clock.Now(),
		}
		p.logger.Debugw("Button event", "button", ev.Name, "event", ev.Event.String())

		p.subMu.RLock()
		subscribers := p.subscribers
		p.subMu.RUnlock()
		for _, fn := range subscribers {
			fn(ev)
		}
	}
}

func (p *Pad) snapshot() {
	states := make([]State, len(p.slots))
	for i, s := range p.slots {
		s.shownDown = s.button.Down()
		s.shownGesture = s.button.Gesture()
		states[i] = State{
			Button:  s.index,
			Name:    s.name,
			Down:    s.button.Down(),
			Gesture: s.button.Gesture(),
			Last:    s.last,
		}
	}

	p.stateMu.Lock()
	p.states = states
	p.stateMu.Unlock()
}
