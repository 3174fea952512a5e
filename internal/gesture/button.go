package gesture

import "time"

// Input is a debounced digital level. Read returns the stable level and
// SinceLastChange the time since that level last flipped.
//
// Button polls an Input once per Update. The input must be polled much more
// often than the configured hold duration and double tap interval; if the
// level flips more than once between two polls the result is undefined.
type Input interface {
	Read() bool
	SinceLastChange() time.Duration
}

// Resyncer is implemented by inputs that can restart their change clock.
// Button.Wakeup calls it when available.
type Resyncer interface {
	Resync()
}

// Default timing
const (
	DefaultHoldDuration      = 400 * time.Millisecond
	DefaultDoubleTapInterval = 150 * time.Millisecond

	// MinDuration is the smallest accepted hold duration or double tap
	// interval. Smaller values are clamped.
	MinDuration = time.Millisecond
)

type phase uint8

const (
	phaseIdle phase = iota
	phasePressed
	phaseHeld
	phaseAwaitingTap
)

// Button turns the level of an Input into press, release, tap, double tap
// and hold events.
//
// A Button is not safe for concurrent use. All methods, including callbacks
// registered on it, run on the goroutine that calls Update.
type Button struct {
	input Input
	id    int

	inverted          bool
	holdDuration      time.Duration
	doubleTapInterval time.Duration

	level     bool // raw level seen on the previous Update
	phase     phase
	secondTap bool // current press is the second press of a double tap
	pressed   bool
	released  bool
	skew      time.Duration // subtracted from SinceLastChange after Wakeup

	current  Event
	gesture  Event
	suppress Event

	callbacks [EventCount]callback
	catchAll  callback
	detectors []func(*Button) Event
}

// NewButton creates a button reading from input with default timing and
// inverted (pull-up) wiring.
func NewButton(input Input) *Button {
	b := &Button{
		input:             input,
		inverted:          true,
		holdDuration:      DefaultHoldDuration,
		doubleTapInterval: DefaultDoubleTapInterval,
	}
	b.level = input.Read()
	return b
}

// ID returns the caller assigned identifier, 0 by default
func (b *Button) ID() int { return b.id }

// SetID assigns an identifier, typically the physical button index
func (b *Button) SetID(id int) { b.id = id }

// Update polls the input once and advances the state machine. Callbacks for
// the events that fired run before Update returns. It reports whether any
// event fired.
func (b *Button) Update() bool {
	b.current = NoEvent
	b.pressed = false
	b.released = false

	closing := false
	level := b.input.Read()
	if level != b.level {
		b.level = level
		b.skew = 0
		if b.Down() {
			b.onPress()
		} else {
			closing = b.onRelease()
		}
	} else {
		closing = b.onSteady(b.elapsed())
	}

	for _, detect := range b.detectors {
		b.trigger(detect(b) & userEvents)
	}

	if closing {
		// The gesture mask survives until callbacks have run. Suppression
		// requested from a callback applies to the next gesture.
		b.phase = phaseIdle
		b.secondTap = false
		b.suppress = NoEvent
	}

	fired := b.current
	if fired != NoEvent {
		b.dispatch(fired)
	}
	if closing {
		b.gesture = NoEvent
	}
	return fired != NoEvent
}

func (b *Button) onPress() {
	b.pressed = true
	if b.phase == phaseAwaitingTap {
		b.secondTap = true
		b.trigger(Press | DoubleTap)
	} else {
		b.secondTap = false
		b.trigger(Press)
	}
	b.phase = phasePressed
}

func (b *Button) onRelease() (closing bool) {
	b.released = true
	switch b.phase {
	case phasePressed:
		b.trigger(Release | ShortRelease)
		if b.secondTap {
			return true
		}
		b.phase = phaseAwaitingTap
	case phaseHeld:
		b.trigger(Release | LongRelease)
		return true
	}
	return false
}

func (b *Button) onSteady(elapsed time.Duration) (closing bool) {
	switch b.phase {
	case phasePressed:
		if elapsed >= b.holdDuration {
			b.trigger(Hold)
			b.phase = phaseHeld
		}
	case phaseAwaitingTap:
		if elapsed >= b.doubleTapInterval {
			b.trigger(SingleTap)
			return true
		}
	}
	return false
}

func (b *Button) trigger(events Event) {
	suppress := b.suppress
	if suppress&Release != 0 {
		// Release is the superset of the release refinements.
		suppress |= ShortRelease | LongRelease
	}
	events &^= suppress
	b.current |= events
	b.gesture |= events
}

// closeGesture ends the gesture and consumes pending suppression
func (b *Button) closeGesture() {
	b.phase = phaseIdle
	b.secondTap = false
	b.gesture = NoEvent
	b.suppress = NoEvent
}

// Elapsed returns the time since the level last changed, measured from
// Wakeup if the button has not seen a change since.
func (b *Button) Elapsed() time.Duration {
	return b.elapsed()
}

func (b *Button) elapsed() time.Duration {
	since := b.input.SinceLastChange()
	if since < b.skew {
		b.skew = 0
	}
	return since - b.skew
}

// Reset clears the current events, the gesture and any pending suppression.
// A press in progress is forgotten: it no longer fires Hold and its release
// fires no events. Timing, inversion and callbacks are kept.
func (b *Button) Reset() {
	b.current = NoEvent
	b.pressed = false
	b.released = false
	b.closeGesture()
}

// Sleep prepares the button for a power-down period. Call Wakeup when the
// host resumes.
func (b *Button) Sleep() {
	b.Reset()
}

// Wakeup resynchronizes the button with its input after a power-down, so the
// time spent asleep is not mistaken for a hold and a level change while
// asleep is not reported as a press or release.
func (b *Button) Wakeup() {
	if r, ok := b.input.(Resyncer); ok {
		r.Resync()
	}
	b.level = b.input.Read()
	b.skew = b.input.SinceLastChange()
	b.Reset()
}

// Down reports whether the button is currently held down
func (b *Button) Down() bool { return b.level != b.inverted }

// Pressed reports whether the button went down during the last Update
func (b *Button) Pressed() bool { return b.pressed }

// Released reports whether the button went up during the last Update
func (b *Button) Released() bool { return b.released }

// Activity reports whether any event fired during the last Update
func (b *Button) Activity() bool { return b.current != NoEvent }

// Triggered reports whether any of events fired during the last Update
func (b *Button) Triggered(events Event) bool { return b.current&events != 0 }

// GestureStarted reports whether a gesture is in progress
func (b *Button) GestureStarted() bool { return b.gesture != NoEvent }

// GestureIncludes reports whether any of events fired during the current
// gesture
func (b *Button) GestureIncludes(events Event) bool { return b.gesture&events != 0 }

// SuppressOnce stops events from firing for the rest of the current gesture,
// or for the next gesture when none is in progress. Suppressing Release also
// suppresses ShortRelease and LongRelease.
func (b *Button) SuppressOnce(events Event) { b.suppress |= events }

// Current returns the events fired during the last Update
func (b *Button) Current() Event { return b.current }

// Gesture returns the events fired since the current gesture began
func (b *Button) Gesture() Event { return b.gesture }

// Suppressed returns the events pending suppression
func (b *Button) Suppressed() Event { return b.suppress }

// HoldDuration is the minimum time the button must be down to fire Hold
func (b *Button) HoldDuration() time.Duration { return b.holdDuration }

// SetHoldDuration sets the hold duration, clamped to MinDuration
func (b *Button) SetHoldDuration(d time.Duration) { b.holdDuration = clamp(d) }

// DoubleTapInterval is the longest gap between a short release and the next
// press that still fires DoubleTap
func (b *Button) DoubleTapInterval() time.Duration { return b.doubleTapInterval }

// SetDoubleTapInterval sets the double tap interval, clamped to MinDuration
func (b *Button) SetDoubleTapInterval(d time.Duration) { b.doubleTapInterval = clamp(d) }

// Inverted reports whether a low input level means the button is down. This
// is the default and matches a normally-open button between a pull-up input
// and ground.
func (b *Button) Inverted() bool { return b.inverted }

// SetInverted changes how subsequent reads are interpreted
func (b *Button) SetInverted(inverted bool) { b.inverted = inverted }

// Detect adds an extension evaluated at the end of every Update. Bits it
// returns outside the UserEvent range are ignored; the rest fire like
// built-in events.
func (b *Button) Detect(fn func(*Button) Event) {
	b.detectors = append(b.detectors, fn)
}

func clamp(d time.Duration) time.Duration {
	if d < MinDuration {
		return MinDuration
	}
	return d
}
