package gesture

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Event is a bitmask of button events. A single bit names one event; bits
// combined with | mean "any of these events".
type Event uint16

const (
	// NoEvent is the empty mask
	NoEvent Event = 0

	// Press fires on every transition into the pressed level
	Press Event = 0x01
	// Release fires on every transition out of the pressed level
	Release Event = 0x02
	// ShortRelease fires on a release before the hold duration elapsed
	ShortRelease Event = 0x04
	// SingleTap fires when a short release is not followed by a press within
	// the double tap interval
	SingleTap Event = 0x08
	// DoubleTap fires when a short release is followed by a press within the
	// double tap interval
	DoubleTap Event = 0x10
	// Hold fires once when the button has been down for the hold duration
	Hold Event = 0x20
	// LongRelease fires on a release after Hold
	LongRelease Event = 0x40

	// UserEvent is the first bit available to Detect extensions
	UserEvent Event = 0x100

	// AllEvents matches every event
	AllEvents Event = 0xFFFF
)

// EventCount is the number of distinct event bits
const EventCount = 16

// userEvents is the range reserved for extensions
const userEvents = AllEvents &^ (UserEvent - 1)

var eventNames = map[Event]string{
	Press:        "press",
	Release:      "release",
	ShortRelease: "short_release",
	SingleTap:    "single_tap",
	DoubleTap:    "double_tap",
	Hold:         "hold",
	LongRelease:  "long_release",
}

// Bits returns the single-bit events contained in e, lowest bit first
func (e Event) Bits() []Event {
	var out []Event
	for m := uint16(e); m != 0; m &= m - 1 {
		out = append(out, Event(1)<<bits.TrailingZeros16(m))
	}
	return out
}

// Has reports whether any bit of mask is set in e
func (e Event) Has(mask Event) bool {
	return e&mask != 0
}

func (e Event) String() string {
	switch e {
	case NoEvent:
		return "none"
	case AllEvents:
		return "all"
	}

	parts := make([]string, 0, bits.OnesCount16(uint16(e)))
	for _, b := range e.Bits() {
		if name, ok := eventNames[b]; ok {
			parts = append(parts, name)
			continue
		}
		if b >= UserEvent {
			parts = append(parts, fmt.Sprintf("user(%d)", bits.TrailingZeros16(uint16(b))-8))
			continue
		}
		parts = append(parts, fmt.Sprintf("unknown(0x%02X)", uint16(b)))
	}
	return strings.Join(parts, "|")
}

// ParseEvent parses a single event name as produced by String. Extension
// bits are written as "user(n)" with n in 0..7.
func ParseEvent(name string) (Event, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "all":
		return AllEvents, nil
	case "", "none":
		return NoEvent, fmt.Errorf("empty event name")
	}

	for ev, n := range eventNames {
		if n == name {
			return ev, nil
		}
	}

	if strings.HasPrefix(name, "user(") && strings.HasSuffix(name, ")") {
		n, err := strconv.Atoi(name[len("user(") : len(name)-1])
		if err != nil {
			return NoEvent, fmt.Errorf("invalid user event: %q", name)
		}
		if n < 0 || n > 7 {
			return NoEvent, fmt.Errorf("user event out of range: %d", n)
		}
		return UserEvent << n, nil
	}

	return NoEvent, fmt.Errorf("unknown event: %q", name)
}

// ParseEvents parses and combines a list of event names
func ParseEvents(names []string) (Event, error) {
	var mask Event
	for _, name := range names {
		ev, err := ParseEvent(name)
		if err != nil {
			return NoEvent, err
		}
		mask |= ev
	}
	return mask, nil
}

// EventInfo identifies the button and the single event passed to a
// CallbackWithInfo handler.
type EventInfo struct {
	Button *Button
	Event  Event
}

func (i EventInfo) String() string {
	if i.Button == nil {
		return i.Event.String()
	}
	return fmt.Sprintf("%s(%d)", i.Event, i.Button.ID())
}
