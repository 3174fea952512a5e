package gesture

import "math/bits"

type callbackKind uint8

const (
	callbackNone callbackKind = iota
	callbackSimple
	callbackWithInfo
)

// callback is one slot of the dispatch table. Exactly one of simple and
// withInfo is set, according to kind.
type callback struct {
	kind     callbackKind
	simple   func()
	withInfo func(EventInfo)
}

func (c callback) fire(info EventInfo) {
	switch c.kind {
	case callbackSimple:
		c.simple()
	case callbackWithInfo:
		c.withInfo(info)
	}
}

// Callback registers fn for every event in forEvents, replacing whatever was
// registered for those events before. Passing AllEvents sets the catch-all,
// which only receives events that have no registration of their own. A nil
// fn clears the registration.
func (b *Button) Callback(fn func(), forEvents Event) {
	cb := callback{}
	if fn != nil {
		cb = callback{kind: callbackSimple, simple: fn}
	}
	b.register(cb, forEvents)
}

// CallbackWithInfo is like Callback but fn receives the button and the event
// that fired.
func (b *Button) CallbackWithInfo(fn func(EventInfo), forEvents Event) {
	cb := callback{}
	if fn != nil {
		cb = callback{kind: callbackWithInfo, withInfo: fn}
	}
	b.register(cb, forEvents)
}

func (b *Button) register(cb callback, forEvents Event) {
	if forEvents == AllEvents {
		b.catchAll = cb
		return
	}
	for m := uint16(forEvents); m != 0; m &= m - 1 {
		b.callbacks[bits.TrailingZeros16(m)] = cb
	}
}

// dispatch fires callbacks for each bit of events, lowest bit first
func (b *Button) dispatch(events Event) {
	for m := uint16(events); m != 0; m &= m - 1 {
		i := bits.TrailingZeros16(m)
		info := EventInfo{Button: b, Event: Event(1) << i}
		if cb := b.callbacks[i]; cb.kind != callbackNone {
			cb.fire(info)
			continue
		}
		b.catchAll.fire(info)
	}
}
