package action

import (
	"sync"

	"github.com/pleimann/tap-pad/internal/config"
	"github.com/pleimann/tap-pad/internal/gesture"
)

type binding struct {
	button int
	event  gesture.Event
}

// Mapper maps a button event to a key sequence
type Mapper struct {
	mu       sync.RWMutex
	bindings map[binding][]string
}

// NewMapper builds the bindings from each button's actions. An action named
// "all" binds every event without a binding of its own.
func NewMapper(cfg *config.Config) *Mapper {
	m := &Mapper{}
	m.bindings = build(cfg)
	return m
}

func build(cfg *config.Config) map[binding][]string {
	bindings := make(map[binding][]string)
	for _, btn := range cfg.Buttons {
		for name, act := range btn.Actions {
			ev, err := gesture.ParseEvent(name)
			if err != nil || len(act.Keys) == 0 {
				continue
			}
			bindings[binding{button: btn.Index, event: ev}] = act.Keys
		}
	}
	return bindings
}

// Map returns the keys bound to event on button, or nil
func (m *Mapper) Map(button int, event gesture.Event) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if keys, ok := m.bindings[binding{button, event}]; ok {
		return keys
	}
	return m.bindings[binding{button, gesture.AllEvents}]
}

// Len returns the number of bindings
func (m *Mapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bindings)
}

// Reload replaces the bindings with those in cfg
func (m *Mapper) Reload(cfg *config.Config) {
	bindings := build(cfg)

	m.mu.Lock()
	m.bindings = bindings
	m.mu.Unlock()
}
