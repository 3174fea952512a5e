// Package input provides level sources for gesture.Button: a latch fed by
// device drivers, a software debouncer for raw samplers, and a bank of
// latches addressed by button index.
package input

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Level is a digital level set by a driver goroutine and read by the poll
// loop. The zero value is not usable; create one with NewLevel.
type Level struct {
	clock clock.Clock

	mu        sync.Mutex
	high      bool
	changedAt time.Time
}

// NewLevel creates a latch holding the given initial level
func NewLevel(clk clock.Clock, high bool) *Level {
	return &Level{
		clock:     clk,
		high:      high,
		changedAt: clk.Now(),
	}
}

// Set stores the level and restarts the change clock if it differs
func (l *Level) Set(high bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.high == high {
		return
	}
	l.high = high
	l.changedAt = l.clock.Now()
}

// Toggle inverts the level and returns the new value
func (l *Level) Toggle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.high = !l.high
	l.changedAt = l.clock.Now()
	return l.high
}

// Read returns the current level
func (l *Level) Read() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.high
}

// SinceLastChange returns the time since the level last changed
func (l *Level) SinceLastChange() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clock.Since(l.changedAt)
}

// Resync restarts the change clock without changing the level
func (l *Level) Resync() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changedAt = l.clock.Now()
}
