package input

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDebounceInterval is how long a raw level must hold before it is
// accepted
const DefaultDebounceInterval = 10 * time.Millisecond

// Sampler returns the instantaneous, possibly noisy, level of a pin
type Sampler interface {
	Sample() bool
}

// SamplerFunc adapts a function to Sampler
type SamplerFunc func() bool

// Sample calls f
func (f SamplerFunc) Sample() bool { return f() }

// Debouncer filters a Sampler: a new raw level is accepted once it has been
// sampled unchanged for the debounce interval. It samples on every Read, so
// the poll loop drives it.
type Debouncer struct {
	sampler  Sampler
	clock    clock.Clock
	interval time.Duration

	raw        bool
	rawSince   time.Time
	stable     bool
	stableFrom time.Time
}

// NewDebouncer creates a debouncer seeded with the sampler's current level
func NewDebouncer(sampler Sampler, clk clock.Clock, interval time.Duration) *Debouncer {
	if interval < 0 {
		interval = 0
	}
	now := clk.Now()
	level := sampler.Sample()
	return &Debouncer{
		sampler:    sampler,
		clock:      clk,
		interval:   interval,
		raw:        level,
		rawSince:   now,
		stable:     level,
		stableFrom: now,
	}
}

// Read samples the pin and returns the debounced level
func (d *Debouncer) Read() bool {
	now := d.clock.Now()
	if level := d.sampler.Sample(); level != d.raw {
		d.raw = level
		d.rawSince = now
	}
	if d.raw != d.stable && now.Sub(d.rawSince) >= d.interval {
		d.stable = d.raw
		d.stableFrom = now
	}
	return d.stable
}

// SinceLastChange returns the time since the debounced level last changed
func (d *Debouncer) SinceLastChange() time.Duration {
	return d.clock.Since(d.stableFrom)
}

// Resync restarts the change clock and accepts the current raw level as
// stable
func (d *Debouncer) Resync() {
	now := d.clock.Now()
	d.raw = d.sampler.Sample()
	d.rawSince = now
	d.stable = d.raw
	d.stableFrom = now
}

// Interval returns the debounce interval
func (d *Debouncer) Interval() time.Duration { return d.interval }
