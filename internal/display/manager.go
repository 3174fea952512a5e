// Package display renders button status to the pad's monochrome screen.
package display

import (
	"context"
	"regexp"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/pleimann/tap-pad/internal/config"
	"github.com/pleimann/tap-pad/internal/hid"
	"github.com/pleimann/tap-pad/internal/pad"
)

// FrameSender delivers display frames to the device
type FrameSender interface {
	SendFrame(frame *hid.DisplayFrame) error
}

// StateSource provides the button snapshot to draw
type StateSource interface {
	States() []pad.State
}

// OutputSource provides recent output of the hosted program
type OutputSource interface {
	RecentOutput() string
}

// Lines like "STATUS: building" in the hosted program's output set the
// status line
var statusPattern = regexp.MustCompile(`(?m)^STATUS:[ \t]*(.+?)[ \t\r]*$`)

// Manager periodically renders the panel and sends changed frames
type Manager struct {
	logger   *zap.SugaredLogger
	clock    clock.Clock
	sender   FrameSender
	states   StateSource
	output   OutputSource
	panel    *Panel
	renderer *Renderer
	interval time.Duration
}

// NewManager creates a manager for a cfg.Width x cfg.Height screen. output
// may be nil.
func NewManager(logger *zap.SugaredLogger, clk clock.Clock, cfg config.DisplayConfig, sender FrameSender, states StateSource, output OutputSource) *Manager {
	return &Manager{
		logger:   logger.Named("display"),
		clock:    clk,
		sender:   sender,
		states:   states,
		output:   output,
		panel:    NewPanel(),
		renderer: NewRenderer(cfg.Width, cfg.Height),
		interval: time.Duration(cfg.UpdateIntervalMs) * time.Millisecond,
	}
}

// Panel returns the panel, e.g. to subscribe it to pad events
func (m *Manager) Panel() *Panel { return m.panel }

// Run refreshes the screen every update interval until ctx is done, then
// clears it
func (m *Manager) Run(ctx context.Context) {
	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := m.sender.SendFrame(hid.NewClearCommand()); err != nil {
				m.logger.Debugw("Failed to clear display", "error", err)
			}
			return
		case <-ticker.C:
			m.Refresh()
		}
	}
}

// Refresh pulls the latest state and sends a frame if the panel changed. It
// reports whether frames were sent.
func (m *Manager) Refresh() bool {
	m.panel.SetStates(m.states.States())
	if m.output != nil {
		if status, ok := parseStatus(m.output.RecentOutput()); ok {
			m.panel.SetStatus(status)
		}
	}

	if !m.panel.Draw(m.renderer) {
		return false
	}

	frames := hid.ChunkFrame(m.renderer.Width(), m.renderer.Height(), m.renderer.Pack())
	for _, frame := range frames {
		if err := m.sender.SendFrame(frame); err != nil {
			// Device is probably away; the next change redraws everything
			m.logger.Debugw("Failed to send frame", "error", err)
			m.panel.invalidate()
			return false
		}
	}
	return true
}

// parseStatus returns the last STATUS line in output
func parseStatus(output string) (string, bool) {
	matches := statusPattern.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1][1], true
}
