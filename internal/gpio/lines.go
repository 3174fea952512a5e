// Package gpio feeds button levels from Linux GPIO character device lines.
package gpio

import (
	"fmt"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/zap"

	"github.com/pleimann/tap-pad/internal/config"
	"github.com/pleimann/tap-pad/internal/input"
)

// Lines holds the requested input lines. Each line is biased with a
// pull-up, so a released button reads high.
type Lines struct {
	logger *zap.SugaredLogger
	bank   *input.Bank
	lines  []*gpiocdev.Line
}

// Offsets maps each configured line offset to its button index
func Offsets(buttons []config.Button) map[int]int {
	offsets := make(map[int]int, len(buttons))
	for _, b := range buttons {
		if b.Line != nil {
			offsets[*b.Line] = b.Index
		}
	}
	return offsets
}

// ChipPath accepts "0", "gpiochip0" or "/dev/gpiochip0"
func ChipPath(chip string) string {
	if chip == "" {
		chip = "gpiochip0"
	}
	var n int
	if _, err := fmt.Sscanf(chip, "%d", &n); err == nil && !strings.HasPrefix(chip, "gpiochip") {
		chip = fmt.Sprintf("gpiochip%d", n)
	}
	if !strings.HasPrefix(chip, "/dev/") {
		chip = "/dev/" + chip
	}
	return chip
}

// Open requests every line in offsets as a pulled-up input with kernel
// debounce and edge events, and seeds bank with the current values
func Open(logger *zap.SugaredLogger, chip string, offsets map[int]int, bank *input.Bank, debounce time.Duration) (*Lines, error) {
	l := &Lines{
		logger: logger.Named("gpio"),
		bank:   bank,
	}
	path := ChipPath(chip)

	for offset, index := range offsets {
		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(l.handler(index)),
		}
		if debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(debounce))
		}

		line, err := gpiocdev.RequestLine(path, offset, opts...)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to request %s line %d: %w", path, offset, err)
		}
		l.lines = append(l.lines, line)

		value, err := line.Value()
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to read %s line %d: %w", path, offset, err)
		}
		bank.Set(index, value != 0)

		l.logger.Debugw("Line requested", "chip", path, "line", offset, "button", index, "value", value)
	}

	l.logger.Infow("GPIO lines ready", "chip", path, "lines", len(l.lines))
	return l, nil
}

func (l *Lines) handler(index int) func(gpiocdev.LineEvent) {
	return func(evt gpiocdev.LineEvent) {
		switch evt.Type {
		case gpiocdev.LineEventRisingEdge:
			l.bank.Set(index, true)
		case gpiocdev.LineEventFallingEdge:
			l.bank.Set(index, false)
		}
	}
}

// Close releases every requested line
func (l *Lines) Close() error {
	var firstErr error
	for _, line := range l.lines {
		if err := line.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.lines = nil
	return firstErr
}
