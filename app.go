package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/pleimann/tap-pad/internal/action"
	"github.com/pleimann/tap-pad/internal/config"
	"github.com/pleimann/tap-pad/internal/display"
	"github.com/pleimann/tap-pad/internal/gpio"
	"github.com/pleimann/tap-pad/internal/hid"
	"github.com/pleimann/tap-pad/internal/input"
	"github.com/pleimann/tap-pad/internal/midi"
	"github.com/pleimann/tap-pad/internal/pad"
	"github.com/pleimann/tap-pad/internal/pty"
)

const actionQueueSize = 32

// inputs is the opened button source and the bank it feeds
type inputs struct {
	logger *zap.SugaredLogger
	bank   *input.Bank
	device *hid.Device // set for the hid source
	closer io.Closer
	reconn time.Duration
}

// openInputs opens the source named in cfg. With simulate set nothing is
// opened and the bank is driven by hand.
func openInputs(logger *zap.SugaredLogger, clk clock.Clock, cfg *config.Config, simulate bool) (*inputs, error) {
	bank, err := input.NewBank(clk, input.MaxBankSize)
	if err != nil {
		return nil, err
	}
	in := &inputs{
		logger: logger,
		bank:   bank,
		reconn: time.Duration(cfg.Device.ReconnectIntervalMs) * time.Millisecond,
	}
	if simulate {
		// Start every button released
		for _, b := range cfg.Buttons {
			bank.Set(b.Index, b.IsInverted(cfg.Source))
		}
		return in, nil
	}

	switch cfg.Source {
	case config.SourceHID:
		dev, err := hid.Open(logger, cfg.Device.VendorID, cfg.Device.ProductID)
		if err != nil {
			return nil, err
		}
		in.device = dev
		in.closer = dev
	case config.SourceMIDI:
		src, err := midi.Open(logger, cfg.MIDI.Port, bank, midi.Notes(cfg.Buttons))
		if err != nil {
			return nil, err
		}
		in.closer = src
	case config.SourceGPIO:
		lines, err := gpio.Open(logger, cfg.GPIO.Chip, gpio.Offsets(cfg.Buttons), bank, cfg.Timing.Debounce())
		if err != nil {
			return nil, err
		}
		in.closer = lines
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
	return in, nil
}

// padOptions picks the software debounce for cfg's source. GPIO lines are
// debounced by the kernel.
func padOptions(cfg *config.Config, simulate bool) pad.Options {
	if simulate || cfg.Source == config.SourceGPIO {
		return pad.Options{}
	}
	return pad.Options{Debounce: cfg.Timing.Debounce()}
}

// start feeds the bank from the HID device, if any. The pad sleeps while
// the device is away.
func (in *inputs) start(ctx context.Context, p *pad.Pad, wg *sync.WaitGroup) {
	if in.device == nil {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := in.device.Run(ctx, in.bank, in.reconn, hid.Hooks{
			Disconnected: func(error) { p.Sleep() },
			Reconnected:  p.Wakeup,
		})
		if err != nil {
			in.logger.Warnw("HID reader stopped", "error", err)
		}
	}()
}

// Close releases the source. Later calls do nothing.
func (in *inputs) Close() error {
	if in.closer == nil {
		return nil
	}
	err := in.closer.Close()
	in.closer = nil
	return err
}

// App runs the configured program in a PTY and types key actions into it
// as gestures fire
type App struct {
	logger     *zap.SugaredLogger
	cfg        *config.Config
	inputs     *inputs
	pad        *pad.Pad
	mapper     *action.Mapper
	dispatcher *action.Dispatcher
	session    *pty.Session
	display    *display.Manager
	attached   bool
}

func newApp(logger *zap.SugaredLogger, cfg *config.Config, attached bool) (*App, error) {
	clk := clock.New()

	in, err := openInputs(logger, clk, cfg, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", cfg.Source, err)
	}

	p, err := pad.New(logger, clk, in.bank, cfg, padOptions(cfg, false))
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("failed to create pad: %w", err)
	}

	session, err := pty.NewSession(logger, cfg.TUI.Command, cfg.TUI.Args, cfg.TUI.WorkingDir)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("failed to create PTY session: %w", err)
	}
	if attached {
		session.Mirror(os.Stdout)
	}

	mapper := action.NewMapper(cfg)
	executor := action.NewExecutor(session, time.Duration(cfg.TUI.KeyDelayMs)*time.Millisecond)
	dispatcher := action.NewDispatcher(logger, mapper, executor, actionQueueSize)
	p.Subscribe(dispatcher.Handle)

	app := &App{
		logger:     logger,
		cfg:        cfg,
		inputs:     in,
		pad:        p,
		mapper:     mapper,
		dispatcher: dispatcher,
		session:    session,
		attached:   attached,
	}

	if cfg.Display.Enabled {
		if in.device == nil {
			logger.Warnw("Display needs the hid source, disabling", "source", cfg.Source)
		} else {
			app.display = display.NewManager(logger, clk, cfg.Display, in.device, p, session)
			p.Subscribe(app.display.Panel().Handle)
		}
	}

	logger.Infow("Pad ready", "source", cfg.Source, "buttons", len(cfg.Buttons), "bindings", mapper.Len())
	return app, nil
}

// Reload applies a changed config. Source settings only take effect after
// a restart.
func (a *App) Reload(cfg *config.Config) {
	if sourceChanged(a.cfg, cfg) {
		a.logger.Warnw("Input source settings changed; restart to apply them")
	}
	a.pad.Configure(cfg)
	a.mapper.Reload(cfg)
	a.cfg = cfg
}

func sourceChanged(old, cfg *config.Config) bool {
	switch {
	case old.Source != cfg.Source:
		return true
	case old.Source == config.SourceHID:
		return old.Device.VendorID != cfg.Device.VendorID || old.Device.ProductID != cfg.Device.ProductID
	case old.Source == config.SourceMIDI:
		return old.MIDI.Port != cfg.MIDI.Port || !reflect.DeepEqual(midi.Notes(old.Buttons), midi.Notes(cfg.Buttons))
	case old.Source == config.SourceGPIO:
		return old.GPIO.Chip != cfg.GPIO.Chip || !reflect.DeepEqual(gpio.Offsets(old.Buttons), gpio.Offsets(cfg.Buttons))
	}
	return false
}

// Run starts the program and the pad, and blocks until ctx is done or the
// program exits
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.session.Start(ctx); err != nil {
		return err
	}

	if a.attached {
		restore, err := attach(ctx, a.logger, a.session)
		if err != nil {
			a.logger.Warnw("Failed to attach terminal", "error", err)
		} else {
			defer restore()
		}
	}

	var wg sync.WaitGroup
	a.inputs.start(ctx, a.pad, &wg)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.dispatcher.Run(ctx.Done())
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.pad.Run(ctx); err != nil {
			a.logger.Warnw("Poll loop stopped", "error", err)
		}
	}()

	displayDone := make(chan struct{})
	go func() {
		defer close(displayDone)
		if a.display != nil {
			a.display.Run(ctx)
		}
	}()

	var err error
	select {
	case <-ctx.Done():
	case <-a.session.Done():
		err = a.session.Err()
		a.logger.Infow("Program exited", "error", err)
	}

	cancel()
	a.session.Stop()
	// The display clears the screen on the way out
	<-displayDone
	// Unblocks the HID reader
	a.inputs.Close()
	wg.Wait()
	return err
}
