package action

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pleimann/tap-pad/internal/pad"
)

// KeyWriter receives parsed key presses
type KeyWriter interface {
	WriteKey(key KeyPress) error
}

// Executor parses key strings and writes them to a KeyWriter
type Executor struct {
	writer KeyWriter
	delay  time.Duration
	sleep  func(time.Duration)
}

// NewExecutor creates an executor. delay is inserted between the keys of a
// sequence.
func NewExecutor(writer KeyWriter, delay time.Duration) *Executor {
	return &Executor{writer: writer, delay: delay, sleep: time.Sleep}
}

// Execute writes every key in order. Keys are parsed up front, so an invalid
// sequence writes nothing.
func (e *Executor) Execute(keys []string) error {
	presses, err := ParseKeys(keys)
	if err != nil {
		return err
	}

	for i, kp := range presses {
		if i > 0 && e.delay > 0 {
			e.sleep(e.delay)
		}
		if err := e.writer.WriteKey(kp); err != nil {
			return fmt.Errorf("failed to write key %q: %w", keys[i], err)
		}
	}
	return nil
}

// ParseKeys parses a key sequence
func ParseKeys(keys []string) ([]KeyPress, error) {
	presses := make([]KeyPress, 0, len(keys))
	for _, s := range keys {
		kp, err := ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", s, err)
		}
		presses = append(presses, kp)
	}
	return presses, nil
}

// Dispatcher connects pad events to key actions. Events are queued so the
// poll loop never waits on the writer.
type Dispatcher struct {
	logger   *zap.SugaredLogger
	mapper   *Mapper
	executor *Executor
	queue    chan []string
}

// NewDispatcher creates a dispatcher with room for queueSize pending actions
func NewDispatcher(logger *zap.SugaredLogger, mapper *Mapper, executor *Executor, queueSize int) *Dispatcher {
	return &Dispatcher{
		logger:   logger.Named("action"),
		mapper:   mapper,
		executor: executor,
		queue:    make(chan []string, queueSize),
	}
}

// Handle is a pad subscriber. Unmapped events are ignored; a full queue
// drops the action.
func (d *Dispatcher) Handle(ev pad.Event) {
	keys := d.mapper.Map(ev.Button, ev.Event)
	if len(keys) == 0 {
		return
	}

	select {
	case d.queue <- keys:
	default:
		d.logger.Warnw("Action queue full, dropping", "button", ev.Name, "event", ev.Event.String())
	}
}

// Run executes queued actions until done is closed
func (d *Dispatcher) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case keys := <-d.queue:
			if err := d.executor.Execute(keys); err != nil {
				d.logger.Warnw("Failed to execute action", "keys", keys, "error", err)
			}
		}
	}
}
