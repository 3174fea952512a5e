// Package midi turns note on/off messages from a MIDI input port into
// button levels. A driver must be registered by the main package.
package midi

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/zap"

	"github.com/pleimann/tap-pad/internal/config"
	"github.com/pleimann/tap-pad/internal/input"
)

// Source listens to one input port and holds a level high while its note
// is on
type Source struct {
	logger *zap.SugaredLogger
	bank   *input.Bank
	notes  map[uint8]int
	port   drivers.In
	stop   func()
}

// Notes maps each configured note to its button index
func Notes(buttons []config.Button) map[uint8]int {
	notes := make(map[uint8]int, len(buttons))
	for _, b := range buttons {
		if b.Note != nil && *b.Note >= 0 && *b.Note < 128 {
			notes[uint8(*b.Note)] = b.Index
		}
	}
	return notes
}

// Open finds the first input port whose name contains port and starts
// listening on it
func Open(logger *zap.SugaredLogger, port string, bank *input.Bank, notes map[uint8]int) (*Source, error) {
	in, err := findInPort(port)
	if err != nil {
		return nil, err
	}

	s := newSource(logger, bank, notes)
	s.port = in

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		s.handle(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", in, err)
	}
	s.stop = stop

	s.logger.Infow("Listening", "port", in.String(), "notes", len(notes))
	return s, nil
}

func newSource(logger *zap.SugaredLogger, bank *input.Bank, notes map[uint8]int) *Source {
	return &Source{
		logger: logger.Named("midi"),
		bank:   bank,
		notes:  notes,
	}
}

func findInPort(name string) (drivers.In, error) {
	want := strings.ToLower(name)
	for _, in := range gomidi.GetInPorts() {
		if strings.Contains(strings.ToLower(in.String()), want) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input port matching %q", name)
}

func (s *Source) handle(msg gomidi.Message) {
	var channel, key, velocity uint8

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		// Note on with velocity 0 is a note off
		s.set(key, velocity > 0)
	case msg.GetNoteOff(&channel, &key, &velocity):
		s.set(key, false)
	}
}

func (s *Source) set(key uint8, on bool) {
	index, ok := s.notes[key]
	if !ok {
		return
	}
	s.bank.Set(index, on)
}

// Close stops listening and releases every mapped level
func (s *Source) Close() error {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	for _, index := range s.notes {
		s.bank.Set(index, false)
	}
	if s.port != nil {
		return s.port.Close()
	}
	return nil
}

// ListPorts returns the names of all MIDI input ports
func ListPorts() []string {
	ins := gomidi.GetInPorts()
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names
}
