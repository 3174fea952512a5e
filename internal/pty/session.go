// Package pty hosts the target terminal program that receives key actions.
package pty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/pleimann/tap-pad/internal/action"
)

// ErrNotStarted is returned when writing to a session that is not running
var ErrNotStarted = errors.New("PTY not started")

const outputBufferSize = 4096

// Session runs a command in a PTY
type Session struct {
	command    string
	args       []string
	workingDir string
	logger     *zap.SugaredLogger

	mu   sync.Mutex
	ptmx *os.File
	cmd  *exec.Cmd
	done chan struct{}
	err  error

	output *RingBuffer
	mirror io.Writer
}

// NewSession prepares a session for command
func NewSession(logger *zap.SugaredLogger, command string, args []string, workingDir string) (*Session, error) {
	if command == "" {
		return nil, fmt.Errorf("command is required")
	}

	return &Session{
		command:    command,
		args:       args,
		workingDir: workingDir,
		logger:     logger.Named("pty"),
		output:     NewRingBuffer(outputBufferSize),
		done:       make(chan struct{}),
	}, nil
}

// Mirror copies the program's output to w in addition to the recent output
// buffer. Call before Start.
func (s *Session) Mirror(w io.Writer) {
	s.mirror = w
}

// Start starts the command in a new PTY
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return fmt.Errorf("session already started")
	}

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Dir = s.workingDir
	cmd.Env = os.Environ()

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}

	s.ptmx = ptmx
	s.cmd = cmd

	go s.readOutput(ptmx)
	go s.wait(cmd)

	s.logger.Infow("Started", "command", s.command, "args", s.args, "pid", cmd.Process.Pid)
	return nil
}

func (s *Session) readOutput(ptmx *os.File) {
	var dst io.Writer = s.output
	if s.mirror != nil {
		dst = io.MultiWriter(s.output, s.mirror)
	}
	// Returns once the PTY is closed or the program exits
	_, _ = io.Copy(dst, ptmx)
}

func (s *Session) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	s.logger.Infow("Exited", "command", s.command, "error", err)
	close(s.done)
}

// Done is closed when the program exits
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the program's exit error once Done is closed
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop interrupts the program and closes the PTY
func (s *Session) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	ptmx := s.ptmx
	s.ptmx = nil
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
		<-s.done
	}
	if ptmx != nil {
		ptmx.Close()
	}
}

func (s *Session) file() (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ptmx == nil {
		return nil, ErrNotStarted
	}
	return s.ptmx, nil
}

// Write sends raw input to the program
func (s *Session) Write(p []byte) (int, error) {
	f, err := s.file()
	if err != nil {
		return 0, err
	}
	return f.Write(p)
}

// WriteKey sends one key press to the program
func (s *Session) WriteKey(key action.KeyPress) error {
	return NewWriter(s).WriteKey(key)
}

// RecentOutput returns the last few KB the program printed
func (s *Session) RecentOutput() string {
	return s.output.String()
}

// Resize sets the PTY window size
func (s *Session) Resize(rows, cols uint16) error {
	f, err := s.file()
	if err != nil {
		return err
	}
	return pty.Setsize(f, &pty.Winsize{Rows: rows, Cols: cols})
}

// Running reports whether the program has started and not yet exited
func (s *Session) Running() bool {
	s.mu.Lock()
	started := s.cmd != nil
	s.mu.Unlock()
	if !started {
		return false
	}

	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
