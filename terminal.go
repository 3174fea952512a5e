package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/pleimann/tap-pad/internal/pty"
)

// isTerminal reports whether both stdin and stdout are terminals
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// attach connects the user's terminal to the session: stdin is switched to
// raw mode and forwarded, and the PTY follows the terminal size. The
// returned func restores the terminal.
func attach(ctx context.Context, logger *zap.SugaredLogger, session *pty.Session) (func(), error) {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	resize := func() {
		cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			return
		}
		if err := session.Resize(uint16(rows), uint16(cols)); err != nil {
			logger.Debugw("Failed to resize PTY", "error", err)
		}
	}
	resize()

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-winch:
				resize()
			}
		}
	}()

	// Blocks in Read until the process exits; nothing else reads stdin
	go func() {
		_, _ = io.Copy(session, os.Stdin)
	}()

	return func() {
		signal.Stop(winch)
		_ = term.Restore(fd, state)
	}, nil
}
