package pty

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/pleimann/tap-pad/internal/action"
)

func TestRingBuffer(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		writes []string
		want   string
	}{
		{"empty", 5, nil, ""},
		{"partial", 5, []string{"abc"}, "abc"},
		{"exact fit", 5, []string{"12345"}, "12345"},
		{"overwrite in one write", 5, []string{"hello world"}, "world"},
		// 11 bytes into 10 keeps the last 10
		{"multiple writes", 10, []string{"hello", " ", "world"}, "ello world"},
		{"wrap mid write", 4, []string{"abc", "def"}, "cdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRingBuffer(tt.size)
			for _, w := range tt.writes {
				n, err := rb.Write([]byte(w))
				if err != nil || n != len(w) {
					t.Fatalf("Write(%q) = %d, %v", w, n, err)
				}
			}
			if got := rb.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if rb.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", rb.Len(), len(tt.want))
			}
		})
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	for _, s := range []string{"ctrl+c", "up", "a"} {
		kp, err := action.ParseKey(s)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.WriteKey(kp); err != nil {
			t.Fatalf("WriteKey(%s) error = %v", s, err)
		}
	}
	if err := w.WriteString("!"); err != nil {
		t.Fatal(err)
	}

	want := []byte{0x03, 0x1b, '[', 'A', 'a', '!'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("wrote %v, want %v", buf.Bytes(), want)
	}
}

func TestNewSessionValidation(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	if _, err := NewSession(logger, "", nil, ""); err == nil {
		t.Error("NewSession() with empty command should return error")
	}

	s, err := NewSession(logger, "echo", []string{"test"}, "")
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if s.Running() {
		t.Error("Running() = true before Start()")
	}
	if s.RecentOutput() != "" {
		t.Errorf("RecentOutput() = %q before Start()", s.RecentOutput())
	}
	if err := s.WriteKey(action.KeyPress{Key: "a"}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("WriteKey() before Start = %v, want ErrNotStarted", err)
	}
}

func TestSessionRunsCommand(t *testing.T) {
	s, err := NewSession(zaptest.NewLogger(t).Sugar(), "echo", []string{"tap-pad"}, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Skipf("PTY unavailable: %v", err)
	}
	defer s.Stop()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("echo did not exit")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(s.RecentOutput(), "tap-pad") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(s.RecentOutput(), "tap-pad") {
		t.Errorf("RecentOutput() = %q, want it to contain the echoed text", s.RecentOutput())
	}
	if s.Running() {
		t.Error("Running() = true after exit")
	}
}
