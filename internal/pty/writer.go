package pty

import (
	"fmt"
	"io"

	"github.com/pleimann/tap-pad/internal/action"
)

// Writer encodes key presses as terminal input onto any io.Writer
type Writer struct {
	w io.Writer
}

// NewWriter creates a key writer on top of w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteKey writes the terminal bytes for key
func (w *Writer) WriteKey(key action.KeyPress) error {
	data := key.ToBytes()
	if len(data) == 0 {
		return fmt.Errorf("no terminal encoding for key %s", key)
	}
	_, err := w.w.Write(data)
	return err
}

// WriteString writes s unchanged
func (w *Writer) WriteString(s string) error {
	_, err := io.WriteString(w.w, s)
	return err
}
