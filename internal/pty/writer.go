package pty

import (
	"sync/atomic"
	"time"

	"github.com/pleimann/camel-touch/internal/action"
)

// Writer wraps a Manager to provide key writing with optional delay
type Writer struct {
	manager  *Manager
	keyDelay atomic.Int64 // nanoseconds
}

// NewWriter creates a new PTY writer
func NewWriter(manager *Manager, keyDelay time.Duration) *Writer {
	w := &Writer{manager: manager}
	w.SetKeyDelay(keyDelay)
	return w
}

// WriteKey writes a single key press, then waits the key delay so slow TUIs
// see separate keystrokes
func (w *Writer) WriteKey(key action.KeyPress) error {
	if err := w.manager.WriteKey(key); err != nil {
		return err
	}
	if d := time.Duration(w.keyDelay.Load()); d > 0 {
		time.Sleep(d)
	}
	return nil
}

// SetKeyDelay changes the delay used for subsequent keys
func (w *Writer) SetKeyDelay(d time.Duration) {
	w.keyDelay.Store(int64(d))
}
