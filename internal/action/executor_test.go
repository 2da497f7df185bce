package action

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type recordingWriter struct {
	keys []KeyPress
	err  error
}

func (w *recordingWriter) WriteKey(key KeyPress) error {
	if w.err != nil {
		return w.err
	}
	w.keys = append(w.keys, key)
	return nil
}

func TestExecuteKeys(t *testing.T) {
	w := &recordingWriter{}
	e := NewExecutor(w)

	if err := e.Execute(context.Background(), Action{Keys: []string{"ctrl+c", "q", "enter"}}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []KeyPress{{Ctrl: true, Key: "c"}, {Key: "q"}, {Key: "enter"}}
	if len(w.keys) != len(want) {
		t.Fatalf("wrote %d keys, want %d", len(w.keys), len(want))
	}
	for i := range want {
		if w.keys[i] != want[i] {
			t.Errorf("key %d = %+v, want %+v", i, w.keys[i], want[i])
		}
	}
}

func TestExecuteInvalidKeyWritesNothing(t *testing.T) {
	w := &recordingWriter{}
	e := NewExecutor(w)

	err := e.Execute(context.Background(), Action{Keys: []string{"a", "hyper+b"}})
	if err == nil {
		t.Fatal("Execute() expected error for invalid key")
	}
	if len(w.keys) != 0 {
		t.Errorf("wrote %d keys before failing, want 0", len(w.keys))
	}
}

func TestExecuteWriterError(t *testing.T) {
	boom := errors.New("pty closed")
	e := NewExecutor(&recordingWriter{err: boom})

	err := e.Execute(context.Background(), Action{Keys: []string{"a"}})
	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want wrapping %v", err, boom)
	}
}

func TestExecuteKeysWithoutWriter(t *testing.T) {
	e := NewExecutor(nil)

	err := e.Execute(context.Background(), Action{Keys: []string{"a"}})
	if !errors.Is(err, ErrNoKeyWriter) {
		t.Errorf("Execute() error = %v, want ErrNoKeyWriter", err)
	}
}

func TestExecuteCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	e := NewExecutor(nil)

	if err := e.Execute(context.Background(), Action{Command: "echo tapped > " + out}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("command did not run: %v", err)
	}
	if string(data) != "tapped\n" {
		t.Errorf("output = %q, want %q", data, "tapped\n")
	}
}

func TestExecuteCommandFailure(t *testing.T) {
	e := NewExecutor(nil)
	if err := e.Execute(context.Background(), Action{Command: "exit 3"}); err == nil {
		t.Error("Execute() expected error for failing command")
	}
}

func TestExecuteCommandCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExecutor(nil)
	if err := e.Execute(ctx, Action{Command: "sleep 5"}); err == nil {
		t.Error("Execute() expected error for canceled context")
	}
}
