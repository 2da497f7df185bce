package pty

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pleimann/camel-touch/internal/action"
)

func TestRingBufferWrite(t *testing.T) {
	rb := NewRingBuffer(5)

	rb.Write([]byte("abc"))
	if got := rb.String(); got != "abc" {
		t.Errorf("String() = %q, want %q", got, "abc")
	}
}

func TestRingBufferOverwrite(t *testing.T) {
	rb := NewRingBuffer(5)

	rb.Write([]byte("hello world"))
	if got := rb.String(); got != "world" {
		t.Errorf("String() = %q, want %q", got, "world")
	}
}

func TestRingBufferEmpty(t *testing.T) {
	if got := NewRingBuffer(5).String(); got != "" {
		t.Errorf("String() on empty buffer = %q, want empty", got)
	}
}

func TestRingBufferExactFit(t *testing.T) {
	rb := NewRingBuffer(5)
	rb.Write([]byte("12345"))

	if got := rb.String(); got != "12345" {
		t.Errorf("String() = %q, want %q", got, "12345")
	}
}

func TestRingBufferMultipleWrites(t *testing.T) {
	rb := NewRingBuffer(10)

	rb.Write([]byte("hello"))
	rb.Write([]byte(" "))
	rb.Write([]byte("world"))

	// 11 bytes into a 10-byte buffer keeps the last 10
	if got := rb.String(); got != "ello world" {
		t.Errorf("String() = %q, want %q", got, "ello world")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager("", nil, ""); err == nil {
		t.Error("NewManager() with empty command should return error")
	}

	m, err := NewManager("echo", []string{"test"}, "")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.IsRunning() {
		t.Error("IsRunning() = true before Start(), want false")
	}
	if got := m.RecentOutput(); got != "" {
		t.Errorf("RecentOutput() = %q before Start(), want empty", got)
	}
}

func TestManagerWriteBeforeStart(t *testing.T) {
	m, _ := NewManager("cat", nil, "")

	if err := m.WriteKey(action.KeyPress{Key: "a"}); err == nil {
		t.Error("WriteKey() before Start() should return error")
	}
}

// syncBuffer is a goroutine-safe output sink
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 5s")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManagerKeysReachProcess(t *testing.T) {
	m, err := NewManager("sh", []string{"-c", "read line; echo got:$line"}, "")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	out := &syncBuffer{}
	m.Attach(nil, out)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	w := NewWriter(m, time.Millisecond)
	for _, k := range []string{"h", "i", "enter"} {
		kp, _ := action.ParseKey(k)
		if err := w.WriteKey(kp); err != nil {
			t.Fatalf("WriteKey(%q) error = %v", k, err)
		}
	}

	waitFor(t, func() bool { return strings.Contains(m.RecentOutput(), "got:hi") })
	waitFor(t, func() bool { return strings.Contains(out.String(), "got:hi") })

	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
	if m.IsRunning() {
		t.Error("IsRunning() = true after exit")
	}
	if m.Err() != nil {
		t.Errorf("Err() = %v, want nil", m.Err())
	}
}

func TestManagerStopInterrupts(t *testing.T) {
	m, _ := NewManager("sleep", []string{"30"}, "")
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !m.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	m.Stop()

	if m.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
	if err := m.WriteKey(action.KeyPress{Key: "x"}); err == nil {
		t.Error("WriteKey() after Stop() should return error")
	}
}
