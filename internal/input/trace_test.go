package input

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/touch"
)

const sampleTrace = `
start: 1000
frames:
  - t: 0
    contacts: [{id: 1, x: 10, y: 10}]
  - t: 40
    contacts: [{id: 1, x: 10, y: 10}, {id: 2, x: 90, y: 10}]
  - t: 90
    contacts: [{id: 2, x: 90, y: 10}]
  - t: 100
`

func collect(t *testing.T, src Source) []touch.Frame {
	t.Helper()
	frames := make(chan touch.Frame, 16)
	require.NoError(t, src.ReadFrames(context.Background(), frames))
	close(frames)

	var got []touch.Frame
	for f := range frames {
		got = append(got, f)
	}
	return got
}

func TestParseTrace(t *testing.T) {
	tr, err := ParseTrace([]byte(sampleTrace))
	require.NoError(t, err)
	require.Len(t, tr.Frames, 4)

	got := collect(t, NewTraceSource(tr, false))
	require.Len(t, got, 4)
	assert.Equal(t, gesture.Tick(1000), got[0].Timestamp)
	assert.Equal(t, gesture.Tick(1040), got[1].Timestamp)
	assert.Equal(t, []touch.Contact{{ID: 1, X: 10, Y: 10}, {ID: 2, X: 90, Y: 10}}, got[1].Contacts)
	assert.Empty(t, got[3].Contacts)
}

func TestParseTraceErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "frames: [unterminated"},
		{"time goes backwards", "frames:\n  - t: 50\n  - t: 10\n"},
		{"duplicate contact", "frames:\n  - t: 0\n    contacts: [{id: 1}, {id: 1}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTrace([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestOpenTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTrace), 0644))

	src, err := OpenTrace(path, false)
	require.NoError(t, err)
	defer src.Close()

	assert.Len(t, collect(t, src), 4)

	_, err = OpenTrace(filepath.Join(t.TempDir(), "missing.yaml"), false)
	assert.Error(t, err)
}

func TestTraceRealtimeCancel(t *testing.T) {
	tr, err := ParseTrace([]byte("frames:\n  - t: 0\n  - t: 60000\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan touch.Frame, 4)
	done := make(chan error, 1)
	go func() {
		done <- NewTraceSource(tr, true).ReadFrames(ctx, frames)
	}()

	<-frames
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadFrames did not return after cancel")
	}
}
