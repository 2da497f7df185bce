package input

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/touch"
)

// Trace is a recorded sequence of frames
type Trace struct {
	Start  uint32       `yaml:"start,omitempty"` // Tick of the first frame, added to every t
	Frames []TraceFrame `yaml:"frames"`
}

// TraceFrame is one recorded frame; T is milliseconds from the trace start
type TraceFrame struct {
	T        uint32         `yaml:"t"`
	Contacts []TraceContact `yaml:"contacts,omitempty"`
}

type TraceContact struct {
	ID int   `yaml:"id"`
	X  int32 `yaml:"x"`
	Y  int32 `yaml:"y"`
}

// LoadTrace reads a trace file
func LoadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	return ParseTrace(data)
}

// ParseTrace parses trace YAML and checks that frame times never go backwards
func ParseTrace(data []byte) (*Trace, error) {
	var tr Trace
	if err := yaml.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse trace: %w", err)
	}

	for i := 1; i < len(tr.Frames); i++ {
		if tr.Frames[i].T < tr.Frames[i-1].T {
			return nil, fmt.Errorf("trace frame %d: t=%d is before previous t=%d",
				i, tr.Frames[i].T, tr.Frames[i-1].T)
		}
	}
	for i, f := range tr.Frames {
		seen := make(map[int]bool, len(f.Contacts))
		for _, c := range f.Contacts {
			if seen[c.ID] {
				return nil, fmt.Errorf("trace frame %d: duplicate contact id %d", i, c.ID)
			}
			seen[c.ID] = true
		}
	}
	return &tr, nil
}

// Frame converts the i-th recorded frame
func (tr *Trace) Frame(i int) touch.Frame {
	f := tr.Frames[i]
	frame := touch.Frame{Timestamp: gesture.Tick(tr.Start).Add(f.T)}
	for _, c := range f.Contacts {
		frame.Contacts = append(frame.Contacts, touch.Contact{ID: c.ID, X: c.X, Y: c.Y})
	}
	return frame
}

// TraceSource replays a trace as a frame source
type TraceSource struct {
	name     string
	trace    *Trace
	realtime bool
}

// OpenTrace loads a trace file for replay. With realtime set frames are
// delivered at their recorded spacing, otherwise as fast as they are consumed.
func OpenTrace(path string, realtime bool) (*TraceSource, error) {
	tr, err := LoadTrace(path)
	if err != nil {
		return nil, err
	}
	src := NewTraceSource(tr, realtime)
	src.name = path
	return src, nil
}

// NewTraceSource wraps an already loaded trace
func NewTraceSource(tr *Trace, realtime bool) *TraceSource {
	return &TraceSource{name: "trace", trace: tr, realtime: realtime}
}

// Name returns the trace file path
func (s *TraceSource) Name() string {
	return s.name
}

// ReadFrames sends every frame and returns nil once the trace is exhausted
func (s *TraceSource) ReadFrames(ctx context.Context, frames chan<- touch.Frame) error {
	var prev uint32
	for i, f := range s.trace.Frames {
		if s.realtime && i > 0 && f.T > prev {
			timer := time.NewTimer(time.Duration(f.T-prev) * time.Millisecond)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
		prev = f.T

		select {
		case frames <- s.trace.Frame(i):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *TraceSource) Close() error {
	return nil
}
