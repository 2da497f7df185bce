//go:build !linux

package input

import (
	"context"
	"fmt"
	"runtime"

	"github.com/pleimann/camel-touch/internal/touch"
)

// EvdevSource is only available on Linux
type EvdevSource struct{}

// OpenEvdev always fails outside Linux
func OpenEvdev(path string, grab bool) (*EvdevSource, error) {
	return nil, fmt.Errorf("evdev input is not supported on %s", runtime.GOOS)
}

func (s *EvdevSource) Name() string { return "" }

func (s *EvdevSource) Close() error { return nil }

func (s *EvdevSource) ReadFrames(ctx context.Context, frames chan<- touch.Frame) error {
	return fmt.Errorf("evdev input is not supported on %s", runtime.GOOS)
}
