package input

import (
	"context"
	"fmt"

	"github.com/pleimann/camel-touch/internal/config"
	"github.com/pleimann/camel-touch/internal/touch"
)

// Source produces contact frames from a touch device or recording
type Source interface {
	// ReadFrames sends frames until the context is done, the source is
	// exhausted (nil error) or reading fails.
	ReadFrames(ctx context.Context, frames chan<- touch.Frame) error
	// Name describes the device or file frames come from
	Name() string
	Close() error
}

// Open opens the source selected by the input configuration
func Open(cfg config.InputConfig) (Source, error) {
	var (
		src Source
		err error
	)
	switch cfg.Driver {
	case config.DriverEvdev:
		var s *EvdevSource
		if s, err = OpenEvdev(cfg.Path, cfg.Grab); err == nil {
			src = s
		}
	case config.DriverHID:
		var s *HIDSource
		if s, err = OpenHID(cfg.VendorID, cfg.ProductID, cfg.ReportID, cfg.MaxContacts); err == nil {
			src = s
		}
	case config.DriverTrace:
		var s *TraceSource
		if s, err = OpenTrace(cfg.Trace, cfg.Realtime); err == nil {
			src = s
		}
	default:
		err = fmt.Errorf("unknown input driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
