package input

import (
	"context"
	"fmt"
	"sync"

	"github.com/karalabe/hid"

	"github.com/pleimann/camel-touch/internal/touch"
	"github.com/pleimann/camel-touch/internal/utils"
)

// HIDSource reads digitizer reports from a USB HID touch device
type HIDSource struct {
	name        string
	vendorID    uint16
	productID   uint16
	reportID    byte
	maxContacts int

	device *hid.Device
	mu     sync.Mutex
	closed bool
}

// OpenHID opens the digitizer interface of the device with the given IDs
func OpenHID(vendorID, productID uint16, reportID byte, maxContacts int) (*HIDSource, error) {
	devices := hid.Enumerate(vendorID, productID)
	if len(devices) == 0 {
		if len(hid.Enumerate(0, 0)) == 0 {
			return nil, fmt.Errorf("no HID devices found on system - check USB connection")
		}
		return nil, fmt.Errorf("no device found with VendorID=0x%04X, ProductID=0x%04X\n"+
			"  Run '%s list-devices' to see available devices\n"+
			"  Run '%s set-device' to configure the correct device",
			vendorID, productID, utils.ExecutableName(), utils.ExecutableName())
	}

	// Prefer digitizer interfaces, then fall back to any that opens
	ordered := make([]hid.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if d.UsagePage == UsagePageDigitizer {
			ordered = append(ordered, d)
		}
	}
	for _, d := range devices {
		if d.UsagePage != UsagePageDigitizer {
			ordered = append(ordered, d)
		}
	}

	var lastErr error
	for _, info := range ordered {
		dev, err := info.Open()
		if err == nil {
			utils.Verbose("hid: opened %04X:%04X interface %d (usage page 0x%02X)",
				vendorID, productID, info.Interface, info.UsagePage)
			name := info.Product
			if name == "" {
				name = fmt.Sprintf("%04X:%04X", vendorID, productID)
			}
			return &HIDSource{
				name:        name,
				vendorID:    vendorID,
				productID:   productID,
				reportID:    reportID,
				maxContacts: maxContacts,
				device:      dev,
			}, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to open any of %d interfaces for device 0x%04X:0x%04X: %w\n"+
		"  This may be a permissions issue. On Linux, add a udev rule granting access to the hidraw node",
		len(devices), vendorID, productID, lastErr)
}

// Name returns the product string, or the device IDs when it has none
func (s *HIDSource) Name() string {
	return s.name
}

// Close closes the HID device connection
func (s *HIDSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.device != nil {
		return s.device.Close()
	}
	return nil
}

// ReadFrames continuously reads reports and sends frames to the channel
func (s *HIDSource) ReadFrames(ctx context.Context, frames chan<- touch.Frame) error {
	stop := context.AfterFunc(ctx, func() {
		s.Close()
	})
	defer stop()

	buf := make([]byte, ReportSize(s.maxContacts)+64)
	var clock ScanClock

	for {
		n, err := s.device.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read error: %w", err)
		}
		if n == 0 {
			continue
		}

		report, err := ParseDigitizerReport(buf[:n], s.reportID, s.maxContacts)
		if err != nil {
			// Other report IDs share the interface
			utils.Verbose("hid: %v", err)
			continue
		}

		select {
		case frames <- report.Frame(&clock):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
