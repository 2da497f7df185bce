package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pleimann/camel-touch/internal/gesture"
)

// Input drivers
const (
	DriverEvdev = "evdev"
	DriverHID   = "hid"
	DriverTrace = "trace"
)

type Config struct {
	Input    InputConfig       `yaml:"input"`
	Tracking TrackingConfig    `yaml:"tracking"`
	Gesture  GestureConfig     `yaml:"gesture"`
	TUI      TUIConfig         `yaml:"tui"`
	Gestures map[string]Action `yaml:"gestures"`
	Feed     FeedConfig        `yaml:"feed"`
}

type InputConfig struct {
	Driver string `yaml:"driver"`

	// evdev
	Path string `yaml:"path,omitempty"`
	Grab bool   `yaml:"grab,omitempty"`

	// hid
	VendorID    uint16 `yaml:"vendor_id,omitempty"`
	ProductID   uint16 `yaml:"product_id,omitempty"`
	ReportID    byte   `yaml:"report_id,omitempty"`
	MaxContacts int    `yaml:"max_contacts,omitempty"`

	// trace
	Trace    string `yaml:"trace,omitempty"`
	Realtime bool   `yaml:"realtime,omitempty"`
}

type TrackingConfig struct {
	DragSlop           int     `yaml:"drag_slop"`
	HoldThresholdMs    int     `yaml:"hold_threshold_ms"`
	FlickMaxDurationMs int     `yaml:"flick_max_duration_ms"`
	FlickMinVelocity   float64 `yaml:"flick_min_velocity"`
}

type GestureConfig struct {
	RolloverEnabled bool `yaml:"rollover_enabled"`
}

type TUIConfig struct {
	Command    string   `yaml:"command,omitempty"`
	Args       []string `yaml:"args,omitempty"`
	WorkingDir string   `yaml:"working_dir,omitempty"`
	KeyDelayMs int      `yaml:"key_delay_ms,omitempty"`
}

type Action struct {
	Keys    []string `yaml:"keys,omitempty"`
	Command string   `yaml:"command,omitempty"`
}

type FeedConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// HoldThreshold returns the right drag hold threshold as a duration
func (t TrackingConfig) HoldThreshold() time.Duration {
	return time.Duration(t.HoldThresholdMs) * time.Millisecond
}

// FlickMaxDuration returns the longest flick stroke as a duration
func (t TrackingConfig) FlickMaxDuration() time.Duration {
	return time.Duration(t.FlickMaxDurationMs) * time.Millisecond
}

// KeyDelay returns the delay between keystrokes written to the TUI
func (t TUIConfig) KeyDelay() time.Duration {
	return time.Duration(t.KeyDelayMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes, validates and fills defaults for raw YAML configuration
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Input.Driver {
	case DriverEvdev:
		if c.Input.Path == "" {
			return fmt.Errorf("input.path is required for the evdev driver")
		}
	case DriverHID:
		if c.Input.VendorID == 0 {
			return fmt.Errorf("input.vendor_id is required for the hid driver")
		}
		if c.Input.ProductID == 0 {
			return fmt.Errorf("input.product_id is required for the hid driver")
		}
		if c.Input.MaxContacts < 0 {
			return fmt.Errorf("input.max_contacts must not be negative")
		}
	case DriverTrace:
		if c.Input.Trace == "" {
			return fmt.Errorf("input.trace is required for the trace driver")
		}
	case "":
		return fmt.Errorf("input.driver is required")
	default:
		return fmt.Errorf("unknown input.driver: %q", c.Input.Driver)
	}

	if c.Tracking.DragSlop < 0 || c.Tracking.HoldThresholdMs < 0 ||
		c.Tracking.FlickMaxDurationMs < 0 || c.Tracking.FlickMinVelocity < 0 {
		return fmt.Errorf("tracking thresholds must not be negative")
	}

	for name, action := range c.Gestures {
		if _, err := gesture.ParseGestureType(name); err != nil {
			return fmt.Errorf("gestures: %w", err)
		}
		if len(action.Keys) == 0 && action.Command == "" {
			return fmt.Errorf("gestures.%s needs keys or a command", name)
		}
		if len(action.Keys) > 0 && c.TUI.Command == "" {
			return fmt.Errorf("gestures.%s sends keys but tui.command is not set", name)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Input.Driver == DriverHID {
		if c.Input.ReportID == 0 {
			c.Input.ReportID = 0x01
		}
		if c.Input.MaxContacts == 0 {
			c.Input.MaxContacts = 5
		}
	}
	c.Tracking.applyDefaults()
}

func (t *TrackingConfig) applyDefaults() {
	if t.DragSlop == 0 {
		t.DragSlop = 12
	}
	if t.HoldThresholdMs == 0 {
		t.HoldThresholdMs = 500
	}
	if t.FlickMaxDurationMs == 0 {
		t.FlickMaxDurationMs = 250
	}
	if t.FlickMinVelocity == 0 {
		t.FlickMinVelocity = 1.5
	}
}

// DefaultTracking returns the tracking thresholds used when the config
// file leaves them unset
func DefaultTracking() TrackingConfig {
	var t TrackingConfig
	t.applyDefaults()
	return t
}

// UpdateInputDevice points the config file at an evdev device while
// preserving the rest of the file structure and comments
func UpdateInputDevice(path, devicePath string) error {
	return rewriteInput(path, DriverEvdev, map[string]string{
		"path": devicePath,
	})
}

// UpdateHIDDevice points the config file at a HID digitizer while
// preserving the rest of the file structure and comments
func UpdateHIDDevice(path string, vendorID, productID uint16) error {
	return rewriteInput(path, DriverHID, map[string]string{
		"vendor_id":  fmt.Sprintf("0x%04X", vendorID),
		"product_id": fmt.Sprintf("0x%04X", productID),
	})
}

var (
	inputSectionRegex = regexp.MustCompile(`(?m)^input:[ \t]*(#.*)?$`)
	topLevelKeyRegex  = regexp.MustCompile(`(?m)^[^\s#]`)
	driverRegex       = regexp.MustCompile(`(?m)^([ \t]+driver:[ \t]*)\S+`)
)

// inputSection returns the byte range of the input block's body
func inputSection(content string) (int, int, bool) {
	loc := inputSectionRegex.FindStringIndex(content)
	if loc == nil {
		return 0, 0, false
	}
	start := loc[1]
	end := len(content)
	if next := topLevelKeyRegex.FindStringIndex(content[start:]); next != nil {
		end = start + next[0]
	}
	return start, end, true
}

func rewriteInput(path, driver string, values map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	content := string(data)

	start, end, ok := inputSection(content)
	if !ok || !driverRegex.MatchString(content[start:end]) {
		return fmt.Errorf("no input.driver entry in %s", path)
	}
	block := driverRegex.ReplaceAllString(content[start:end], "${1}"+driver)

	// Sorted for a stable insertion order
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		keyRegex := regexp.MustCompile(`(?m)^([ \t]+` + key + `:[ \t]*)\S+`)
		if keyRegex.MatchString(block) {
			block = keyRegex.ReplaceAllString(block, "${1}"+values[key])
			continue
		}
		loc := driverRegex.FindStringIndex(block)
		block = block[:loc[1]] + "\n  " + key + ": " + values[key] + block[loc[1]:]
	}

	content = content[:start] + block + content[end:]
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig creates a new config file reading from the given evdev device
func CreateDefaultConfig(path, devicePath string) error {
	content := fmt.Sprintf(`# Camel Touch Configuration

input:
  driver: evdev
  path: %s
  grab: false

tracking:
  drag_slop: 12
  hold_threshold_ms: 500
  flick_max_duration_ms: 250
  flick_min_velocity: 1.5

gesture:
  rollover_enabled: false

# tui:
#   command: "your-tui-app"
#   args: []

gestures:
  two_finger_tap:
    command: "notify-send 'two finger tap'"

# feed:
#   listen: "127.0.0.1:8765"
`, devicePath)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// Exists checks if a config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
