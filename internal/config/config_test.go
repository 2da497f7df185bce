package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return configPath
}

func TestLoad(t *testing.T) {
	content := `
input:
  driver: evdev
  path: /dev/input/event7
  grab: true

tracking:
  drag_slop: 20
  hold_threshold_ms: 400
  flick_max_duration_ms: 180
  flick_min_velocity: 2.5

gesture:
  rollover_enabled: true

tui:
  command: "test-app"
  args: ["--flag", "value"]
  working_dir: "/tmp"
  key_delay_ms: 15

gestures:
  two_finger_tap:
    keys: ["ctrl+c"]
  rollover:
    command: "echo rollover"
    keys: ["q", "enter"]

feed:
  listen: "127.0.0.1:9000"
`

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Input.Driver != DriverEvdev {
		t.Errorf("Driver = %q, want evdev", cfg.Input.Driver)
	}
	if cfg.Input.Path != "/dev/input/event7" {
		t.Errorf("Path = %q, want /dev/input/event7", cfg.Input.Path)
	}
	if !cfg.Input.Grab {
		t.Error("Grab = false, want true")
	}

	if cfg.Tracking.DragSlop != 20 {
		t.Errorf("DragSlop = %d, want 20", cfg.Tracking.DragSlop)
	}
	if cfg.Tracking.HoldThreshold() != 400*time.Millisecond {
		t.Errorf("HoldThreshold() = %v, want 400ms", cfg.Tracking.HoldThreshold())
	}
	if cfg.Tracking.FlickMaxDuration() != 180*time.Millisecond {
		t.Errorf("FlickMaxDuration() = %v, want 180ms", cfg.Tracking.FlickMaxDuration())
	}
	if cfg.Tracking.FlickMinVelocity != 2.5 {
		t.Errorf("FlickMinVelocity = %v, want 2.5", cfg.Tracking.FlickMinVelocity)
	}

	if !cfg.Gesture.RolloverEnabled {
		t.Error("RolloverEnabled = false, want true")
	}

	if cfg.TUI.Command != "test-app" {
		t.Errorf("Command = %q, want %q", cfg.TUI.Command, "test-app")
	}
	if len(cfg.TUI.Args) != 2 || cfg.TUI.Args[0] != "--flag" {
		t.Errorf("Args = %v, want [--flag value]", cfg.TUI.Args)
	}
	if cfg.TUI.KeyDelay() != 15*time.Millisecond {
		t.Errorf("KeyDelay() = %v, want 15ms", cfg.TUI.KeyDelay())
	}

	if len(cfg.Gestures) != 2 {
		t.Fatalf("len(Gestures) = %d, want 2", len(cfg.Gestures))
	}
	tap := cfg.Gestures["two_finger_tap"]
	if len(tap.Keys) != 1 || tap.Keys[0] != "ctrl+c" {
		t.Errorf("two_finger_tap keys = %v, want [ctrl+c]", tap.Keys)
	}
	roll := cfg.Gestures["rollover"]
	if roll.Command != "echo rollover" || len(roll.Keys) != 2 {
		t.Errorf("rollover = %+v", roll)
	}

	if cfg.Feed.Listen != "127.0.0.1:9000" {
		t.Errorf("Feed.Listen = %q", cfg.Feed.Listen)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `
input:
  driver: hid
  vendor_id: 0x1234
  product_id: 0x5678
`

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Input.ReportID != 0x01 {
		t.Errorf("ReportID = 0x%02X, want default 0x01", cfg.Input.ReportID)
	}
	if cfg.Input.MaxContacts != 5 {
		t.Errorf("MaxContacts = %d, want default 5", cfg.Input.MaxContacts)
	}
	if cfg.Tracking.DragSlop != 12 {
		t.Errorf("DragSlop = %d, want default 12", cfg.Tracking.DragSlop)
	}
	if cfg.Tracking.HoldThresholdMs != 500 {
		t.Errorf("HoldThresholdMs = %d, want default 500", cfg.Tracking.HoldThresholdMs)
	}
	if cfg.Tracking.FlickMaxDurationMs != 250 {
		t.Errorf("FlickMaxDurationMs = %d, want default 250", cfg.Tracking.FlickMaxDurationMs)
	}
	if cfg.Tracking.FlickMinVelocity != 1.5 {
		t.Errorf("FlickMinVelocity = %v, want default 1.5", cfg.Tracking.FlickMinVelocity)
	}
	if cfg.Gesture.RolloverEnabled {
		t.Error("RolloverEnabled = true, want default false")
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing driver",
			content: "input:\n  path: /dev/input/event0\n",
			wantErr: "input.driver is required",
		},
		{
			name:    "unknown driver",
			content: "input:\n  driver: serial\n",
			wantErr: "unknown input.driver",
		},
		{
			name:    "evdev without path",
			content: "input:\n  driver: evdev\n",
			wantErr: "input.path is required",
		},
		{
			name:    "hid without vendor",
			content: "input:\n  driver: hid\n  product_id: 0x5678\n",
			wantErr: "vendor_id is required",
		},
		{
			name:    "hid without product",
			content: "input:\n  driver: hid\n  vendor_id: 0x1234\n",
			wantErr: "product_id is required",
		},
		{
			name:    "trace without file",
			content: "input:\n  driver: trace\n",
			wantErr: "input.trace is required",
		},
		{
			name: "negative threshold",
			content: `
input:
  driver: trace
  trace: t.yaml
tracking:
  drag_slop: -1
`,
			wantErr: "must not be negative",
		},
		{
			name: "unknown gesture",
			content: `
input:
  driver: trace
  trace: t.yaml
gestures:
  three_finger_swipe:
    command: "true"
`,
			wantErr: "unknown gesture",
		},
		{
			name: "empty action",
			content: `
input:
  driver: trace
  trace: t.yaml
gestures:
  two_finger_tap: {}
`,
			wantErr: "needs keys or a command",
		},
		{
			name: "keys without tui",
			content: `
input:
  driver: trace
  trace: t.yaml
gestures:
  two_finger_tap:
    keys: ["enter"]
`,
			wantErr: "tui.command is not set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for nonexistent file, got nil")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("input: [unterminated"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("Parse() error = %v, want parse failure", err)
	}
}

func TestUpdateInputDevice(t *testing.T) {
	content := `# Test config
input:
  driver: hid
  vendor_id: 0x1234
  product_id: 0x5678
`
	configPath := writeConfig(t, content)

	if err := UpdateInputDevice(configPath, "/dev/input/event3"); err != nil {
		t.Fatalf("UpdateInputDevice() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	result := string(data)
	if !strings.Contains(result, "# Test config") {
		t.Errorf("comment not preserved in: %s", result)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() after update error = %v\n%s", err, result)
	}
	if cfg.Input.Driver != DriverEvdev || cfg.Input.Path != "/dev/input/event3" {
		t.Errorf("Input = %+v, want evdev at /dev/input/event3", cfg.Input)
	}
}

func TestUpdateInputDeviceReplacesPath(t *testing.T) {
	configPath := writeConfig(t, "input:\n  driver: evdev\n  path: /dev/input/event1\n")

	if err := UpdateInputDevice(configPath, "/dev/input/event9"); err != nil {
		t.Fatalf("UpdateInputDevice() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Input.Path != "/dev/input/event9" {
		t.Errorf("Path = %q, want /dev/input/event9", cfg.Input.Path)
	}
}

func TestUpdateHIDDevice(t *testing.T) {
	configPath := writeConfig(t, "input:\n  driver: evdev\n  path: /dev/input/event1\n")

	if err := UpdateHIDDevice(configPath, 0xABCD, 0xEF01); err != nil {
		t.Fatalf("UpdateHIDDevice() error = %v", err)
	}

	data, _ := os.ReadFile(configPath)
	result := string(data)
	if !strings.Contains(result, "vendor_id: 0xABCD") {
		t.Errorf("vendor_id not written in: %s", result)
	}
	if !strings.Contains(result, "product_id: 0xEF01") {
		t.Errorf("product_id not written in: %s", result)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Input.Driver != DriverHID || cfg.Input.VendorID != 0xABCD || cfg.Input.ProductID != 0xEF01 {
		t.Errorf("Input = %+v", cfg.Input)
	}
}

func TestUpdateOnlyTouchesInputSection(t *testing.T) {
	content := `x-spare-devices:
  tablet:
    driver: hid
    path: /dev/hidraw9

input: # active device
  driver: hid
  vendor_id: 0x1234
  product_id: 0x5678

x-notes:
  driver: keep
`
	configPath := writeConfig(t, content)

	if err := UpdateInputDevice(configPath, "/dev/input/event3"); err != nil {
		t.Fatalf("UpdateInputDevice() error = %v", err)
	}

	data, _ := os.ReadFile(configPath)
	result := string(data)
	for _, want := range []string{
		"    driver: hid\n    path: /dev/hidraw9\n",
		"  driver: evdev\n  path: /dev/input/event3\n",
		"x-notes:\n  driver: keep\n",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("result missing %q:\n%s", want, result)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Input.Driver != DriverEvdev || cfg.Input.Path != "/dev/input/event3" {
		t.Errorf("Input = %+v, want evdev at /dev/input/event3", cfg.Input)
	}
}

func TestUpdateWithoutDriver(t *testing.T) {
	configPath := writeConfig(t, "tui:\n  command: x\n")
	if err := UpdateInputDevice(configPath, "/dev/input/event0"); err == nil {
		t.Error("UpdateInputDevice() expected error without a driver entry")
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "new-config.yaml")

	if err := CreateDefaultConfig(configPath, "/dev/input/event4"); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}

	if !Exists(configPath) {
		t.Fatal("Config file was not created")
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load created config: %v", err)
	}
	if cfg.Input.Path != "/dev/input/event4" {
		t.Errorf("Path = %q, want /dev/input/event4", cfg.Input.Path)
	}
	if _, ok := cfg.Gestures["two_finger_tap"]; !ok {
		t.Error("default config has no two_finger_tap action")
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(filepath.Join(tmpDir, "nonexistent.yaml")) {
		t.Error("Exists() = true for non-existent file")
	}

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	os.WriteFile(existingPath, []byte("test"), 0644)

	if !Exists(existingPath) {
		t.Error("Exists() = false for existing file")
	}
}

func TestDefaultTracking(t *testing.T) {
	d := DefaultTracking()
	if d.DragSlop != 12 || d.HoldThresholdMs != 500 || d.FlickMaxDurationMs != 250 || d.FlickMinVelocity != 1.5 {
		t.Errorf("DefaultTracking() = %+v", d)
	}
}
