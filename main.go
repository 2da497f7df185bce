package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pleimann/camel-touch/internal/config"
	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/input"
	"github.com/pleimann/camel-touch/internal/touch"
	"github.com/pleimann/camel-touch/internal/ui"
	"github.com/pleimann/camel-touch/internal/utils"
)

const Version = "0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "list-devices":
			runListDevices()
			return
		case "set-device", "select-device":
			runSetDevice(os.Args[2:])
			return
		case "replay":
			runReplay(os.Args[2:])
			return
		case "help", "-h", "--help":
			printUsage()
			os.Exit(0)
		}
	}

	configPath := flag.String("config", "config.yaml", "path to configuration file")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	version := flag.Bool("version", false, "print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if *version {
		ui.PrintVersion(Version)
		os.Exit(0)
	}

	utils.SetVerbose(*verbose)

	watcher, err := config.NewWatcher(*configPath)
	if err != nil {
		ui.PrintFatalError("Failed to load config", err.Error())
		os.Exit(1)
	}
	defer watcher.Stop()

	cfg := watcher.Get()
	utils.Verbose("Loaded configuration from %s", *configPath)
	utils.Verbose("Input: driver=%s path=%s vid=0x%04X pid=0x%04X",
		cfg.Input.Driver, cfg.Input.Path, cfg.Input.VendorID, cfg.Input.ProductID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		utils.Verbose("Received shutdown signal")
		cancel()
	}()

	app, err := newApp(cfg)
	if err != nil {
		ui.PrintFatalError("Failed to initialize application", err.Error())
		os.Exit(1)
	}

	watcher.OnReload(app.reload)
	watcher.Start()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			watcher.Reload()
		}
	}()

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		ui.PrintFatalError("Application error", err.Error())
		os.Exit(1)
	}

	utils.Verbose("Shutdown complete")
}

func printUsage() {
	ui.PrintUsage(Version)
}

func toUIDevices(devices []input.DeviceInfo) []ui.DeviceInfo {
	result := make([]ui.DeviceInfo, len(devices))
	for i, d := range devices {
		result[i] = ui.DeviceInfo{
			Driver:       d.Driver,
			Path:         d.Path,
			Name:         d.Name,
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
		}
	}
	return result
}

// runListDevices handles the list-devices subcommand
func runListDevices() {
	devices, err := input.ListDevices()
	if err != nil {
		ui.PrintFatalError("Failed to list devices", err.Error())
		os.Exit(1)
	}
	ui.PrintDeviceList(toUIDevices(devices))
}

// runSetDevice handles the set-device subcommand
func runSetDevice(args []string) {
	fs := flag.NewFlagSet("set-device", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	fs.Usage = ui.PrintSetDeviceUsage

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	var device ui.DeviceInfo
	remaining := fs.Args()

	switch len(remaining) {
	case 0:
		selected, err := selectDevice()
		if err != nil {
			ui.PrintFatalError("Device selection failed", err.Error())
			os.Exit(1)
		}
		if selected == nil {
			fmt.Println(ui.Muted("No device selected"))
			os.Exit(0)
		}
		device = *selected
	case 1:
		device = ui.DeviceInfo{Driver: config.DriverEvdev, Path: remaining[0]}
	case 2:
		vid, err := parseID(remaining[0])
		if err != nil {
			ui.PrintFatalError("Invalid vendor_id", fmt.Sprintf("%q: %v", remaining[0], err))
			os.Exit(1)
		}
		pid, err := parseID(remaining[1])
		if err != nil {
			ui.PrintFatalError("Invalid product_id", fmt.Sprintf("%q: %v", remaining[1], err))
			os.Exit(1)
		}
		device = ui.DeviceInfo{Driver: config.DriverHID, VendorID: vid, ProductID: pid}
	default:
		ui.PrintFatalError("Invalid arguments", "Pass a device path, a vendor_id and product_id, or nothing")
		os.Exit(1)
	}

	created, err := saveDevice(*configPath, device)
	if err != nil {
		ui.PrintFatalError("Failed to update config", err.Error())
		os.Exit(1)
	}
	ui.PrintDeviceSaved(*configPath, device, created)
}

// saveDevice writes the device into the config file, creating the file when
// missing. It reports whether the file was created.
func saveDevice(path string, d ui.DeviceInfo) (bool, error) {
	created := false
	if !config.Exists(path) {
		if err := config.CreateDefaultConfig(path, d.Path); err != nil {
			return false, err
		}
		created = true
	}

	if d.Driver == config.DriverHID {
		return created, config.UpdateHIDDevice(path, d.VendorID, d.ProductID)
	}
	return created, config.UpdateInputDevice(path, d.Path)
}

// parseID parses a vendor or product ID from string (hex with 0x prefix or decimal)
func parseID(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	base := 10
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s, base = s[2:], 16
	}
	val, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, err
	}
	return uint16(val), nil
}

// selectDevice displays an interactive device picker
func selectDevice() (*ui.DeviceInfo, error) {
	devices, err := input.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no touch devices found")
	}
	return ui.SelectDevice(toUIDevices(devices))
}

// runReplay handles the replay subcommand
func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	rollover := fs.Bool("rollover", false, "recognize rollovers")
	realtime := fs.Bool("realtime", false, "replay at recorded speed")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	fs.Usage = ui.PrintReplayUsage

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		ui.PrintReplayUsage()
		os.Exit(1)
	}
	utils.SetVerbose(*verbose)

	tracking := config.DefaultTracking()
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			ui.PrintFatalError("Failed to load config", err.Error())
			os.Exit(1)
		}
		tracking = cfg.Tracking
		*rollover = *rollover || cfg.Gesture.RolloverEnabled
	}

	src, err := input.OpenTrace(fs.Arg(0), *realtime)
	if err != nil {
		ui.PrintFatalError("Failed to open trace", err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	counts := make(map[gesture.GestureType]int)
	engine := gesture.NewEngine(*rollover, func(g gesture.Gesture) {
		counts[g.Type]++
		fmt.Println(ui.FormatGesture(g))
	})

	frames, err := runPipeline(ctx, src, touch.NewTracker(trackerConfig(tracking)), engine)
	if err != nil && !errors.Is(err, context.Canceled) {
		ui.PrintFatalError("Replay failed", err.Error())
		os.Exit(1)
	}
	ui.PrintReplaySummary(frames, counts)
}
