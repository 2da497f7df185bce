package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/utils"
)

type example struct {
	cmd  string
	desc string
}

func banner(version string, versionColor lipgloss.Color) string {
	name := TitleStyle.Render(utils.ExecutableName())
	tag := lipgloss.NewStyle().Foreground(versionColor).Render("v" + version)
	return name + " " + tag
}

// PrintUsage displays the styled help/usage text
func PrintUsage(version string) {
	exe := utils.ExecutableName()

	fmt.Println(banner(version, ColorMuted))
	fmt.Println(Muted("Two-finger gesture middleware for touch surfaces"))
	fmt.Println()

	printSection("Usage", []string{
		exe + " [flags]              Run the middleware",
		exe + " list-devices         List touch devices",
		exe + " set-device [args]    Configure the input device",
		exe + " replay <trace>       Print the gestures found in a recording",
		exe + " help                 Show this help message",
	})

	printSection("Flags", []string{
		"-config string    Path to configuration file (default \"config.yaml\")",
		"-verbose          Enable verbose logging",
		"-version          Print version and exit",
	})

	fmt.Println(Bold("Gestures"))
	fmt.Printf("  %s  two fingers down and up within %dms\n",
		SubtitleStyle.Render("two_finger_tap"), gesture.TwoFingerTapWindowMs)
	fmt.Printf("  %s        second finger lands and first lifts within %dms (opt-in)\n",
		SubtitleStyle.Render("rollover"), gesture.RolloverWindowMs)
	fmt.Println()

	printExamples([]example{
		{exe, "Run with default config.yaml"},
		{exe + " -config my.yaml", "Run with custom config file"},
		{exe + " list-devices", "List connected touch devices"},
		{exe + " set-device", "Interactive device selection"},
		{exe + " set-device /dev/input/event5", "Use an evdev device"},
		{exe + " set-device 0x04F3 0x2234", "Use a HID digitizer by vendor/product ID"},
		{exe + " replay taps.yaml", "Check a recording against the detector"},
	})
}

func printSection(title string, items []string) {
	fmt.Println(Bold(title))
	for _, item := range items {
		fmt.Printf("  %s\n", item)
	}
	fmt.Println()
}

func printExamples(examples []example) {
	fmt.Println(Bold("Examples"))

	maxLen := 0
	for _, ex := range examples {
		maxLen = max(maxLen, len(ex.cmd))
	}
	for _, ex := range examples {
		padding := strings.Repeat(" ", maxLen-len(ex.cmd)+2)
		fmt.Printf("  %s%s%s\n", SubtitleStyle.Render(ex.cmd), padding, Muted(ex.desc))
	}
	fmt.Println()
}

// PrintSetDeviceUsage displays the help text for set-device
func PrintSetDeviceUsage() {
	exe := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), exe+" set-device [options] [device_path | vendor_id product_id]")
	fmt.Println()
	fmt.Println("Set the touch input device in the configuration file.")
	fmt.Println()
	fmt.Println(Muted("A single path selects an evdev device, two IDs select a HID digitizer."))
	fmt.Println(Muted("Without arguments, displays the connected devices to choose from."))
	fmt.Println()

	fmt.Println(Bold("Arguments"))
	fmt.Printf("  %s   Event device, e.g. /dev/input/event5\n", SubtitleStyle.Render("device_path"))
	fmt.Printf("  %s     Vendor ID (hex with 0x prefix or decimal)\n", SubtitleStyle.Render("vendor_id"))
	fmt.Printf("  %s    Product ID (hex with 0x prefix or decimal)\n", SubtitleStyle.Render("product_id"))
	fmt.Println()

	fmt.Println(Bold("Options"))
	fmt.Printf("  %s    Path to configuration file (default \"config.yaml\")\n", SubtitleStyle.Render("-config string"))
	fmt.Println()

	printExamples([]example{
		{exe + " set-device", "Interactive selection"},
		{exe + " set-device /dev/input/event5", "evdev device"},
		{exe + " set-device 0x04F3 0x2234", "HID digitizer"},
		{exe + " set-device -config my.yaml", "Use different config"},
	})
}

// PrintReplayUsage displays the help text for replay
func PrintReplayUsage() {
	exe := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), exe+" replay [options] <trace.yaml>")
	fmt.Println()
	fmt.Println("Run a recorded touch trace through the tracker and detector and print")
	fmt.Println("every recognized gesture. Gesture actions are not executed.")
	fmt.Println()

	fmt.Println(Bold("Options"))
	fmt.Printf("  %s    Path to configuration file for tracking thresholds (optional)\n", SubtitleStyle.Render("-config string"))
	fmt.Printf("  %s          Recognize rollovers\n", SubtitleStyle.Render("-rollover"))
	fmt.Printf("  %s          Replay at recorded speed\n", SubtitleStyle.Render("-realtime"))
	fmt.Println()
}

// PrintVersion displays the styled version information
func PrintVersion(version string) {
	fmt.Println(banner(version, ColorSuccess))
}

// PrintFatalError displays a styled fatal error message with context
func PrintFatalError(context, message string) {
	fmt.Println()
	fmt.Println(Error(context))
	fmt.Printf("  %s\n", Muted(message))
	fmt.Println()
}

// FormatGesture renders one recognized gesture as a line
func FormatGesture(g gesture.Gesture) string {
	devices := make([]string, len(g.Devices))
	for i, d := range g.Devices {
		devices[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s %s  %s",
		TickStyle.Render(fmt.Sprintf("%dms", uint32(g.Tick))),
		GestureStyle.Render(g.Type.String()),
		Muted("contacts "+strings.Join(devices, ", ")),
	)
}

// PrintReplaySummary prints the totals after a replay
func PrintReplaySummary(frames int, counts map[gesture.GestureType]int) {
	fmt.Println()
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		fmt.Println(Warning(fmt.Sprintf("No gestures in %d frame(s)", frames)))
		return
	}
	fmt.Println(Success(fmt.Sprintf("%d gesture(s) in %d frame(s)", total, frames)))
	for _, gt := range []gesture.GestureType{gesture.GestureTwoFingerTap, gesture.GestureRollover} {
		if n := counts[gt]; n > 0 {
			fmt.Printf("  %s %d\n", Muted(gt.String()+":"), n)
		}
	}
}
