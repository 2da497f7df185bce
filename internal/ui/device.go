package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/pleimann/camel-touch/internal/config"
)

// DeviceInfo describes a touch device for display and selection
type DeviceInfo struct {
	Driver       string
	Path         string
	Name         string
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
}

// ID returns the vendor:product pair
func (d DeviceInfo) ID() string {
	return fmt.Sprintf("%04X:%04X", d.VendorID, d.ProductID)
}

// DisplayName returns the device name, prefixed by its manufacturer when known
func (d DeviceInfo) DisplayName() string {
	name := d.Name
	if name == "" {
		name = "Unknown Device"
	}
	if d.Manufacturer != "" {
		name = d.Manufacturer + " " + name
	}
	return name
}

// deviceSelectModel wraps a huh form in Bubble Tea so escape cancels
type deviceSelectModel struct {
	form    *huh.Form
	aborted bool
}

func (m deviceSelectModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m deviceSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc", "q":
			m.aborted = true
			return m, tea.Quit
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, tea.Quit
	}
	return m, cmd
}

func (m deviceSelectModel) View() string {
	if m.form.State == huh.StateCompleted {
		return ""
	}
	return m.form.View()
}

// SelectDevice presents an interactive device picker. It returns nil when the
// user cancels.
func SelectDevice(devices []DeviceInfo) (*DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices to select from")
	}

	options := make([]huh.Option[int], len(devices))
	for i, d := range devices {
		label := fmt.Sprintf("%s %s  %s  %s",
			DriverStyle.Render(d.Driver),
			DeviceIDStyle.Render(d.ID()),
			d.DisplayName(),
			DevicePathStyle.Render(d.Path),
		)
		options[i] = huh.NewOption(label, i)
	}

	var selected int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select Touch Device").
				Description("Choose the touch surface to read gestures from (esc to cancel)").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(theme()).WithShowHelp(false)

	final, err := tea.NewProgram(deviceSelectModel{form: form}).Run()
	if err != nil {
		return nil, err
	}
	if final.(deviceSelectModel).aborted {
		return nil, nil
	}
	return &devices[selected], nil
}

// PrintDeviceList displays a styled list of touch devices
func PrintDeviceList(devices []DeviceInfo) {
	if len(devices) == 0 {
		fmt.Println(Warning("No touch devices found"))
		fmt.Println(Muted("  evdev devices need read access to /dev/input (the 'input' group)"))
		return
	}

	fmt.Println()
	fmt.Println(Title("Touch Devices"))
	fmt.Println(Muted(fmt.Sprintf("Found %d device(s)", len(devices))))
	fmt.Println()

	for _, d := range devices {
		fmt.Println(FormatDevice(d))
	}
	fmt.Println()
}

// FormatDevice renders one device list line
func FormatDevice(d DeviceInfo) string {
	return fmt.Sprintf("  %s %s  %s  %s",
		DriverStyle.Render(d.Driver),
		DeviceIDStyle.Render(d.ID()),
		DeviceNameStyle.Render(d.DisplayName()),
		DevicePathStyle.Render(d.Path),
	)
}

// PrintDeviceSaved shows a success message after writing the device to config
func PrintDeviceSaved(configPath string, d DeviceInfo, created bool) {
	msg := "Device configuration updated"
	if created {
		msg = "Device configuration created"
	}

	fmt.Println()
	fmt.Println(Success(msg))
	fmt.Println()
	fmt.Printf("  %s %s\n", Muted("Config:"), configPath)
	if d.Driver == config.DriverHID {
		fmt.Printf("  %s %s\n", Muted("Device:"), DeviceIDStyle.Render(d.ID()))
	} else {
		fmt.Printf("  %s %s\n", Muted("Device:"), DeviceIDStyle.Render(d.Path))
	}
	fmt.Println()
}

func theme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorPrimary)
	t.Focused.UnselectedOption = t.Focused.UnselectedOption.Foreground(ColorText)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorPrimary)
	return t
}
