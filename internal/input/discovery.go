package input

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/karalabe/hid"

	"github.com/pleimann/camel-touch/internal/config"
)

// DeviceInfo describes a touch device that can be selected as input
type DeviceInfo struct {
	Driver       string // config.DriverEvdev or config.DriverHID
	Path         string // /dev/input/eventN for evdev, platform path for hid
	Name         string
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s %s (%04X:%04X) %s", d.Driver, d.Name, d.VendorID, d.ProductID, d.Path)
}

// Roots used by discovery, replaced in tests
var (
	sysClassInput = "/sys/class/input"
	devInput      = "/dev/input"
	enumerateHID  = hid.Enumerate
)

// ListDevices returns the multi-touch evdev devices and HID digitizers
// present on the system
func ListDevices() ([]DeviceInfo, error) {
	devices, err := listEvdevDevices()
	if err != nil {
		return nil, err
	}
	return append(devices, listHIDDigitizers()...), nil
}

func listEvdevDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir(sysClassInput)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	var result []DeviceInfo
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		dir := filepath.Join(sysClassInput, e.Name(), "device")
		if !isMultiTouch(readSysfs(dir, "capabilities/abs")) {
			continue
		}
		result = append(result, DeviceInfo{
			Driver:    config.DriverEvdev,
			Path:      filepath.Join(devInput, e.Name()),
			Name:      readSysfs(dir, "name"),
			VendorID:  parseHex16(readSysfs(dir, "id/vendor")),
			ProductID: parseHex16(readSysfs(dir, "id/product")),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return eventNumber(result[i].Path) < eventNumber(result[j].Path)
	})
	return result, nil
}

func listHIDDigitizers() []DeviceInfo {
	var result []DeviceInfo
	for _, d := range enumerateHID(0, 0) {
		if d.UsagePage != UsagePageDigitizer {
			continue
		}
		result = append(result, DeviceInfo{
			Driver:       config.DriverHID,
			Path:         d.Path,
			Name:         d.Product,
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
		})
	}
	return result
}

func readSysfs(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// isMultiTouch reports whether an abs capability bitmap (space separated hex
// words, most significant first) has ABS_MT_POSITION_X set
func isMultiTouch(bitmap string) bool {
	words := strings.Fields(bitmap)
	if len(words) == 0 {
		return false
	}
	bits := new(big.Int)
	for _, w := range words {
		v, ok := new(big.Int).SetString(w, 16)
		if !ok {
			return false
		}
		bits.Lsh(bits, strconv.IntSize)
		bits.Or(bits, v)
	}
	return bits.Bit(ABS_MT_POSITION_X) == 1
}

func parseHex16(s string) uint16 {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}

func eventNumber(path string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(filepath.Base(path), "event"))
	return n
}
