package hid

import (
	"fmt"

	"github.com/karalabe/hid"
)

// DeviceInfo describes an attached HID interface
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Path         string
	Manufacturer string
	Product      string
	UsagePage    uint16
}

// ListDevices returns every attached HID interface
func ListDevices() ([]DeviceInfo, error) {
	if !hid.Supported() {
		return nil, fmt.Errorf("HID is not supported on this platform")
	}

	devices := hid.Enumerate(0, 0)
	result := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		result[i] = DeviceInfo{
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Path:         d.Path,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
			UsagePage:    d.UsagePage,
		}
	}
	return result, nil
}

// Unique drops repeated vendor/product pairs, keeping the first, and
// devices that report no IDs at all
func Unique(devices []DeviceInfo) []DeviceInfo {
	seen := make(map[uint32]bool)
	var out []DeviceInfo

	for _, d := range devices {
		if d.VendorID == 0 && d.ProductID == 0 {
			continue
		}
		key := uint32(d.VendorID)<<16 | uint32(d.ProductID)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}
