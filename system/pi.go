package system

import (
	"strings"

	"github.com/shirou/gopsutil/host"
)

// SoCs found in /proc/cpuinfo on Raspberry Pi boards.
var piSoCs = []string{"BCM2708", "BCM2709", "BCM2711", "BCM2712", "BCM2835", "BCM2836", "BCM2837"}

// Model returns the device-tree model string, or "".
func (h *Host) Model() string {
	model, err := h.readFile("/proc/device-tree/model")
	if err != nil {
		return ""
	}
	return strings.TrimRight(model, "\x00\n ")
}

// IsRaspberryPi reports whether the machine is a Raspberry Pi. The
// device-tree model is authoritative; /proc/cpuinfo and the OS platform
// name are fallbacks for older kernels.
func (h *Host) IsRaspberryPi() bool {
	if strings.Contains(h.Model(), "Raspberry Pi") {
		return true
	}
	if cpuinfo, err := h.readFile("/proc/cpuinfo"); err == nil {
		if containsAny(cpuinfo, piSoCs...) || strings.Contains(cpuinfo, "Raspberry") {
			return true
		}
	}
	if h.Root != "" {
		return false
	}
	info, err := host.Info()
	if err != nil {
		return false
	}
	return info.Platform == "raspbian" || strings.Contains(info.Platform, "raspberry")
}
