package system

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Names of common Raspberry Pi touch controllers that do not say "touch".
var touchControllers = []string{"ft5406", "goodix", "ads7846", "raspberrypi-ts", "edt-ft5x06", "ilitek", "eGalax"}

// InputDevice is an evdev node.
type InputDevice struct {
	Name string
	Path string
}

// IsTouchName reports whether an input device name looks like a touch panel.
func IsTouchName(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "touch") {
		return true
	}
	for _, controller := range touchControllers {
		if strings.Contains(lower, strings.ToLower(controller)) {
			return true
		}
	}
	return false
}

// InputDevices lists /dev/input/event* nodes with the names the kernel
// reports for them under /sys/class/input.
func (h *Host) InputDevices() ([]InputDevice, error) {
	matches, err := filepath.Glob(h.path("/sys/class/input/event*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	devices := make([]InputDevice, 0, len(matches))
	for _, match := range matches {
		event := filepath.Base(match)
		data, err := os.ReadFile(filepath.Join(match, "device", "name"))
		if err != nil {
			continue
		}
		devices = append(devices, InputDevice{
			Name: strings.TrimSpace(string(data)),
			Path: filepath.Join("/dev/input", event),
		})
	}
	return devices, nil
}

// TouchDevices returns the input devices that look like touch panels.
func (h *Host) TouchDevices() []InputDevice {
	devices, err := h.InputDevices()
	if err != nil {
		return nil
	}
	var touch []InputDevice
	for _, device := range devices {
		if IsTouchName(device.Name) {
			touch = append(touch, device)
		}
	}
	return touch
}

// DetectTouchScreen reports whether a touch screen is attached and how it
// was found. X's device list is preferred; the kernel's input class is the
// fallback when X is not running.
func (h *Host) DetectTouchScreen(ctx context.Context) (bool, string) {
	h.EnsureDisplay()
	if text, err := h.run(ctx, "xinput", "list"); err == nil {
		for _, line := range strings.Split(text, "\n") {
			if IsTouchName(line) {
				return true, "xinput: " + strings.TrimSpace(strings.Trim(line, "⎜↳ \t"))
			}
		}
	}
	if devices := h.TouchDevices(); len(devices) > 0 {
		return true, "evdev: " + devices[0].Path + " (" + devices[0].Name + ")"
	}
	return false, ""
}
