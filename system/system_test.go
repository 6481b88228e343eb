package system

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xrandrOutput = `Screen 0: minimum 320 x 200, current 2720 x 1080, maximum 7680 x 7680
HDMI-1 connected primary 1920x1080+800+0 (normal left inverted right x axis y axis) 527mm x 296mm
   1920x1080     60.00*+  50.00
   1280x720      60.00
DSI-1 connected (normal left inverted right x axis y axis)
   800x480       60.00*+
HDMI-2 disconnected (normal left inverted right x axis y axis)
`

func fakeHost(t *testing.T, tools map[string]string) *Host {
	t.Helper()
	env := map[string]string{}
	return &Host{
		Root: t.TempDir(),
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			out, ok := tools[name]
			if !ok {
				return nil, errors.New("executable file not found")
			}
			return []byte(out), nil
		},
		Getenv: func(k string) string { return env[k] },
		Setenv: func(k, v string) error { env[k] = v; return nil },
	}
}

func writeRooted(t *testing.T, h *Host, path, content string) {
	t.Helper()
	full := h.path(path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestParseXrandr(t *testing.T) {
	outputs := ParseXrandr(xrandrOutput)
	require.Len(t, outputs, 3)

	assert.Equal(t, Output{Name: "HDMI-1", Connected: true, Primary: true, Width: 1920, Height: 1080, X: 800}, outputs[0])
	assert.Equal(t, Output{Name: "DSI-1", Connected: true, Width: 800, Height: 480}, outputs[1])
	assert.Equal(t, Output{Name: "HDMI-2"}, outputs[2])
	assert.Equal(t, "HDMI-1 connected 1920x1080+800+0", outputs[0].String())
	assert.Equal(t, "HDMI-2 disconnected", outputs[2].String())
}

func TestDisplayGeometry(t *testing.T) {
	h := fakeHost(t, map[string]string{"xrandr": xrandrOutput})
	ctx := context.Background()

	out, err := h.DisplayGeometry(ctx, "DSI-1")
	require.NoError(t, err)
	assert.Equal(t, 800, out.Width)

	out, err = h.DisplayGeometry(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "HDMI-1", out.Name)

	_, err = h.DisplayGeometry(ctx, "HDMI-2")
	assert.Error(t, err)
	assert.Equal(t, ":0", h.getenv("DISPLAY"))
}

func TestIsRaspberryPi(t *testing.T) {
	h := fakeHost(t, nil)
	assert.False(t, h.IsRaspberryPi())

	writeRooted(t, h, "/proc/cpuinfo", "processor : 0\nHardware : BCM2835\n")
	assert.True(t, h.IsRaspberryPi())

	h = fakeHost(t, nil)
	writeRooted(t, h, "/proc/device-tree/model", "Raspberry Pi 4 Model B Rev 1.4\x00")
	assert.True(t, h.IsRaspberryPi())
	assert.Equal(t, "Raspberry Pi 4 Model B Rev 1.4", h.Model())
}

func TestIsDSIConnected(t *testing.T) {
	ctx := context.Background()
	assert.True(t, fakeHost(t, map[string]string{"xrandr": xrandrOutput}).IsDSIConnected(ctx))
	assert.False(t, fakeHost(t, map[string]string{"xrandr": "HDMI-1 connected 1920x1080+0+0\n"}).IsDSIConnected(ctx))

	h := fakeHost(t, nil)
	assert.False(t, h.IsDSIConnected(ctx))
	writeRooted(t, h, "/boot/config.txt", "dtoverlay=vc4-kms-v3d\n")
	assert.True(t, h.IsDSIConnected(ctx))
	writeRooted(t, h, "/boot/config.txt", "dtoverlay=vc4-kms-v3d\ndisable_display_dsi=1\n")
	assert.False(t, h.IsDSIConnected(ctx))
}

func TestDetectTouchScreen(t *testing.T) {
	ctx := context.Background()
	h := fakeHost(t, map[string]string{"xinput": "⎡ Virtual core pointer id=2\n⎜   ↳ FT5406 memory based driver id=6\n"})
	found, how := h.DetectTouchScreen(ctx)
	assert.True(t, found)
	assert.Equal(t, "xinput: FT5406 memory based driver id=6", how)

	h = fakeHost(t, nil)
	found, _ = h.DetectTouchScreen(ctx)
	assert.False(t, found)

	writeRooted(t, h, "/sys/class/input/event0/device/name", "gpio_keys\n")
	writeRooted(t, h, "/sys/class/input/event3/device/name", "Goodix Capacitive TouchScreen\n")
	found, how = h.DetectTouchScreen(ctx)
	assert.True(t, found)
	assert.Equal(t, "evdev: /dev/input/event3 (Goodix Capacitive TouchScreen)", how)

	devices, err := h.InputDevices()
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	h := fakeHost(t, map[string]string{"xrandr": "HDMI-1 connected primary 1920x1080+0+0\n"})

	result := h.Check(ctx, CheckOptions{})
	assert.False(t, result.OK())
	assert.Len(t, result.Failures(), 2)

	writeRooted(t, h, "/proc/device-tree/model", "Raspberry Pi 3 Model B")
	result = h.Check(ctx, CheckOptions{BypassDSICheck: true, PrimaryDisplay: "HDMI-1"})
	assert.True(t, result.OK())

	var buf bytes.Buffer
	result.Print(&buf)
	assert.Equal(t, `[ok  ] raspberry pi: Raspberry Pi 3 Model B
[warn] dsi display: not detected, bypassed
[ok  ] primary display: HDMI-1 connected 1920x1080+0+0
[warn] touch screen: none detected, buttons need a mouse
`, buf.String())
}
