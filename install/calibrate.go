package install

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// matrices are libinput coordinate transformation matrices for a panel
// rotated clockwise by the key in degrees.
var matrices = map[int]string{
	0:   "1 0 0 0 1 0 0 0 1",
	90:  "0 1 0 -1 0 1 0 0 1",
	180: "-1 0 1 0 -1 1 0 0 1",
	270: "0 -1 1 1 0 0 0 0 1",
}

// xrandrRotations names the same rotations for "xrandr --rotate".
var xrandrRotations = map[int]string{
	0:   "normal",
	90:  "right",
	180: "inverted",
	270: "left",
}

// Matrix returns the transformation matrix for rotation.
func Matrix(rotation int) (string, error) {
	m, ok := matrices[rotation]
	if !ok {
		return "", fmt.Errorf("install: unsupported rotation %d (use 0, 90, 180 or 270)", rotation)
	}
	return m, nil
}

// Calibrate applies rotation to the touch device in the running X session
// and returns the xinput command line it ran.
func Calibrate(ctx context.Context, run Runner, device string, rotation int) (string, error) {
	if device == "" {
		return "", fmt.Errorf("install: no touch device to calibrate")
	}
	m, err := Matrix(rotation)
	if err != nil {
		return "", err
	}
	args := append([]string{"set-prop", device, "Coordinate Transformation Matrix"}, strings.Fields(m)...)
	if out, err := run(ctx, "xinput", args...); err != nil {
		return "", fmt.Errorf("install: xinput: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return "xinput " + strings.Join(args, " "), nil
}

// WriteTouchConf persists rotation for the next X start by writing the
// Xorg input snippet into dir. It returns the written path.
func WriteTouchConf(dir, device string, rotation int) (string, error) {
	m, err := Matrix(rotation)
	if err != nil {
		return "", err
	}
	conf, err := RenderTouchConf(TouchConfData{TouchDevice: device, Matrix: m})
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, TouchConfName)
	if _, err := writeFile(path, conf, 0o644); err != nil {
		return "", fmt.Errorf("install: %w", err)
	}
	return path, nil
}
