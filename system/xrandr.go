package system

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Output is one xrandr output line.
type Output struct {
	Name      string
	Connected bool
	Primary   bool
	Width     int
	Height    int
	X         int
	Y         int
}

// HasGeometry reports whether a current mode was found.
func (o Output) HasGeometry() bool {
	return o.Width > 0 && o.Height > 0
}

func (o Output) String() string {
	state := "disconnected"
	if o.Connected {
		state = "connected"
	}
	if !o.HasGeometry() {
		return fmt.Sprintf("%s %s", o.Name, state)
	}
	return fmt.Sprintf("%s %s %dx%d+%d+%d", o.Name, state, o.Width, o.Height, o.X, o.Y)
}

// ParseXrandr parses "xrandr --query" output. When an output line carries no
// WxH+X+Y geometry, the mode line marked with '*' supplies the size.
func ParseXrandr(text string) []Output {
	var outputs []Output
	var current *Output
	for _, line := range strings.Split(text, "\n") {
		if line == "" || strings.HasPrefix(line, "Screen ") {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				current = nil
				continue
			}
			out := Output{Name: fields[0], Connected: fields[1] == "connected"}
			for _, field := range fields[2:] {
				if field == "primary" {
					out.Primary = true
					continue
				}
				if w, h, x, y, ok := parseGeometry(field); ok {
					out.Width, out.Height, out.X, out.Y = w, h, x, y
					break
				}
			}
			outputs = append(outputs, out)
			current = &outputs[len(outputs)-1]
			continue
		}
		if current == nil || current.HasGeometry() || !strings.Contains(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if w, h, ok := parseSize(fields[0]); ok {
			current.Width, current.Height = w, h
		}
	}
	return outputs
}

func parseGeometry(field string) (w, h, x, y int, ok bool) {
	parts := strings.Split(field, "+")
	if len(parts) != 3 {
		return 0, 0, 0, 0, false
	}
	w, h, ok = parseSize(parts[0])
	if !ok {
		return 0, 0, 0, 0, false
	}
	x, errX := strconv.Atoi(parts[1])
	y, errY := strconv.Atoi(parts[2])
	if errX != nil || errY != nil {
		return 0, 0, 0, 0, false
	}
	return w, h, x, y, true
}

func parseSize(s string) (w, h int, ok bool) {
	ws, hs, found := strings.Cut(s, "x")
	if !found {
		return 0, 0, false
	}
	// Interlaced modes look like 1920x1080i.
	hs = strings.TrimRight(hs, "i")
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// Outputs runs xrandr and parses the result.
func (h *Host) Outputs(ctx context.Context) ([]Output, error) {
	h.EnsureDisplay()
	text, err := h.run(ctx, "xrandr", "--query")
	if err != nil {
		return nil, fmt.Errorf("system: xrandr: %w", err)
	}
	return ParseXrandr(text), nil
}

// DisplayGeometry returns the connected output called name.
func (h *Host) DisplayGeometry(ctx context.Context, name string) (Output, error) {
	outputs, err := h.Outputs(ctx)
	if err != nil {
		return Output{}, err
	}
	for _, out := range outputs {
		if out.Connected && (name == "" && out.Primary || out.Name == name) {
			return out, nil
		}
	}
	if name == "" {
		for _, out := range outputs {
			if out.Connected && out.HasGeometry() {
				return out, nil
			}
		}
	}
	return Output{}, fmt.Errorf("system: display %q not connected", name)
}

// IsDSIConnected reports whether a DSI panel is attached. xrandr is asked
// first; without X the firmware config is consulted.
func (h *Host) IsDSIConnected(ctx context.Context) bool {
	outputs, err := h.Outputs(ctx)
	if err == nil {
		for _, out := range outputs {
			if out.Connected && strings.HasPrefix(out.Name, "DSI") {
				return true
			}
		}
		return false
	}
	for _, path := range []string{"/boot/firmware/config.txt", "/boot/config.txt"} {
		cfg, err := h.readFile(path)
		if err != nil {
			continue
		}
		return strings.Contains(cfg, "dtoverlay=vc4-kms-v3d") && !strings.Contains(cfg, "disable_display_dsi=1")
	}
	return false
}
