package touch

// Range is an absolute axis range reported by the device.
type Range struct {
	Min, Max int
}

func (r Range) valid() bool { return r.Max > r.Min }

// Transform maps raw device coordinates to screen pixels. Rotation is the
// clockwise rotation of the panel in degrees, matching display.rotation.
type Transform struct {
	X, Y          Range
	Width, Height int
	Rotation      int
}

// Apply returns the screen position of a raw tap.
func (t Transform) Apply(tap Tap) Tap {
	// the sensor reports in the panel's native orientation
	nativeW, nativeH := t.Width, t.Height
	if t.Rotation == 90 || t.Rotation == 270 {
		nativeW, nativeH = nativeH, nativeW
	}
	nx := normalize(tap.X, t.X, nativeW)
	ny := normalize(tap.Y, t.Y, nativeH)

	var sx, sy float64
	switch t.Rotation {
	case 90:
		sx, sy = ny, 1-nx
	case 180:
		sx, sy = 1-nx, 1-ny
	case 270:
		sx, sy = 1-ny, nx
	default:
		sx, sy = nx, ny
	}
	return Tap{
		X:    clamp(int(sx*float64(t.Width-1)+0.5), t.Width),
		Y:    clamp(int(sy*float64(t.Height-1)+0.5), t.Height),
		Down: tap.Down,
	}
}

func normalize(v int, r Range, size int) float64 {
	if !r.valid() {
		r = Range{Min: 0, Max: size - 1}
	}
	if r.Max <= r.Min {
		return 0
	}
	n := float64(v-r.Min) / float64(r.Max-r.Min)
	switch {
	case n < 0:
		return 0
	case n > 1:
		return 1
	}
	return n
}

func clamp(v, size int) int {
	switch {
	case v < 0:
		return 0
	case v >= size:
		return size - 1
	}
	return v
}
