package touch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/kubesail/desk-controller/system"
)

// ErrNoDevice is returned when no touch screen is attached.
var ErrNoDevice = errors.New("touch: no touch screen found")

// FindDevice returns the event device to read. preferred may be a device
// path, a (partial) device name, or empty for the first touch screen.
func FindDevice(h *system.Host, preferred string) (string, error) {
	if strings.HasPrefix(preferred, "/dev/") {
		return preferred, nil
	}
	devices := h.TouchDevices()
	if preferred != "" {
		all, _ := h.InputDevices()
		for _, dev := range all {
			if strings.Contains(strings.ToLower(dev.Name), strings.ToLower(preferred)) {
				return dev.Path, nil
			}
		}
	}
	if len(devices) == 0 {
		return "", ErrNoDevice
	}
	return devices[0].Path, nil
}

// absinfo mirrors struct input_absinfo.
type absinfo struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

// eviocgabs is EVIOCGABS(code): _IOR('E', 0x40 + code, struct input_absinfo).
func eviocgabs(code uint16) uintptr {
	const iocRead = 2
	return uintptr(iocRead)<<30 | unsafe.Sizeof(absinfo{})<<16 | uintptr('E')<<8 | uintptr(0x40+code)
}

func axisRange(f *os.File, code uint16) (Range, error) {
	var info absinfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), eviocgabs(code), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return Range{}, errno
	}
	return Range{Min: int(info.Minimum), Max: int(info.Maximum)}, nil
}

// Reader delivers screen-space taps from one event device.
type Reader struct {
	Path      string
	Transform Transform
	f         *os.File
	logger    *slog.Logger
}

// Open opens path and reads its axis ranges. width, height and rotation
// describe the screen taps are mapped to.
func Open(path string, width, height, rotation int, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("touch: %w", err)
	}
	t := Transform{Width: width, Height: height, Rotation: rotation}
	if t.X, err = axisRange(f, AbsMTPositionX); err != nil || !t.X.valid() {
		t.X, _ = axisRange(f, AbsX)
	}
	if t.Y, err = axisRange(f, AbsMTPositionY); err != nil || !t.Y.valid() {
		t.Y, _ = axisRange(f, AbsY)
	}
	logger.Info("touch device opened", "path", path, "x", t.X, "y", t.Y, "rotation", rotation)
	return &Reader{Path: path, Transform: t, f: f, logger: logger}, nil
}

// Run sends taps to out until ctx is done or the device fails.
func (r *Reader) Run(ctx context.Context, out chan<- Tap) error {
	stop := context.AfterFunc(ctx, func() { r.f.Close() })
	defer stop()
	defer r.f.Close()

	var tracker Tracker
	buf := make([]byte, 64*EventSize)
	var pending []byte
	for {
		n, err := r.f.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("touch: read %s: %w", r.Path, err)
		}
		var events []Event
		events, pending = Decode(append(pending, buf[:n]...))
		for _, ev := range events {
			tap, ok := tracker.Feed(ev)
			if !ok {
				continue
			}
			select {
			case out <- r.Transform.Apply(tap):
			case <-ctx.Done():
				return nil
			}
		}
	}
}
