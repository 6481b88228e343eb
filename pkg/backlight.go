package pkg

import (
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

type backlightPin interface {
	High()
	Low()
}

// Backlight switches the panel backlight off after a period without
// touches. A nil *Backlight is valid and does nothing.
type Backlight struct {
	pin     backlightPin
	timeout time.Duration
	closer  func() error

	mu    sync.Mutex
	power func(on bool)
	on    bool
	last  time.Time
}

// OpenBacklight drives BCM pin through /dev/gpiomem and turns it on.
func OpenBacklight(pin int, timeout time.Duration) (*Backlight, error) {
	if err := rpio.Open(); err != nil {
		return nil, err
	}
	p := rpio.Pin(pin)
	p.Output()
	return newBacklight(p, timeout, rpio.Close), nil
}

func newBacklight(pin backlightPin, timeout time.Duration, closer func() error) *Backlight {
	pin.High()
	return &Backlight{pin: pin, timeout: timeout, closer: closer, on: true, last: time.Now()}
}

// Wake records activity and turns the light on. It reports whether the
// light was off, in which case the touch only woke the screen.
func (b *Backlight) Wake() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = time.Now()
	if b.on {
		return false
	}
	b.pin.High()
	b.on = true
	if b.power != nil {
		b.power(true)
	}
	return true
}

// Notify registers fn to follow the light, such as a mirror panel that
// should sleep with it.
func (b *Backlight) Notify(fn func(on bool)) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.power = fn
}

// Tick turns the light off once the idle timeout has passed.
func (b *Backlight) Tick(now time.Time) {
	if b == nil || b.timeout <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.on && now.Sub(b.last) >= b.timeout {
		b.pin.Low()
		b.on = false
		if b.power != nil {
			b.power(false)
		}
	}
}

// On reports whether the light is on.
func (b *Backlight) On() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

// Close leaves the light on and releases the GPIO mapping.
func (b *Backlight) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pin.High()
	b.on = true
	if b.closer != nil {
		return b.closer()
	}
	return nil
}
