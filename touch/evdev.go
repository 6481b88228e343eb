// Package touch reads taps from a Linux evdev touch screen and maps them
// to dashboard pixels.
package touch

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Event types and codes from linux/input-event-codes.h.
const (
	EvSyn = 0x00
	EvKey = 0x01
	EvAbs = 0x03

	SynReport = 0x00

	BtnTouch = 0x14a
	BtnLeft  = 0x110

	AbsX            = 0x00
	AbsY            = 0x01
	AbsMTSlot       = 0x2f
	AbsMTPositionX  = 0x35
	AbsMTPositionY  = 0x36
	AbsMTTrackingID = 0x39
)

// EventSize is the size of struct input_event on this platform.
var EventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

// Event is one input_event without its timestamp.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Decode splits buf into events and returns the undecoded tail.
func Decode(buf []byte) ([]Event, []byte) {
	n := len(buf) / EventSize
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		rec := buf[i*EventSize : (i+1)*EventSize]
		off := EventSize - 8
		events = append(events, Event{
			Type:  binary.NativeEndian.Uint16(rec[off:]),
			Code:  binary.NativeEndian.Uint16(rec[off+2:]),
			Value: int32(binary.NativeEndian.Uint32(rec[off+4:])),
		})
	}
	return events, buf[n*EventSize:]
}

// Encode is the inverse of Decode with zero timestamps.
func Encode(events ...Event) []byte {
	buf := make([]byte, len(events)*EventSize)
	for i, ev := range events {
		off := i*EventSize + EventSize - 8
		binary.NativeEndian.PutUint16(buf[off:], ev.Type)
		binary.NativeEndian.PutUint16(buf[off+2:], ev.Code)
		binary.NativeEndian.PutUint32(buf[off+4:], uint32(ev.Value))
	}
	return buf
}

// Tap is a contact change in raw device coordinates until transformed.
// Down marks the start of a contact; the release has Down false and is
// what activates a button.
type Tap struct {
	X, Y int
	Down bool
}

// Tracker folds events into taps. Only the first contact (multitouch
// slot 0) is followed.
type Tracker struct {
	x, y    int
	slot    int32
	down    bool
	changed bool
}

// Feed consumes one event. A tap is reported at the SYN_REPORT that
// closes a frame in which the contact started or ended.
func (t *Tracker) Feed(ev Event) (Tap, bool) {
	switch ev.Type {
	case EvAbs:
		switch ev.Code {
		case AbsX:
			t.x = int(ev.Value)
		case AbsY:
			t.y = int(ev.Value)
		case AbsMTSlot:
			t.slot = ev.Value
		case AbsMTPositionX:
			if t.slot == 0 {
				t.x = int(ev.Value)
			}
		case AbsMTPositionY:
			if t.slot == 0 {
				t.y = int(ev.Value)
			}
		case AbsMTTrackingID:
			if t.slot == 0 {
				t.setDown(ev.Value >= 0)
			}
		}
	case EvKey:
		if ev.Code == BtnTouch || ev.Code == BtnLeft {
			t.setDown(ev.Value != 0)
		}
	case EvSyn:
		if ev.Code == SynReport && t.changed {
			t.changed = false
			return Tap{X: t.x, Y: t.y, Down: t.down}, true
		}
	}
	return Tap{}, false
}

func (t *Tracker) setDown(down bool) {
	if down != t.down {
		t.down = down
		t.changed = true
	}
}
