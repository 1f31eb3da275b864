// Package input decodes Linux input events from a device node into the
// three button transitions the recognizer understands. It is not a general
// input driver: anything that is not a press or release of power or a
// volume key is skipped.
package input

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/loykin/dumpkey/internal/gesture"
)

// Linux input_event on 64-bit platforms: two 64-bit timestamp words,
// type, code, value.
const eventSize = 24

const (
	evKey = 0x01

	keyVolumeDown = 114
	keyVolumeUp   = 115
	keyPower      = 116

	valueRelease = 0
	valuePress   = 1
)

// Reader turns a raw evdev byte stream into button events.
type Reader struct {
	r   io.Reader
	buf [eventSize]byte
}

func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// Device is a Reader over an opened input device node.
type Device struct {
	*Reader
	f *os.File
}

// OpenDevice opens an evdev node such as /dev/input/event0.
func OpenDevice(path string) (*Device, error) {
	f, err := os.Open(path) // #nosec G304 -- device path comes from config
	if err != nil {
		return nil, err
	}
	return &Device{Reader: NewReader(f), f: f}, nil
}

func (d *Device) Close() error { return d.f.Close() }

// Next blocks until the next mapped button transition. Unmapped keys,
// autorepeat and non-key events are skipped, not surfaced.
func (r *Reader) Next() (gesture.Event, error) {
	for {
		if _, err := io.ReadFull(r.r, r.buf[:]); err != nil {
			return gesture.Event{}, err
		}
		if ev, ok := decode(r.buf[:]); ok {
			return ev, nil
		}
	}
}

// decode maps one raw input_event record to a button transition.
func decode(b []byte) (gesture.Event, bool) {
	typ := binary.LittleEndian.Uint16(b[16:18])
	code := binary.LittleEndian.Uint16(b[18:20])
	value := int32(binary.LittleEndian.Uint32(b[20:24]))
	if typ != evKey {
		return gesture.Event{}, false
	}
	if value != valuePress && value != valueRelease {
		return gesture.Event{}, false
	}
	var btn gesture.Button
	switch code {
	case keyPower:
		btn = gesture.Power
	case keyVolumeUp:
		btn = gesture.VolumeUp
	case keyVolumeDown:
		btn = gesture.VolumeDown
	default:
		return gesture.Event{}, false
	}
	return gesture.Event{Button: btn, Pressed: value == valuePress}, true
}
