package input

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/loykin/dumpkey/internal/gesture"
)

func rawEvent(typ, code uint16, value int32) []byte {
	b := make([]byte, eventSize)
	binary.LittleEndian.PutUint16(b[16:18], typ)
	binary.LittleEndian.PutUint16(b[18:20], code)
	binary.LittleEndian.PutUint32(b[20:24], uint32(value))
	return b
}

func TestDecodeButtons(t *testing.T) {
	cases := []struct {
		code  uint16
		value int32
		want  gesture.Event
	}{
		{keyPower, valuePress, gesture.Event{Button: gesture.Power, Pressed: true}},
		{keyPower, valueRelease, gesture.Event{Button: gesture.Power, Pressed: false}},
		{keyVolumeUp, valuePress, gesture.Event{Button: gesture.VolumeUp, Pressed: true}},
		{keyVolumeDown, valueRelease, gesture.Event{Button: gesture.VolumeDown, Pressed: false}},
	}
	for _, tc := range cases {
		ev, ok := decode(rawEvent(evKey, tc.code, tc.value))
		if !ok || ev != tc.want {
			t.Fatalf("code=%d value=%d: got ok=%v ev=%+v", tc.code, tc.value, ok, ev)
		}
	}
}

func TestDecodeSkips(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"non-key event", rawEvent(0x02, keyPower, valuePress)},
		{"autorepeat", rawEvent(evKey, keyPower, 2)},
		{"unmapped key", rawEvent(evKey, 30, valuePress)},
	}
	for _, tc := range cases {
		if _, ok := decode(tc.raw); ok {
			t.Fatalf("%s: must be skipped", tc.name)
		}
	}
}

func TestReaderSkipsToMappedEvent(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(rawEvent(0x02, 0, 5))              // sync-ish noise
	stream.Write(rawEvent(evKey, 30, valuePress))   // unmapped key
	stream.Write(rawEvent(evKey, keyVolumeUp, valuePress))

	r := NewReader(&stream)
	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev != (gesture.Event{Button: gesture.VolumeUp, Pressed: true}) {
		t.Fatalf("got %+v", ev)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF at stream end, got %v", err)
	}
}
