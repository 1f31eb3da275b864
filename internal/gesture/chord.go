package gesture

// Chord tracks whether the power and volume-up keys are currently held.
// Capture requests arriving through the chord-gated entry points are only
// honored while both keys are down, so a stray API call cannot dump a
// process without the operator physically holding the combo.
//
// Chord is fed from the same ordered event stream as the Recognizer and is
// not safe for concurrent use.
type Chord struct {
	power    bool
	volumeUp bool
}

// Observe updates the held-key snapshot from one key transition.
func (c *Chord) Observe(ev Event) {
	switch ev.Button {
	case Power:
		c.power = ev.Pressed
	case VolumeUp:
		c.volumeUp = ev.Pressed
	}
}

// Held reports whether both power and volume-up are currently pressed.
func (c *Chord) Held() bool { return c.power && c.volumeUp }
