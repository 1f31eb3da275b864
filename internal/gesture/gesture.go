package gesture

import "fmt"

// Button identifies one of the three hardware keys the recognizer cares about.
type Button int

const (
	Power Button = iota
	VolumeUp
	VolumeDown
)

func (b Button) String() string {
	switch b {
	case Power:
		return "power"
	case VolumeUp:
		return "volume_up"
	case VolumeDown:
		return "volume_down"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// Event is a single hardware key transition. Events are strictly ordered by
// arrival; the recognizer consumes them one at a time with no buffering.
type Event struct {
	Button  Button
	Pressed bool
}

// ActionKind enumerates the diagnostic actions a completed gesture (or a
// chord-gated request) can produce.
type ActionKind int

const (
	// ForceDump requests a full-system diagnostic halt.
	ForceDump ActionKind = iota
	// CaptureTrace requests a forced trace dump from a named process.
	CaptureTrace
	// CaptureTombstone requests a tombstone from a named process.
	CaptureTombstone
	// EnableDebugNotify flips security enforcement to permissive and
	// notifies the registered peer.
	EnableDebugNotify
	// EnableSerialForceNotify enables forced serial output and notifies
	// the registered peer.
	EnableSerialForceNotify
)

func (k ActionKind) String() string {
	switch k {
	case ForceDump:
		return "force_dump"
	case CaptureTrace:
		return "capture_trace"
	case CaptureTombstone:
		return "capture_tombstone"
	case EnableDebugNotify:
		return "enable_debug_notify"
	case EnableSerialForceNotify:
		return "enable_serial_force_notify"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is the outcome of a completed gesture or an explicit capture
// request. Target is only meaningful for CaptureTrace and CaptureTombstone.
type Action struct {
	Kind   ActionKind
	Target string
}
