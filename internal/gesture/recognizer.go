package gesture

// State is the recognizer's position inside the key sequence.
type State int

const (
	None State = iota
	Step1
	Step2
	Step3
	Step4
	Step5
	Step6
	Step7
	Step8
	Step9
	Step10
	Step11
	DebugBranch
)

// Recognizer is a deterministic finite-state machine over key transitions.
// The full sequence is: volume-up down/up, volume-down down/up, hold
// volume-up, double-tap power, release volume-up, then either press
// volume-up again plus power (force dump) or press volume-down and choose
// the debug or serial branch.
//
// Any transition not in the table resets to None; the event that caused the
// reset is not reinterpreted as the start of a new sequence. Feed is pure
// and O(1), safe to call on the input-dispatch path. A Recognizer is not
// safe for concurrent use; create one per input source.
type Recognizer struct {
	state State
}

func NewRecognizer() *Recognizer { return &Recognizer{state: None} }

// State returns the current position. Useful for status reporting only.
func (r *Recognizer) State() State { return r.state }

// Reset unconditionally returns the recognizer to None.
func (r *Recognizer) Reset() { r.state = None }

// Feed advances the machine by one key transition. It returns the completed
// action and true when the final step of a sequence is observed; at most one
// action is produced per full match.
func (r *Recognizer) Feed(ev Event) (Action, bool) {
	switch r.state {
	case None:
		r.state = next(ev, Event{VolumeUp, true}, Step1)
	case Step1:
		r.state = next(ev, Event{VolumeUp, false}, Step2)
	case Step2:
		r.state = next(ev, Event{VolumeDown, true}, Step3)
	case Step3:
		r.state = next(ev, Event{VolumeDown, false}, Step4)
	case Step4:
		r.state = next(ev, Event{VolumeUp, true}, Step5)
	case Step5:
		r.state = next(ev, Event{Power, true}, Step6)
	case Step6:
		r.state = next(ev, Event{Power, false}, Step7)
	case Step7:
		r.state = next(ev, Event{Power, true}, Step8)
	case Step8:
		r.state = next(ev, Event{Power, false}, Step9)
	case Step9:
		r.state = next(ev, Event{VolumeUp, false}, Step10)
	case Step10:
		switch ev {
		case Event{VolumeUp, true}:
			r.state = Step11
		case Event{VolumeDown, true}:
			r.state = DebugBranch
		default:
			r.state = None
		}
	case Step11:
		r.state = None
		if ev == (Event{Power, true}) {
			return Action{Kind: ForceDump}, true
		}
	case DebugBranch:
		r.state = None
		switch ev {
		case Event{Power, true}:
			return Action{Kind: EnableDebugNotify}, true
		case Event{VolumeDown, false}:
			return Action{Kind: EnableSerialForceNotify}, true
		}
	}
	return Action{}, false
}

func next(got, want Event, to State) State {
	if got == want {
		return to
	}
	return None
}
