// Package router maps completed gestures to their diagnostic side effects.
package router

import (
	"log/slog"

	"github.com/loykin/dumpkey/internal/gesture"
	"github.com/loykin/dumpkey/internal/metrics"
	"github.com/loykin/dumpkey/internal/notify"
	"github.com/loykin/dumpkey/internal/proctab"
	"github.com/loykin/dumpkey/internal/secmode"
	"github.com/loykin/dumpkey/internal/signaler"
)

// DumpMarker is the fixed diagnostic marker passed to the halt capability.
const DumpMarker = "Force Dump"

// Matcher locates the signal target for capture actions.
type Matcher interface {
	FindThreadByName(name string) (proctab.Descriptor, bool)
	FindProcessByName(name string) (proctab.Descriptor, bool)
}

// Signaler delivers the capture signal and waits out the grace period.
type Signaler interface {
	SignalAndWait(target proctab.Descriptor, kind signaler.Kind)
}

// Notifier schedules a peer notification for the background worker.
type Notifier interface {
	Schedule(kind notify.Kind)
}

// Capabilities are the external collaborators the router invokes. All three
// are injected so tests can intercept them; FatalHalt in particular must
// never be a direct system call here.
type Capabilities struct {
	// DumpModeEnabled reports whether the device may perform a
	// diagnostic system halt.
	DumpModeEnabled func() bool
	// FatalHalt performs the diagnostic halt. It does not return.
	FatalHalt func(marker string)
	// EnableForcedSerial turns on forced serial output.
	EnableForcedSerial func()
}

// Result reports what became of a dispatched action, for audit purposes
// only; callers never act on it.
type Result string

const (
	// ResultDispatched: the side effect ran.
	ResultDispatched Result = "dispatched"
	// ResultAbsorbed: force dump with dump mode disabled.
	ResultAbsorbed Result = "absorbed"
	// ResultNoMatch: capture target not found.
	ResultNoMatch Result = "no_match"
)

// Router dispatches one completed Action to its side effects. It holds no
// state machine of its own.
type Router struct {
	matcher  Matcher
	signaler Signaler
	notifier Notifier
	toggle   *secmode.Toggle
	caps     Capabilities
}

func New(m Matcher, s Signaler, n Notifier, t *secmode.Toggle, caps Capabilities) *Router {
	return &Router{matcher: m, signaler: s, notifier: n, toggle: t, caps: caps}
}

// Toggle exposes the security-enforcement flag for the policy reader.
func (r *Router) Toggle() *secmode.Toggle { return r.toggle }

// Dispatch routes a completed action. Unmatched capture targets and
// disabled dump mode are silently absorbed; that is the designed behavior,
// not an error. The returned Result feeds the audit journal only.
func (r *Router) Dispatch(a gesture.Action) Result {
	metrics.IncGestureCompleted(a.Kind.String())
	switch a.Kind {
	case gesture.ForceDump:
		if !r.caps.DumpModeEnabled() {
			slog.Info("force dump gesture absorbed, dump mode disabled")
			return ResultAbsorbed
		}
		slog.Warn("force dump triggered", "marker", DumpMarker)
		r.caps.FatalHalt(DumpMarker)
	case gesture.CaptureTrace:
		target, ok := r.matcher.FindThreadByName(a.Target)
		if !ok {
			return ResultNoMatch
		}
		metrics.IncSignalSent(signaler.Quit.String())
		r.signaler.SignalAndWait(target, signaler.Quit)
	case gesture.CaptureTombstone:
		target, ok := r.matcher.FindProcessByName(a.Target)
		if !ok {
			return ResultNoMatch
		}
		metrics.IncSignalSent(signaler.Debugger.String())
		r.signaler.SignalAndWait(target, signaler.Debugger)
	case gesture.EnableDebugNotify:
		r.toggle.SetEnforcing(false)
		r.notifier.Schedule(notify.DebugEnabled)
	case gesture.EnableSerialForceNotify:
		r.caps.EnableForcedSerial()
		r.notifier.Schedule(notify.SerialForceEnabled)
	}
	return ResultDispatched
}
