// Package signaler delivers forced diagnostic signals to matched tasks and
// waits out the grace period the target needs to write its artifact.
package signaler

import (
	"log/slog"
	"time"

	"github.com/loykin/dumpkey/internal/proctab"
)

// DefaultGrace is how long SignalAndWait blocks after delivery, giving the
// target time to emit its trace or tombstone before the caller continues.
const DefaultGrace = 500 * time.Millisecond

// Kind selects the diagnostic signal class.
type Kind int

const (
	// Quit asks the target runtime to dump thread traces to its log.
	Quit Kind = iota
	// Debugger asks the crash handler to write an on-disk tombstone.
	Debugger
)

func (k Kind) String() string {
	switch k {
	case Quit:
		return "quit"
	case Debugger:
		return "debugger"
	default:
		return "unknown"
	}
}

// KillFunc delivers a signal number to a thread group. Injected so tests
// never signal real processes.
type KillFunc func(tgid int, signum int) error

// Dispatcher sends one signal per request, fire-and-forget, then blocks for
// the grace period. No retry, no delivery confirmation.
type Dispatcher struct {
	kill  KillFunc
	grace time.Duration
}

// NewDispatcher builds a dispatcher around kill. A zero grace means
// DefaultGrace; kill == nil uses the platform default.
func NewDispatcher(kill KillFunc, grace time.Duration) *Dispatcher {
	if kill == nil {
		kill = defaultKill
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Dispatcher{kill: kill, grace: grace}
}

// SignalAndWait delivers kind to the target's whole thread group and sleeps
// the grace period. It deliberately blocks the caller; it must only run
// after a completed gesture, never on the event-feeding path.
func (d *Dispatcher) SignalAndWait(target proctab.Descriptor, kind Kind) {
	if err := d.kill(target.TGID, signum(kind)); err != nil {
		slog.Warn("signal delivery failed", "target", target.Name, "tgid", target.TGID, "kind", kind.String(), "error", err)
	} else {
		slog.Info("signal delivered", "target", target.Name, "tgid", target.TGID, "kind", kind.String())
	}
	time.Sleep(d.grace)
}
