// Package engine feeds button events through the recognizer and turns
// completed gestures into dispatched diagnostic actions, with audit
// journaling and history export around the dispatch.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loykin/dumpkey/internal/gesture"
	"github.com/loykin/dumpkey/internal/history"
	"github.com/loykin/dumpkey/internal/journal"
	"github.com/loykin/dumpkey/internal/metrics"
	"github.com/loykin/dumpkey/internal/router"
	"github.com/loykin/dumpkey/internal/secmode"
)

// PeerReporter exposes the notification channel's registered peer for
// status reporting.
type PeerReporter interface {
	Peer() (string, bool)
}

// Options wires the engine's collaborators. Router is required; the rest
// are optional.
type Options struct {
	Router  *router.Router
	Peer    PeerReporter
	Journal journal.Journal
	Sinks   []history.Sink
	// DumpMode is reported in status snapshots; the router holds its own
	// copy of the capability for dispatch.
	DumpMode func() bool
	// TraceTarget and TombstoneTarget fill capture actions that arrive
	// without an explicit target.
	TraceTarget     string
	TombstoneTarget string
}

// Engine owns one recognizer and one chord tracker per input source. Feed
// is serialized; everything downstream of a completed gesture may block,
// which is acceptable because gestures are rare and deliberate.
type Engine struct {
	mu     sync.Mutex
	rec    *gesture.Recognizer
	chord  gesture.Chord
	router *router.Router
	peer   PeerReporter
	jrnl   journal.Journal
	sinks  []history.Sink
	dump   func() bool

	traceTarget     string
	tombstoneTarget string
}

func New(opts Options) *Engine {
	return &Engine{
		rec:             gesture.NewRecognizer(),
		router:          opts.Router,
		peer:            opts.Peer,
		jrnl:            opts.Journal,
		sinks:           opts.Sinks,
		dump:            opts.DumpMode,
		traceTarget:     opts.TraceTarget,
		tombstoneTarget: opts.TombstoneTarget,
	}
}

// Feed advances the recognizer by one button transition and dispatches the
// resulting action, if any.
func (e *Engine) Feed(ev gesture.Event) {
	e.mu.Lock()
	metrics.IncButtonEvent()
	e.chord.Observe(ev)
	before := e.rec.State()
	action, ok := e.rec.Feed(ev)
	if !ok && before != gesture.None && e.rec.State() == gesture.None {
		metrics.IncGestureReset()
	}
	e.mu.Unlock()
	if ok {
		e.dispatch(action)
	}
}

// Trigger dispatches an action directly, bypassing the gesture machine.
// Used by the HTTP trigger endpoint.
func (e *Engine) Trigger(a gesture.Action) router.Result {
	return e.dispatch(a)
}

// TriggerChordGated dispatches a only while the power and volume-up keys
// are both held. Requests arriving without the chord are silently dropped,
// mirroring the compound-key capture behavior.
func (e *Engine) TriggerChordGated(a gesture.Action) (router.Result, bool) {
	e.mu.Lock()
	held := e.chord.Held()
	e.mu.Unlock()
	if !held {
		return "", false
	}
	return e.dispatch(a), true
}

func (e *Engine) dispatch(a gesture.Action) router.Result {
	if a.Target == "" {
		switch a.Kind {
		case gesture.CaptureTrace:
			a.Target = e.traceTarget
		case gesture.CaptureTombstone:
			a.Target = e.tombstoneTarget
		}
	}
	res := e.router.Dispatch(a)
	e.record(a, res)
	return res
}

func (e *Engine) record(a gesture.Action, res router.Result) {
	now := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if e.jrnl != nil {
		rec := journal.Record{
			ID:         uuid.NewString(),
			Action:     a.Kind.String(),
			Target:     a.Target,
			Result:     string(res),
			OccurredAt: now,
		}
		if err := e.jrnl.Append(ctx, rec); err != nil {
			slog.Warn("journal append failed", "action", rec.Action, "error", err)
		}
	}
	for _, s := range e.sinks {
		evt := history.Event{Action: a.Kind.String(), Target: a.Target, Result: string(res), OccurredAt: now}
		if err := s.Send(ctx, evt); err != nil {
			slog.Warn("history sink send failed", "action", evt.Action, "error", err)
		}
	}
}

// Status is a point-in-time snapshot for the HTTP API.
type Status struct {
	State        string `json:"state"`
	ChordHeld    bool   `json:"chord_held"`
	Peer         string `json:"peer,omitempty"`
	Enforcing    bool   `json:"enforcing"`
	DumpMode     bool   `json:"dump_mode"`
	PeerAttached bool   `json:"peer_attached"`
}

// Snapshot reports the current recognizer position and collaborator state.
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	st := Status{
		State:     stateName(e.rec.State()),
		ChordHeld: e.chord.Held(),
	}
	e.mu.Unlock()
	st.Enforcing = e.router.Toggle().Enforcing()
	if e.dump != nil {
		st.DumpMode = e.dump()
	}
	if e.peer != nil {
		if p, ok := e.peer.Peer(); ok {
			st.Peer = p
			st.PeerAttached = true
		}
	}
	return st
}

// Toggle exposes the security-enforcement flag for the policy reader.
func (e *Engine) Toggle() *secmode.Toggle { return e.router.Toggle() }

// Recent returns the newest audit records, or nil without a journal.
func (e *Engine) Recent(ctx context.Context, limit int) ([]journal.Record, error) {
	if e.jrnl == nil {
		return nil, nil
	}
	return e.jrnl.Recent(ctx, limit)
}

func stateName(s gesture.State) string {
	switch s {
	case gesture.None:
		return "none"
	case gesture.DebugBranch:
		return "debug_branch"
	default:
		return "in_sequence"
	}
}
