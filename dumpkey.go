package dumpkey

import (
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/dumpkey/internal/config"
	"github.com/loykin/dumpkey/internal/engine"
	"github.com/loykin/dumpkey/internal/gesture"
	"github.com/loykin/dumpkey/internal/history"
	"github.com/loykin/dumpkey/internal/journal"
	"github.com/loykin/dumpkey/internal/journal/factory"
	"github.com/loykin/dumpkey/internal/metrics"
	"github.com/loykin/dumpkey/internal/notify"
	"github.com/loykin/dumpkey/internal/router"
	"github.com/loykin/dumpkey/internal/secmode"
	iapi "github.com/loykin/dumpkey/internal/server"
	"github.com/loykin/dumpkey/internal/signaler"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Event = gesture.Event

type Button = gesture.Button

type Action = gesture.Action

type ActionKind = gesture.ActionKind

type Status = engine.Status

type Record = journal.Record

type Config = cfg.Config

type HistorySink = history.Sink

type Matcher = router.Matcher

type Signaler = router.Signaler

type Notifier = router.Notifier

type NotifyChannel = notify.Channel

const (
	Power      = gesture.Power
	VolumeUp   = gesture.VolumeUp
	VolumeDown = gesture.VolumeDown
)

const (
	ForceDump               = gesture.ForceDump
	CaptureTrace            = gesture.CaptureTrace
	CaptureTombstone        = gesture.CaptureTombstone
	EnableDebugNotify       = gesture.EnableDebugNotify
	EnableSerialForceNotify = gesture.EnableSerialForceNotify
)

// Engine is a thin facade over internal/engine.Engine.
// It provides a stable public API for embedding.

type Engine struct{ inner *engine.Engine }

// Deps are the collaborators an embedded engine dispatches through. Matcher,
// Signaler and Notifier may be nil only when the corresponding actions are
// never triggered.
type Deps struct {
	Matcher  Matcher
	Signaler Signaler
	Notifier Notifier
	Journal  journal.Journal
	Sinks    []HistorySink

	// TraceTarget and TombstoneTarget fill capture actions that arrive
	// without an explicit target.
	TraceTarget     string
	TombstoneTarget string

	// DumpModeEnabled gates the force-dump halt; nil means always disabled.
	DumpModeEnabled func() bool
	// FatalHalt performs the diagnostic system halt. It does not return.
	FatalHalt func(marker string)
	// EnableForcedSerial turns on forced serial console output.
	EnableForcedSerial func()
}

func New(d Deps) *Engine {
	enabled := d.DumpModeEnabled
	if enabled == nil {
		enabled = func() bool { return false }
	}
	halt := d.FatalHalt
	if halt == nil {
		halt = func(string) {}
	}
	serial := d.EnableForcedSerial
	if serial == nil {
		serial = func() {}
	}
	r := router.New(d.Matcher, d.Signaler, d.Notifier, secmode.NewToggle(), router.Capabilities{
		DumpModeEnabled:    enabled,
		FatalHalt:          halt,
		EnableForcedSerial: serial,
	})
	var peer engine.PeerReporter
	if ch, ok := d.Notifier.(*notify.Channel); ok {
		peer = ch
	}
	inner := engine.New(engine.Options{
		Router:          r,
		Peer:            peer,
		Journal:         d.Journal,
		Sinks:           d.Sinks,
		DumpMode:        enabled,
		TraceTarget:     d.TraceTarget,
		TombstoneTarget: d.TombstoneTarget,
	})
	return &Engine{inner: inner}
}

func (e *Engine) Feed(ev Event)                { e.inner.Feed(ev) }
func (e *Engine) Trigger(a Action) string      { return string(e.inner.Trigger(a)) }
func (e *Engine) Snapshot() Status             { return e.inner.Snapshot() }
func (e *Engine) Enforcing() bool              { return e.inner.Toggle().Enforcing() }
func (e *Engine) TriggerChordGated(a Action) (string, bool) {
	res, ok := e.inner.TriggerChordGated(a)
	return string(res), ok
}

// NewSignalDispatcher builds a platform signal dispatcher. A zero grace
// means the built-in default.
func NewSignalDispatcher(grace time.Duration) Signaler {
	return signaler.NewDispatcher(nil, grace)
}

// ListenNotify binds a unix datagram socket at path and starts the
// notification channel's background workers on it.
func ListenNotify(path string) (*NotifyChannel, error) {
	conn, err := net.ListenPacket("unixgram", path)
	if err != nil {
		return nil, err
	}
	return notify.New(conn)
}

// NewJournal opens the audit journal selected by dsn (sqlite path or
// postgres URL).
func NewJournal(dsn string) (journal.Journal, error) {
	return factory.NewFromDSN(dsn)
}

func LoadConfig(path string) (*Config, error) {
	return cfg.Load(path)
}

// NewHTTPServer starts an HTTP server exposing the internal API using the given engine.
func NewHTTPServer(addr, basePath string, e *Engine) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, e.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
