package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	buttonEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dumpkey",
			Subsystem: "gesture",
			Name:      "events_total",
			Help:      "Number of button events fed to the recognizer.",
		},
	)
	gestureResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dumpkey",
			Subsystem: "gesture",
			Name:      "resets_total",
			Help:      "Number of mid-sequence resets caused by off-table events.",
		},
	)
	gesturesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dumpkey",
			Subsystem: "gesture",
			Name:      "completed_total",
			Help:      "Number of fully matched gestures, by resulting action.",
		}, []string{"action"},
	)
	signalsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dumpkey",
			Subsystem: "dispatch",
			Name:      "signals_sent_total",
			Help:      "Number of diagnostic signals delivered, by kind.",
		}, []string{"kind"},
	)
	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dumpkey",
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Number of peer notifications transmitted, by kind.",
		}, []string{"kind"},
	)
	notificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dumpkey",
			Subsystem: "notify",
			Name:      "dropped_total",
			Help:      "Notifications dropped because no peer was registered or the send failed.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{buttonEvents, gestureResets, gesturesCompleted, signalsSent, notificationsSent, notificationsDropped}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncButtonEvent() {
	if regOK.Load() {
		buttonEvents.Inc()
	}
}

func IncGestureReset() {
	if regOK.Load() {
		gestureResets.Inc()
	}
}

func IncGestureCompleted(action string) {
	if regOK.Load() {
		gesturesCompleted.WithLabelValues(action).Inc()
	}
}

func IncSignalSent(kind string) {
	if regOK.Load() {
		signalsSent.WithLabelValues(kind).Inc()
	}
}

func IncNotificationSent(kind string) {
	if regOK.Load() {
		notificationsSent.WithLabelValues(kind).Inc()
	}
}

func IncNotificationDropped() {
	if regOK.Load() {
		notificationsDropped.Inc()
	}
}
