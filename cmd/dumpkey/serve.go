package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/dumpkey/internal/config"
	"github.com/loykin/dumpkey/internal/engine"
	"github.com/loykin/dumpkey/internal/history"
	chsink "github.com/loykin/dumpkey/internal/history/clickhouse"
	"github.com/loykin/dumpkey/internal/input"
	"github.com/loykin/dumpkey/internal/journal"
	"github.com/loykin/dumpkey/internal/journal/factory"
	"github.com/loykin/dumpkey/internal/logger"
	"github.com/loykin/dumpkey/internal/metrics"
	"github.com/loykin/dumpkey/internal/notify"
	"github.com/loykin/dumpkey/internal/router"
	"github.com/loykin/dumpkey/internal/secmode"
	"github.com/loykin/dumpkey/internal/server"
	"github.com/loykin/dumpkey/internal/signaler"
)

func runServeCommand(flags *ServeFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}
	if configPath == "" {
		return fmt.Errorf("config file required for serve command. Use --config=config.toml or provide as argument")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if flags.Daemonize {
		return daemonize(flags.PidFile, flags.LogFile)
	}

	logCfg := logger.Config{}
	if cfg.Log != nil {
		logCfg = *cfg.Log
	}
	_, logCloser, err := logCfg.Setup()
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if logCloser != nil {
		defer func() { _ = logCloser.Close() }()
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		slog.Warn("metrics registration failed", "error", err)
	}
	if cfg.Metrics.Listen != "" {
		go serveMetrics(cfg.Metrics.Listen)
	}

	var jrnl journal.Journal
	if cfg.Journal.DSN != "" {
		jrnl, err = factory.NewFromDSN(cfg.Journal.DSN)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = jrnl.EnsureSchema(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to prepare journal schema: %w", err)
		}
		defer func() { _ = jrnl.Close() }()
	}

	var sinks []history.Sink
	if cfg.History.ClickHouseAddr != "" {
		sink, err := chsink.New(cfg.History.ClickHouseAddr, cfg.History.ClickHouseTable)
		if err != nil {
			slog.Warn("history sink unavailable", "addr", cfg.History.ClickHouseAddr, "error", err)
		} else {
			sinks = append(sinks, sink)
			defer func() { _ = sink.Close() }()
		}
	}

	// A dead notify socket costs only peer notifications; gestures and
	// captures keep working.
	var notifier router.Notifier = dropNotifier{}
	var peer engine.PeerReporter
	ch, err := listenNotify(cfg.Notify.Socket)
	if err != nil {
		slog.Warn("notify socket unavailable, notifications disabled", "socket", cfg.Notify.Socket, "error", err)
	} else {
		notifier = ch
		peer = ch
		defer func() { _ = ch.Close() }()
	}

	disp := signaler.NewDispatcher(nil, cfg.GracePeriod)
	toggle := secmode.NewToggle()
	rt := router.New(newMatcher(), disp, notifier, toggle, router.Capabilities{
		DumpModeEnabled:    func() bool { return cfg.DumpMode },
		FatalHalt:          fatalHalt,
		EnableForcedSerial: enableForcedSerial,
	})
	eng := engine.New(engine.Options{
		Router:          rt,
		Peer:            peer,
		Journal:         jrnl,
		Sinks:           sinks,
		DumpMode:        func() bool { return cfg.DumpMode },
		TraceTarget:     cfg.TraceTarget,
		TombstoneTarget: cfg.TombstoneTarget,
	})

	dev, err := input.OpenDevice(cfg.InputDevice)
	if err != nil {
		return fmt.Errorf("failed to open input device %s: %w", cfg.InputDevice, err)
	}
	defer func() { _ = dev.Close() }()
	go feedLoop(eng, dev)

	srv, err := server.NewServer(cfg.Server.Listen, cfg.Server.BasePath, eng)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	slog.Info("dumpkey serving",
		"device", cfg.InputDevice,
		"listen", cfg.Server.Listen,
		"base_path", cfg.Server.BasePath,
		"notify_socket", cfg.Notify.Socket,
		"dump_mode", cfg.DumpMode)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	_ = removePidFile(flags.PidFile)
	return srv.Close()
}

// dropNotifier stands in when the notify socket could not be opened.
type dropNotifier struct{}

func (dropNotifier) Schedule(kind notify.Kind) {
	slog.Warn("notification dropped, channel unavailable", "kind", kind.String())
}

// feedLoop pumps button transitions from the device into the engine until
// the device read fails, typically at shutdown when it is closed.
func feedLoop(eng *engine.Engine, dev *input.Device) {
	for {
		ev, err := dev.Next()
		if err != nil {
			slog.Warn("input device read stopped", "error", err)
			return
		}
		eng.Feed(ev)
	}
}

// listenNotify binds the unix datagram socket, clearing any stale file from
// a previous run.
func listenNotify(path string) (*notify.Channel, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	conn, err := net.ListenPacket("unixgram", path)
	if err != nil {
		return nil, err
	}
	return notify.New(conn)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		slog.Warn("metrics server stopped", "error", err)
	}
}
