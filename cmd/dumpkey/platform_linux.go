//go:build linux

package main

import (
	"log/slog"
	"os"

	"github.com/loykin/dumpkey/internal/proctab"
	"github.com/loykin/dumpkey/internal/router"
)

const (
	sysrqTriggerPath = "/proc/sysrq-trigger"
	serialForcePath  = "/sys/kernel/debug/dumpkey/force_serial"
)

// newMatcher scans /proc for capture targets.
func newMatcher() router.Matcher {
	return proctab.NewMatcher(proctab.ProcfsEnumerator{Root: "/proc"})
}

// fatalHalt crashes the kernel through sysrq so the boot chain collects a
// full memory dump. It does not return on success.
func fatalHalt(marker string) {
	slog.Error("forcing diagnostic crash", "marker", marker)
	if err := os.WriteFile(sysrqTriggerPath, []byte("c"), 0o200); err != nil {
		slog.Error("sysrq crash failed", "error", err)
	}
}

// enableForcedSerial asks the platform to keep the serial console on.
func enableForcedSerial() {
	if err := os.WriteFile(serialForcePath, []byte("1"), 0o200); err != nil {
		slog.Warn("forced serial enable failed", "error", err)
		return
	}
	slog.Info("forced serial console enabled")
}
