package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPidFileRoundTrip(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "dumpkey.pid")

	if err := writePidFile(pidFile, os.Getpid()); err != nil {
		t.Fatalf("writePidFile: %v", err)
	}
	if _, err := os.Stat(pidFile); err != nil {
		t.Fatalf("PID file missing: %v", err)
	}

	if err := removePidFile(pidFile); err != nil {
		t.Fatalf("removePidFile: %v", err)
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Fatal("PID file was not removed")
	}
}

func TestRemovePidFileEmptyPathNoop(t *testing.T) {
	if err := removePidFile(""); err != nil {
		t.Fatalf("empty path must be a no-op, got %v", err)
	}
}
