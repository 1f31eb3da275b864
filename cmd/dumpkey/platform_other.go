//go:build !linux

package main

import (
	"log/slog"

	"github.com/loykin/dumpkey/internal/proctab"
	"github.com/loykin/dumpkey/internal/router"
)

type noProcEnumerator struct{}

func (noProcEnumerator) Threads() ([]proctab.Descriptor, error)   { return nil, nil }
func (noProcEnumerator) Processes() ([]proctab.Descriptor, error) { return nil, nil }

// newMatcher has no process table to scan off linux; captures never match.
func newMatcher() router.Matcher {
	return proctab.NewMatcher(noProcEnumerator{})
}

func fatalHalt(marker string) {
	slog.Error("diagnostic crash unsupported on this platform", "marker", marker)
}

func enableForcedSerial() {
	slog.Warn("forced serial console unsupported on this platform")
}
