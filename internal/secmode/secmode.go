// Package secmode holds the security-enforcement flag consumed by the
// external policy-enforcement collaborator. The gesture path writes it, the
// policy reader polls it; last write wins. The flag is an atomic so the
// concurrent read/write stays within the Go memory model while keeping the
// same last-writer-wins outcome.
package secmode

import "sync/atomic"

// Enforcing is the initial state: security policy enforced.
const Enforcing = true

// Toggle is a single boolean security-enforcement flag.
type Toggle struct {
	permissive atomic.Bool
}

// NewToggle returns a toggle in the enforcing state.
func NewToggle() *Toggle { return &Toggle{} }

// SetEnforcing records whether policy enforcement is active.
func (t *Toggle) SetEnforcing(on bool) { t.permissive.Store(!on) }

// Enforcing reports whether policy enforcement is active.
func (t *Toggle) Enforcing() bool { return !t.permissive.Load() }
