// Package journal persists an audit trail of dispatched diagnostic actions
// so field engineers can reconstruct what a device was asked to do.
package journal

import (
	"context"
	"time"
)

// Record is one dispatched diagnostic action.
type Record struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Target     string    `json:"target,omitempty"`
	Result     string    `json:"result"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Results recorded for an action.
const (
	ResultDispatched = "dispatched"
	ResultAbsorbed   = "absorbed"
	ResultNoMatch    = "no_match"
)

// Journal is the persistence interface for trigger records.
type Journal interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
