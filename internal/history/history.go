package history

import (
	"context"
	"time"
)

// Event is a diagnostic trigger exported to external analytics systems.
type Event struct {
	Action     string    `json:"action"`
	Target     string    `json:"target,omitempty"`
	Result     string    `json:"result"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink is a destination for trigger events (analytics/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
