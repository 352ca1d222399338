package audit

import (
	"context"
	"time"
)

// Entry - one recorded mutation. Before/After hold non-sensitive fields
// only; encrypted tokens and decrypted amounts never enter the trail.
type Entry struct {
	ID         string
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Before     map[string]interface{}
	After      map[string]interface{}
	CreatedAt  time.Time
}

// Sink appends audit entries. Record is fire-and-forget: implementations
// log failures and never surface them, so an audit outage cannot roll
// back a payroll mutation.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}
