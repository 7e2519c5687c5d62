// Package audit records who did what to which resource. Recording is best
// effort: entries are queued without blocking and persisted by a single
// background goroutine.
package audit

import (
	"context"
	"time"
)

// Entry is one audit record.
type Entry struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"user_id"`
	Action       string    `json:"action"`
	Route        string    `json:"route"`
	ResourceKind *string   `json:"resource_kind"`
	ResourceID   *int64    `json:"resource_id"`
	IP           *string   `json:"ip"`
	RequestID    string    `json:"request_id,omitempty"`
	Status       int       `json:"status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Recorder accepts audit entries. Implementations must not block the caller
// and must not report failures.
type Recorder interface {
	Record(e Entry)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(e Entry)

func (f RecorderFunc) Record(e Entry) { f(e) }

// Store persists entries.
type Store interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit, offset int) ([]*Entry, int, error)
}
