// Package audit provides the append-only decision trail.
//
// Every intent resolution, risk verdict, and settlement outcome writes
// exactly one entry. Entries are never mutated or deleted.
package audit

import (
	"context"
	"time"
)

// Status tags a decision point. The vocabulary is fixed; nothing outside
// this set is ever written.
type Status string

const (
	StatusNLUSuccess       Status = "NLU_SUCCESS"
	StatusNLUMissingEntity Status = "NLU_MISSING_ENTITY"
	StatusBlocked          Status = "BLOCKED"
	StatusChallenge        Status = "SECURITY_CHALLENGE"
	StatusLowRiskPass      Status = "LOW_RISK_PASS"
	StatusExecSuccess      Status = "EXECUTION_SUCCESS"
	StatusExecFailure      Status = "EXECUTION_FAILURE"
	StatusFailed           Status = "FAILED"
)

// Entry is a single audit record.
type Entry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Intent    string    `json:"intent"`
	Status    Status    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cursor marks a resume position for paginated queries. Query returns
// entries strictly before (CreatedAt, ID) in descending order, so entries
// sharing the boundary timestamp are never skipped.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

// Filter narrows a Query. Zero values mean no constraint.
type Filter struct {
	Actor  string
	From   time.Time
	To     time.Time
	Status Status
	Limit  int
	Before *Cursor
}

// Trail persists audit entries.
type Trail interface {
	Record(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, f Filter) ([]*Entry, error)
	// Observe registers a callback invoked for every recorded entry.
	Observe(fn Observer)
}

// Observer is notified of every recorded entry. Used to fan entries out to
// the realtime feed without coupling the trail to WebSockets.
type Observer func(entry *Entry)
