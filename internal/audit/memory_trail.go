package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryTrail stores audit entries in memory for demo/testing.
type MemoryTrail struct {
	mu       sync.RWMutex
	entries  []*Entry
	nextID   int64
	observer Observer
}

// NewMemoryTrail creates an in-memory audit trail.
func NewMemoryTrail() *MemoryTrail {
	return &MemoryTrail{}
}

// Observe sets the observer notified on every recorded entry.
func (t *MemoryTrail) Observe(fn Observer) {
	t.mu.Lock()
	t.observer = fn
	t.mu.Unlock()
}

func (t *MemoryTrail) Record(_ context.Context, entry *Entry) error {
	t.mu.Lock()

	t.nextID++
	cp := *entry
	cp.ID = t.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	t.entries = append(t.entries, &cp)
	observer := t.observer
	t.mu.Unlock()

	if observer != nil {
		observer(&cp)
	}
	return nil
}

func (t *MemoryTrail) Query(_ context.Context, f Filter) ([]*Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var result []*Entry
	// Iterate in reverse for descending order
	for i := len(t.entries) - 1; i >= 0 && len(result) < limit; i-- {
		e := t.entries[i]
		if f.Before != nil {
			// Keyset bound: only entries strictly before (CreatedAt, ID).
			if e.CreatedAt.After(f.Before.CreatedAt) ||
				(e.CreatedAt.Equal(f.Before.CreatedAt) && e.ID >= f.Before.ID) {
				continue
			}
		}
		if f.Actor != "" && e.Actor != f.Actor {
			continue
		}
		if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.CreatedAt.After(f.To) {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	return result, nil
}

// Entries returns all stored entries in insertion order (for testing).
func (t *MemoryTrail) Entries() []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*Entry, len(t.entries))
	copy(result, t.entries)
	return result
}
