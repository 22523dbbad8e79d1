// Package health aggregates readiness probes for dependent subsystems.
package health

import (
	"context"
	"sync"
)

// Status is the reported outcome of one probe.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Check probes a single subsystem and returns an error when it is unusable.
type Check func(ctx context.Context) error

// Registry runs registered probes on demand.
type Registry struct {
	mu     sync.RWMutex
	names  []string
	checks map[string]Check
}

func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Check)}
}

// Register adds a probe under name. Registering the same name again
// replaces the earlier probe without changing its position.
func (r *Registry) Register(name string, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checks[name]; !ok {
		r.names = append(r.names, name)
	}
	r.checks[name] = check
}

// CheckAll runs every probe in registration order and reports whether all
// of them passed.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	r.mu.RLock()
	names := append([]string(nil), r.names...)
	checks := make(map[string]Check, len(r.checks))
	for name, check := range r.checks {
		checks[name] = check
	}
	r.mu.RUnlock()

	ok := true
	statuses := make([]Status, 0, len(names))
	for _, name := range names {
		st := Status{Name: name, Healthy: true}
		if err := checks[name](ctx); err != nil {
			st.Healthy = false
			st.Detail = err.Error()
			ok = false
		}
		statuses = append(statuses, st)
	}
	return ok, statuses
}
