package session

import (
	"context"
	"log"
	"sync"
	"time"

	"quizlive/pkg/types"
)

// Registry holds one Session per execution identifier with per-session
// locking. Mutations to a given session are serialized through WithLock;
// sessions for different executions never block each other.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// entry pairs a session with its own mutex and an activity timestamp for the
// idle sweeper. The registry mutex only guards the map; it is never held
// while an entry mutex is held, so per-session critical sections cannot
// block unrelated sessions.
type entry struct {
	mu         sync.Mutex
	session    *types.Session
	lastActive time.Time
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// GetOrCreate returns the session for an execution, creating it in the
// initial state (waiting, index -1, no host, no participants) if absent.
func (r *Registry) GetOrCreate(executionID string, quiz *types.Quiz) *types.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[executionID]; ok {
		return e.session
	}

	e := &entry{
		session:    types.NewSession(executionID, quiz),
		lastActive: time.Now(),
	}
	r.entries[executionID] = e
	log.Printf("Created session: execution=%s quiz=%s", executionID, quiz.ID)
	return e.session
}

// WithLock executes fn with exclusive access to the session's mutable
// fields. Returns ErrSessionNotFound for an unknown execution. An error from
// fn means the transition was rejected before any mutation; the session is
// never left half-applied.
func (r *Registry) WithLock(executionID string, fn func(*types.Session) error) error {
	r.mu.RLock()
	e, ok := r.entries[executionID]
	r.mu.RUnlock()

	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.session); err != nil {
		return err
	}
	e.lastActive = time.Now()
	return nil
}

// Remove deletes a session. Removing an unknown execution is a no-op.
func (r *Registry) Remove(executionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, executionID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Stats returns registry statistics for the health endpoint. Session fields
// are read under each entry's mutex; the map lock alone does not guard them.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	hosted := 0
	participants := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.session.HostConnectionID != "" {
			hosted++
		}
		participants += e.session.ParticipantCount()
		e.mu.Unlock()
	}

	return map[string]int{
		"sessions":     len(entries),
		"hosted":       hosted,
		"participants": participants,
	}
}

// StartSweeper periodically removes sessions that have had no host and no
// participants for longer than idleExpiry. This is the explicit reclamation
// policy for sessions orphaned by host disconnects.
func (r *Registry) StartSweeper(ctx context.Context, idleExpiry, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if removed := r.sweep(time.Now(), idleExpiry); removed > 0 {
					log.Printf("Swept %d idle sessions", removed)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// sweep removes idle, empty, unhosted sessions and reports how many went.
func (r *Registry) sweep(now time.Time, idleExpiry time.Duration) int {
	r.mu.RLock()
	candidates := make(map[string]*entry, len(r.entries))
	for executionID, e := range r.entries {
		candidates[executionID] = e
	}
	r.mu.RUnlock()

	removed := 0
	for executionID, e := range candidates {
		e.mu.Lock()
		idle := e.session.HostConnectionID == "" &&
			e.session.ParticipantCount() == 0 &&
			now.Sub(e.lastActive) > idleExpiry
		e.mu.Unlock()

		if !idle {
			continue
		}

		r.mu.Lock()
		// Re-check identity: a concurrent Remove+GetOrCreate may have
		// replaced the entry since the idle check.
		if current, ok := r.entries[executionID]; ok && current == e {
			delete(r.entries, executionID)
			removed++
		}
		r.mu.Unlock()
	}

	return removed
}
