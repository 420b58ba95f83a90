// Package session provides the process-wide registry of live conversation
// sessions and their inactivity timers.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/argument-clinic/internal/clinic"
	"github.com/google/uuid"
)

// Factory builds the session for a newly allocated identifier.
type Factory func(id string) *clinic.Session

// ExpiryCallback is invoked after a session is removed by its inactivity
// timer. It runs outside the registry lock.
type ExpiryCallback func(sess *clinic.Session)

type entry struct {
	sess         *clinic.Session
	timer        *time.Timer
	lastActivity time.Time
}

// Registry owns session creation, lookup, activity tracking and removal.
// Every touch restarts the inactivity countdown from zero; a timer that
// fires without an intervening touch or remove deletes the session.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	timeout  time.Duration
	factory  Factory
	onExpire ExpiryCallback
}

// NewRegistry creates a registry whose sessions expire after timeout of
// inactivity. onExpire may be nil.
func NewRegistry(timeout time.Duration, factory Factory, onExpire ExpiryCallback) *Registry {
	return &Registry{
		entries:  make(map[string]*entry),
		timeout:  timeout,
		factory:  factory,
		onExpire: onExpire,
	}
}

// Create allocates a new session, schedules its expiry timer and returns it.
func (r *Registry) Create() *clinic.Session {
	id := uuid.NewString()
	sess := r.factory(id)

	r.mu.Lock()
	r.entries[id] = &entry{
		sess:         sess,
		timer:        time.AfterFunc(r.timeout, func() { r.expire(id) }),
		lastActivity: time.Now(),
	}
	r.mu.Unlock()

	slog.Info("session created", "session_id", id, "timeout", r.timeout)
	return sess
}

// Get returns the live session for id, or clinic.ErrSessionNotFound.
func (r *Registry) Get(id string) (*clinic.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, clinic.ErrSessionNotFound
	}
	return e.sess, nil
}

// Touch restarts the inactivity countdown for id. A touch against a removed
// session is a no-op, not an error: an in-flight step may legitimately
// outlive its session's expiry.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.timer.Stop()
	e.timer = time.AfterFunc(r.timeout, func() { r.expire(id) })
	e.lastActivity = time.Now()
}

// Remove cancels the pending timer and deletes the session. Idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		e.timer.Stop()
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok {
		slog.Info("session removed", "session_id", id)
	}
}

// ActiveCount returns the number of live sessions.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// LastActivity returns the time of the last touch for id, and whether the
// session exists.
func (r *Registry) LastActivity(id string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return e.lastActivity, true
}

// expire runs when an inactivity timer fires. The entry may already be gone
// if a Remove raced the timer; a Touch may also have won the lock first and
// restarted the countdown, in which case this firing is stale and must not
// delete the entry.
func (r *Registry) expire(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok && time.Since(e.lastActivity) < r.timeout {
		r.mu.Unlock()
		return
	}
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	slog.Info("session expired", "session_id", id)
	if r.onExpire != nil {
		r.onExpire(e.sess)
	}
}
