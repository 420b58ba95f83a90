package clinic

import (
	"sync/atomic"
	"time"
)

// Session bundles a conversation engine with its single-flight guard. The
// engine's fields are only touched between a successful BeginStep and the
// matching EndStep, so no step ever observes another step's partial state.
type Session struct {
	ID        string
	CreatedAt time.Time

	Engine *Engine

	processing atomic.Bool
}

// NewSession creates a session around a freshly constructed engine.
func NewSession(id string, engine *Engine) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Engine:    engine,
	}
}

// BeginStep claims the session for one step. It returns false when a step is
// already in flight; the caller must then reject the input without mutating
// any session state.
func (s *Session) BeginStep() bool {
	return s.processing.CompareAndSwap(false, true)
}

// EndStep releases the session. It must run on every exit path of a step,
// success or failure.
func (s *Session) EndStep() {
	s.processing.Store(false)
}

// Processing reports whether a step is currently in flight.
func (s *Session) Processing() bool {
	return s.processing.Load()
}
