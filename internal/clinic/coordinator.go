package clinic

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/argument-clinic/internal/metrics"
)

// SessionLookup resolves a session identifier to a live session. Implemented
// by the session registry.
type SessionLookup interface {
	Get(id string) (*Session, error)
}

// Coordinator serializes steps per session: at most one step runs at a time
// for a given session, and a concurrent attempt is rejected immediately
// rather than queued.
type Coordinator struct {
	sessions SessionLookup
	metrics  *metrics.Collector
}

// NewCoordinator creates a coordinator over the given session lookup.
func NewCoordinator(sessions SessionLookup, collector *metrics.Collector) *Coordinator {
	return &Coordinator{sessions: sessions, metrics: collector}
}

// Outcome is the result of one coordinated step.
type Outcome struct {
	StepResult
	Elapsed time.Duration
}

// Step looks up the session and drives exactly one engine transition.
//
// Returns ErrSessionNotFound when the identifier does not resolve, and
// ErrSessionBusy when a prior step is still in flight; the busy case mutates
// nothing and is tallied as a rejection, not an error. Collaborator failures
// propagate to the caller after the processing flag has been cleared; the
// session remains usable for the next input.
func (c *Coordinator) Step(ctx context.Context, sessionID, input string) (*Outcome, error) {
	sess, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.BeginStep() {
		slog.Warn("concurrent step rejected", "session_id", sessionID)
		c.metrics.IncRejection()
		return nil, ErrSessionBusy
	}
	defer sess.EndStep()

	start := time.Now()
	result, err := sess.Engine.Step(ctx, input)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.IncError()
		return nil, err
	}

	c.metrics.ObserveStep(elapsed)
	c.metrics.IncSuccess()

	return &Outcome{StepResult: *result, Elapsed: elapsed}, nil
}
