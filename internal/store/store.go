// Package store provides the durable transcript archive.
package store

import (
	"context"
	"time"

	"github.com/ashureev/argument-clinic/internal/domain"
)

// Repository defines the interface for persisting sessions and turns.
// Archive rows outlive session expiry; they are the clinic's record.
type Repository interface {
	// UpsertSession creates or refreshes the archived session row.
	UpsertSession(ctx context.Context, record *domain.SessionRecord) error

	// GetSession retrieves an archived session, or nil if unknown.
	GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// RecordTurn appends one completed conversation turn.
	RecordTurn(ctx context.Context, turn *domain.ConversationTurn) error

	// GetTranscript returns all archived turns for a session in insertion order.
	GetTranscript(ctx context.Context, sessionID string) ([]*domain.ConversationTurn, error)

	// DeleteOlderThan removes archived sessions (and their turns) whose last
	// activity is older than the retention window. Returns rows deleted.
	DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
