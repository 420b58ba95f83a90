package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/argument-clinic/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		turn_count INTEGER NOT NULL DEFAULT 0,
		payment_received INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		last_activity_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_activity ON sessions(last_activity_at);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_input TEXT NOT NULL,
		ai_response TEXT NOT NULL,
		node TEXT NOT NULL,
		intent TEXT,
		response_time_ms REAL NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertSession creates or refreshes the archived session row.
func (s *SQLiteStore) UpsertSession(ctx context.Context, record *domain.SessionRecord) error {
	query := `
	INSERT INTO sessions (session_id, turn_count, payment_received, created_at, last_activity_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		turn_count = excluded.turn_count,
		payment_received = excluded.payment_received,
		last_activity_at = excluded.last_activity_at`

	_, err := s.db.ExecContext(ctx, query,
		record.SessionID, record.TurnCount, boolToInt(record.PaymentReceived),
		record.CreatedAt.Unix(), record.LastActivityAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// GetSession retrieves an archived session, or nil if unknown.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	query := `
		SELECT session_id, turn_count, payment_received, created_at, last_activity_at
		FROM sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID)

	var record domain.SessionRecord
	var payment int
	var createdAt, lastActivity int64

	err := row.Scan(&record.SessionID, &record.TurnCount, &payment, &createdAt, &lastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	record.PaymentReceived = payment != 0
	record.CreatedAt = time.Unix(createdAt, 0)
	record.LastActivityAt = time.Unix(lastActivity, 0)

	return &record, nil
}

// RecordTurn appends one completed conversation turn.
func (s *SQLiteStore) RecordTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	query := `
	INSERT INTO turns (session_id, user_input, ai_response, node, intent, response_time_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		turn.SessionID, turn.UserInput, turn.AIResponse,
		string(turn.Node), string(turn.Intent), turn.ResponseTimeMS,
		turn.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// GetTranscript returns all archived turns for a session in insertion order.
func (s *SQLiteStore) GetTranscript(ctx context.Context, sessionID string) ([]*domain.ConversationTurn, error) {
	query := `
		SELECT session_id, user_input, ai_response, node, intent, response_time_ms, created_at
		FROM turns WHERE session_id = ? ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var turns []*domain.ConversationTurn
	for rows.Next() {
		var turn domain.ConversationTurn
		var node, intent string
		var createdAt int64

		if err := rows.Scan(&turn.SessionID, &turn.UserInput, &turn.AIResponse,
			&node, &intent, &turn.ResponseTimeMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}

		turn.Node = domain.Node(node)
		turn.Intent = domain.Intent(intent)
		turn.CreatedAt = time.Unix(createdAt, 0)
		turns = append(turns, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript rows: %w", err)
	}

	return turns, nil
}

// DeleteOlderThan removes archived sessions and their turns past the
// retention window.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM turns WHERE session_id IN (SELECT session_id FROM sessions WHERE last_activity_at < ?)`,
		cutoff); err != nil {
		return 0, fmt.Errorf("delete old turns: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_activity_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return deleted, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
