package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/argument-clinic/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()

	repo, err := NewSQLite(filepath.Join(t.TempDir(), "clinic.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteStore_SessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	created := time.Now().Add(-time.Hour).Truncate(time.Second)
	record := &domain.SessionRecord{
		SessionID:       "sess-1",
		TurnCount:       4,
		PaymentReceived: false,
		CreatedAt:       created,
		LastActivityAt:  created.Add(30 * time.Minute),
	}
	if err := repo.UpsertSession(ctx, record); err != nil {
		t.Fatalf("UpsertSession() error = %v", err)
	}

	got, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetSession() = nil, want record")
	}
	if got.TurnCount != 4 {
		t.Errorf("TurnCount = %d, want 4", got.TurnCount)
	}
	if got.PaymentReceived {
		t.Error("PaymentReceived = true, want false")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	// Upsert with the same id refreshes the row instead of inserting.
	record.TurnCount = 9
	record.PaymentReceived = true
	if err := repo.UpsertSession(ctx, record); err != nil {
		t.Fatalf("second UpsertSession() error = %v", err)
	}

	got, err = repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession() after upsert error = %v", err)
	}
	if got.TurnCount != 9 || !got.PaymentReceived {
		t.Errorf("refreshed record = (%d, %v), want (9, true)", got.TurnCount, got.PaymentReceived)
	}
}

func TestSQLiteStore_GetSessionUnknown(t *testing.T) {
	repo := newTestStore(t)

	got, err := repo.GetSession(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetSession() = %+v, want nil for unknown session", got)
	}
}

func TestSQLiteStore_TranscriptOrder(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	inputs := []string{"Is this the right room?", "That's not an argument!", "Yes it is!"}
	for i, input := range inputs {
		turn := &domain.ConversationTurn{
			SessionID:      "sess-1",
			UserInput:      input,
			AIResponse:     "No it isn't!",
			Node:           domain.NodeSimpleContradiction,
			Intent:         domain.IntentArgumentative,
			ResponseTimeMS: float64(100 + i),
			CreatedAt:      time.Now(),
		}
		if err := repo.RecordTurn(ctx, turn); err != nil {
			t.Fatalf("RecordTurn(%d) error = %v", i, err)
		}
	}
	// A turn in another session must not leak into the transcript.
	other := &domain.ConversationTurn{
		SessionID:  "sess-2",
		UserInput:  "hello",
		AIResponse: "No it isn't!",
		Node:       domain.NodeSimpleContradiction,
		CreatedAt:  time.Now(),
	}
	if err := repo.RecordTurn(ctx, other); err != nil {
		t.Fatalf("RecordTurn(other) error = %v", err)
	}

	turns, err := repo.GetTranscript(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetTranscript() error = %v", err)
	}
	if len(turns) != len(inputs) {
		t.Fatalf("len(turns) = %d, want %d", len(turns), len(inputs))
	}
	for i, turn := range turns {
		if turn.UserInput != inputs[i] {
			t.Errorf("turns[%d].UserInput = %q, want %q", i, turn.UserInput, inputs[i])
		}
	}
	if turns[0].Node != domain.NodeSimpleContradiction {
		t.Errorf("Node = %s, want %s", turns[0].Node, domain.NodeSimpleContradiction)
	}
	if turns[0].Intent != domain.IntentArgumentative {
		t.Errorf("Intent = %s, want %s", turns[0].Intent, domain.IntentArgumentative)
	}
}

func TestSQLiteStore_GetTranscriptEmpty(t *testing.T) {
	repo := newTestStore(t)

	turns, err := repo.GetTranscript(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetTranscript() error = %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("len(turns) = %d, want 0", len(turns))
	}
}

func TestSQLiteStore_DeleteOlderThan(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	stale := &domain.SessionRecord{
		SessionID:      "stale",
		CreatedAt:      time.Now().Add(-48 * time.Hour),
		LastActivityAt: time.Now().Add(-48 * time.Hour),
	}
	fresh := &domain.SessionRecord{
		SessionID:      "fresh",
		CreatedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}
	for _, record := range []*domain.SessionRecord{stale, fresh} {
		if err := repo.UpsertSession(ctx, record); err != nil {
			t.Fatalf("UpsertSession(%s) error = %v", record.SessionID, err)
		}
	}
	if err := repo.RecordTurn(ctx, &domain.ConversationTurn{
		SessionID:  "stale",
		UserInput:  "old input",
		AIResponse: "No it isn't!",
		Node:       domain.NodeSimpleContradiction,
		CreatedAt:  time.Now().Add(-48 * time.Hour),
	}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	deleted, err := repo.DeleteOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if got, _ := repo.GetSession(ctx, "stale"); got != nil {
		t.Error("stale session survived the sweep")
	}
	if got, _ := repo.GetSession(ctx, "fresh"); got == nil {
		t.Error("fresh session was swept")
	}
	if turns, _ := repo.GetTranscript(ctx, "stale"); len(turns) != 0 {
		t.Errorf("stale turns survived the sweep: %d", len(turns))
	}
}
