// Package domain holds the core types shared across the argument clinic server.
package domain

import (
	"time"
)

// Node identifies a stage of the conversation state machine.
type Node string

const (
	NodeEntry               Node = "entry"
	NodeWaitForInput        Node = "wait_for_input"
	NodeSimpleContradiction Node = "simple_contradiction"
	NodeArgumentation       Node = "argumentation"
	NodeMetaCommentary      Node = "meta_commentary"
	NodeResolution          Node = "resolution"
)

// Intent categorizes the purpose of a user utterance.
type Intent string

const (
	IntentArgumentative Intent = "argumentative"
	IntentTransactional Intent = "transactional"
	IntentMeta          Intent = "meta"
	IntentConfused      Intent = "confused"
)

// ChatTurn is a serialized generator context message. The engine threads the
// slice back to the response generator on every call for the same session.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationTurn is one completed input/response cycle, as archived.
type ConversationTurn struct {
	SessionID      string    `json:"session_id"`
	UserInput      string    `json:"user_input"`
	AIResponse     string    `json:"ai_response"`
	Node           Node      `json:"node"`
	Intent         Intent    `json:"intent,omitempty"`
	ResponseTimeMS float64   `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionRecord is the archived view of a session's lifecycle.
type SessionRecord struct {
	SessionID       string
	TurnCount       int
	PaymentReceived bool
	CreatedAt       time.Time
	LastActivityAt  time.Time
}
