// Package transport frames the conversation protocol over WebSocket.
package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/argument-clinic/internal/clinic"
	"github.com/ashureev/argument-clinic/internal/domain"
	"github.com/ashureev/argument-clinic/internal/session"
	"github.com/ashureev/argument-clinic/internal/store"
	"github.com/ashureev/argument-clinic/internal/voice"
	"github.com/coder/websocket"
)

// rejectedNode is the current_node value reported on a concurrency rejection.
const rejectedNode = "concurrency_rejection"

// audioFormat is the container the browser records in.
const audioFormat = "webm"

// archiveTimeout bounds the background persistence of a completed turn.
const archiveTimeout = 5 * time.Second

// WebSocketHandler handles WebSocket-based argument sessions.
type WebSocketHandler struct {
	registry      *session.Registry
	coordinator   *clinic.Coordinator
	voice         *voice.Service
	repo          store.Repository
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(registry *session.Registry, coordinator *clinic.Coordinator, voiceSvc *voice.Service, repo store.Repository, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		registry:      registry,
		coordinator:   coordinator,
		voice:         voiceSvc,
		repo:          repo,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade. Each connection
// owns exactly one session: created on accept, removed on disconnect.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	sess := h.registry.Create()
	defer h.registry.Remove(sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	slog.Info("conversation started", "session_id", sess.ID, "ip", r.RemoteAddr)

	// The engine seeds the greeting as its first response; deliver it as the
	// opening frame.
	h.send(ws, &domain.Envelope{
		Type:      domain.MessageSessionStart,
		Content:   sess.Engine.LastResponse(),
		SessionID: sess.ID,
	})

	h.readLoop(ctx, ws, sess)
	slog.Info("conversation ended", "session_id", sess.ID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

// readLoop receives and dispatches envelopes until the connection drops.
// The inactivity countdown restarts on every successfully parsed message;
// malformed frames are answered without touching the session.
func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, sess *clinic.Session) {
	for {
		_, raw, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "session_id", sess.ID)
			} else if !errors.Is(err, context.Canceled) {
				slog.Warn("WebSocket read error", "error", err, "session_id", sess.ID)
			}
			return
		}

		var msg domain.Envelope
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Warn("invalid message received", "error", err, "session_id", sess.ID)
			h.sendError(ws, sess.ID, "Invalid message format")
			continue
		}

		h.registry.Touch(sess.ID)

		switch msg.Type {
		case domain.MessageUserInput:
			h.handleTextInput(ctx, ws, sess, msg.Content)
		case domain.MessageVoiceInput:
			h.handleVoiceInput(ctx, ws, sess, msg.AudioData)
		default:
			h.sendError(ws, sess.ID, "Unknown message type: "+string(msg.Type))
		}
	}
}

func (h *WebSocketHandler) handleTextInput(ctx context.Context, ws *websocket.Conn, sess *clinic.Session, input string) {
	h.step(ctx, ws, sess, input, "", false)
}

func (h *WebSocketHandler) handleVoiceInput(ctx context.Context, ws *websocket.Conn, sess *clinic.Session, audioB64 string) {
	if !h.voice.Available() {
		h.sendError(ws, sess.ID, "Voice input is not available")
		return
	}

	audio, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		slog.Warn("invalid audio payload", "error", err, "session_id", sess.ID)
		h.sendError(ws, sess.ID, "Invalid audio payload")
		return
	}

	transcribed, err := h.voice.Transcribe(ctx, audio, audioFormat)
	if err != nil {
		slog.Error("transcription failed", "error", err, "session_id", sess.ID)
		h.sendError(ws, sess.ID, "Voice processing failed")
		return
	}

	if !voice.ValidTranscription(transcribed) {
		slog.Info("rejecting invalid transcription", "session_id", sess.ID, "text", transcribed)
		return
	}

	h.send(ws, &domain.Envelope{
		Type:      domain.MessageTranscription,
		Content:   transcribed,
		SessionID: sess.ID,
	})

	h.step(ctx, ws, sess, transcribed, transcribed, true)
}

// step drives one coordinated engine transition and delivers the result.
func (h *WebSocketHandler) step(ctx context.Context, ws *websocket.Conn, sess *clinic.Session, input, transcribed string, isVoice bool) {
	outcome, err := h.coordinator.Step(ctx, sess.ID, input)
	if err != nil {
		h.deliverStepError(ws, sess.ID, err)
		return
	}

	h.archiveTurn(sess, input, outcome)

	resp := &domain.Envelope{
		Type:            domain.MessageAIResponse,
		Content:         outcome.Response,
		SessionID:       sess.ID,
		TurnCount:       outcome.TurnCount,
		PaymentReceived: outcome.PaymentReceived,
		CurrentNode:     string(outcome.Node),
		ResponseTimeMS:  float64(outcome.Elapsed.Microseconds()) / 1000.0,
		TranscribedText: transcribed,
		IsVoice:         isVoice,
	}

	if h.voice.Available() {
		if audio, ttsErr := h.voice.Synthesize(ctx, outcome.Response); ttsErr != nil {
			slog.Warn("TTS generation failed", "error", ttsErr, "session_id", sess.ID)
		} else {
			resp.AudioURL = "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio)
		}
	}

	h.send(ws, resp)
}

// deliverStepError maps coordinator failures onto the wire. A concurrency
// rejection is a normal response, not an error frame.
func (h *WebSocketHandler) deliverStepError(ws *websocket.Conn, sessionID string, err error) {
	switch {
	case errors.Is(err, clinic.ErrSessionBusy):
		h.send(ws, &domain.Envelope{
			Type:        domain.MessageAIResponse,
			Content:     clinic.BusyResponse,
			SessionID:   sessionID,
			CurrentNode: rejectedNode,
		})
	case errors.Is(err, clinic.ErrSessionNotFound):
		h.sendError(ws, sessionID, "Session expired. Please reconnect.")
	default:
		slog.Error("step failed", "error", err, "session_id", sessionID)
		h.sendError(ws, sessionID, "Processing failed. Please try again.")
	}
}

// archiveTurn persists the completed turn in the background. Archival
// failures are logged and never fail the step.
func (h *WebSocketHandler) archiveTurn(sess *clinic.Session, input string, outcome *clinic.Outcome) {
	if h.repo == nil {
		return
	}

	now := time.Now()
	turn := &domain.ConversationTurn{
		SessionID:      sess.ID,
		UserInput:      input,
		AIResponse:     outcome.Response,
		Node:           outcome.Node,
		Intent:         outcome.Intent,
		ResponseTimeMS: float64(outcome.Elapsed.Microseconds()) / 1000.0,
		CreatedAt:      now,
	}
	record := &domain.SessionRecord{
		SessionID:       sess.ID,
		TurnCount:       outcome.TurnCount,
		PaymentReceived: outcome.PaymentReceived,
		CreatedAt:       sess.CreatedAt,
		LastActivityAt:  now,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := h.repo.UpsertSession(ctx, record); err != nil {
			slog.Warn("failed to archive session", "error", err, "session_id", sess.ID)
		}
		if err := h.repo.RecordTurn(ctx, turn); err != nil {
			slog.Warn("failed to archive turn", "error", err, "session_id", sess.ID)
		}
	}()
}

func (h *WebSocketHandler) send(ws *websocket.Conn, env *domain.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal envelope", "error", err, "type", env.Type)
		return
	}
	if err := ws.Write(context.Background(), websocket.MessageText, data); err != nil {
		slog.Debug("failed to send WebSocket message", "error", err, "type", env.Type)
	}
}

func (h *WebSocketHandler) sendError(ws *websocket.Conn, sessionID, message string) {
	h.send(ws, &domain.Envelope{
		Type:      domain.MessageError,
		Content:   message,
		SessionID: sessionID,
	})
}
