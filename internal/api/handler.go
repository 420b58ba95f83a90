// Package api provides the HTTP observability surface of the clinic server.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ashureev/argument-clinic/internal/config"
	"github.com/ashureev/argument-clinic/internal/metrics"
	"github.com/ashureev/argument-clinic/internal/session"
	"github.com/ashureev/argument-clinic/internal/store"
	"github.com/ashureev/argument-clinic/internal/voice"
	"github.com/go-chi/chi/v5"
)

// Handler serves read-only projections of registry and coordinator state.
type Handler struct {
	registry  *session.Registry
	collector *metrics.Collector
	voice     *voice.Service
	repo      store.Repository
	cfg       *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(registry *session.Registry, collector *metrics.Collector, voiceSvc *voice.Service, repo store.Repository, cfg *config.Config) *Handler {
	return &Handler{
		registry:  registry,
		collector: collector,
		voice:     voiceSvc,
		repo:      repo,
		cfg:       cfg,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes registers the observability endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/metrics", h.Metrics)
	r.Get("/voices", h.Voices)
	r.Get("/sessions/{sessionID}/transcript", h.Transcript)
}

// Root returns API information.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Welcome to The Argument Clinic API",
		"health":    "/health",
		"websocket": "/ws/argument",
	})
}

// Health reports service liveness and the active session count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	JSON(w, code, map[string]interface{}{
		"status":                  status,
		"active_sessions":         h.registry.ActiveCount(),
		"voice_service_available": h.voice.Available(),
		"timestamp":               time.Now().Unix(),
	})
}

// Metrics returns the aggregate step latency and outcome counters.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"performance": h.collector.Snapshot(),
		"sessions": map[string]interface{}{
			"active_count":    h.registry.ActiveCount(),
			"timeout_minutes": h.cfg.SessionTimeout.Minutes(),
		},
		"voice_service": map[string]interface{}{
			"available": h.voice.Available(),
		},
	})
}

// Voices lists the voices the synthesis pipeline can use.
func (h *Handler) Voices(w http.ResponseWriter, r *http.Request) {
	voices := map[string]interface{}{}
	if h.voice.Available() {
		voices["mr_barnard"] = map[string]string{"name": "Mr. Barnard", "provider": "openai"}
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"available": h.voice.Available(),
		"voices":    voices,
	})
}

// Transcript serves the archived turns for a session. Archived transcripts
// outlive session expiry, so this works for both live and past sessions.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		Error(w, http.StatusServiceUnavailable, "archive unavailable")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	record, err := h.repo.GetSession(r.Context(), sessionID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if record == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	turns, err := h.repo.GetTranscript(r.Context(), sessionID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}

	// The archive row is written asynchronously; for a live session the
	// registry has the fresher activity timestamp.
	live := false
	lastActivity := record.LastActivityAt
	if ts, ok := h.registry.LastActivity(sessionID); ok {
		live = true
		lastActivity = ts
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id":       record.SessionID,
		"turn_count":       record.TurnCount,
		"payment_received": record.PaymentReceived,
		"created_at":       record.CreatedAt.Unix(),
		"last_activity_at": lastActivity.Unix(),
		"live":             live,
		"turns":            turns,
	})
}
