// Argument Clinic - real-time scripted dialogue server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ashureev/argument-clinic/internal/ai"
	"github.com/ashureev/argument-clinic/internal/api"
	"github.com/ashureev/argument-clinic/internal/clinic"
	"github.com/ashureev/argument-clinic/internal/config"
	"github.com/ashureev/argument-clinic/internal/metrics"
	"github.com/ashureev/argument-clinic/internal/middleware"
	"github.com/ashureev/argument-clinic/internal/session"
	"github.com/ashureev/argument-clinic/internal/store"
	"github.com/ashureev/argument-clinic/internal/transport"
	"github.com/ashureev/argument-clinic/internal/voice"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Initialize collaborators.
	if !cfg.VoiceEnabled() {
		slog.Warn("OPENAI_API_KEY not set; collaborator calls will fail and voice is disabled")
	}
	aiClient := ai.New(ai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ChatModel,
	})
	voiceSvc := voice.New(voice.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Voice:   cfg.TTSVoice,
		Speed:   cfg.TTSSpeed,
	})
	slog.Info("Collaborators initialized", "model", cfg.ChatModel, "voice_enabled", voiceSvc.Available())

	// Initialize session machinery.
	collector := metrics.NewCollector()
	registry := session.NewRegistry(cfg.SessionTimeout, func(id string) *clinic.Session {
		collector.IncSession()
		return clinic.NewSession(id, clinic.NewEngine(id, aiClient, aiClient, aiClient))
	}, nil)
	coordinator := clinic.NewCoordinator(registry, collector)

	// Initialize handlers.
	wsHandler := transport.NewWebSocketHandler(registry, coordinator, voiceSvc, repo, cfg.FrontendURL, cfg.IsDevelopment())
	apiHandler := api.NewHandler(registry, collector, voiceSvc, repo, cfg)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	corsOrigins := []string{"*"}
	if !cfg.IsDevelopment() {
		corsOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(corsOrigins))

	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/argument", wsHandler.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket sessions are long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start archive janitor.
	store.StartJanitor(ctx, repo, cfg.ArchiveRetention)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
