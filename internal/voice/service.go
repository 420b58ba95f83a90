// Package voice provides speech-to-text and text-to-speech for the
// conversation socket's voice messages.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	transcribeTimeout = 30 * time.Second
	synthesizeTimeout = 30 * time.Second
)

// invalidTranscriptions are exact transcriber outputs that mean "silence" or
// filler and must not reach the state machine.
var invalidTranscriptions = []string{
	".",
	"...",
	"Thank you.",
	"Thank you for watching",
	"Thanks for watching",
}

// Service wraps the OpenAI audio endpoints. A nil or disabled service makes
// Available return false and both operations fail fast.
type Service struct {
	api     *openai.Client
	voice   openai.SpeechVoice
	speed   float64
	enabled bool
}

// Config holds voice pipeline settings.
type Config struct {
	APIKey  string
	BaseURL string
	Voice   string
	Speed   float64
}

// New creates a voice service. The service is disabled without an API key.
func New(cfg Config) *Service {
	if cfg.APIKey == "" {
		return &Service{}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	voice := openai.SpeechVoice(cfg.Voice)
	if voice == "" {
		voice = openai.VoiceOnyx
	}

	speed := cfg.Speed
	if speed <= 0 {
		speed = 1.0
	}

	return &Service{
		api:     openai.NewClientWithConfig(clientConfig),
		voice:   voice,
		speed:   speed,
		enabled: true,
	}
}

// Available reports whether the voice pipeline can run.
func (s *Service) Available() bool {
	return s != nil && s.enabled
}

// Transcribe converts encoded audio to text using whisper-1.
func (s *Service) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if !s.Available() {
		return "", fmt.Errorf("voice service unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	resp, err := s.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "input." + format,
		Reader:   bytes.NewReader(audio),
		Language: "en",
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return resp.Text, nil
}

// Synthesize converts text to MP3 audio using tts-1.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !s.Available() {
		return nil, fmt.Errorf("voice service unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
	defer cancel()

	resp, err := s.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          s.voice,
		Speed:          s.speed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer func() {
		if closeErr := resp.Close(); closeErr != nil {
			slog.Debug("failed to close speech response", "error", closeErr)
		}
	}()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	return audio, nil
}

// ValidTranscription reports whether a transcription is meaningful enough to
// feed the state machine: at least two characters and not a known junk
// output of the transcriber.
func ValidTranscription(text string) bool {
	cleaned := strings.TrimSpace(text)
	if len(cleaned) < 2 {
		return false
	}
	for _, invalid := range invalidTranscriptions {
		if cleaned == invalid {
			return false
		}
	}
	return true
}
