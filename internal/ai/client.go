// Package ai implements the conversation collaborators (intent classifier,
// payment detector and response generator) on top of the OpenAI chat API.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/argument-clinic/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// Per-call timeouts. Classification and detection are short single-token
// answers; generation can take longer.
const (
	classifyTimeout = 10 * time.Second
	generateTimeout = 30 * time.Second
)

// Client implements clinic.IntentClassifier, clinic.PaymentDetector and
// clinic.ResponseGenerator over a single chat-completion backend.
type Client struct {
	api   *openai.Client
	model string
}

// Config holds the collaborator backend settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates a collaborator client. Model defaults to gpt-4o-mini.
func New(cfg Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Client{
		api:   openai.NewClientWithConfig(clientConfig),
		model: model,
	}
}

// Classify infers the user's intention from the input and the recent
// conversation window.
func (c *Client) Classify(ctx context.Context, input string, recentHistory []string) (domain.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	prompt := fmt.Sprintf("User input: %q\nRecent conversation: %s", input, strings.Join(recentHistory, " | "))

	answer, err := c.complete(ctx, intentSystemPrompt, prompt, 10)
	if err != nil {
		return "", fmt.Errorf("intent classification: %w", err)
	}

	intent, err := parseIntent(answer)
	if err != nil {
		return "", err
	}

	slog.Debug("intent classified", "intent", intent, "input", truncate(input, 50))
	return intent, nil
}

// Detect decides whether the input is an actual payment.
func (c *Client) Detect(ctx context.Context, input string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	answer, err := c.complete(ctx, paymentSystemPrompt, input, 5)
	if err != nil {
		return false, fmt.Errorf("payment detection: %w", err)
	}

	detected := strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "true")
	slog.Info("payment detection", "detected", detected, "input", truncate(input, 50))
	return detected, nil
}

// Generate produces the in-character reply for the given instruction prompt,
// threading the prior turns as chat history. The returned slice extends the
// prior turns with this exchange and must be passed back on the next call.
func (c *Client) Generate(ctx context.Context, prompt string, priorTurns []domain.ChatTurn) (string, []domain.ChatTurn, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(priorTurns)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: arguerSystemPrompt,
	})
	for _, turn := range priorTurns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", nil, fmt.Errorf("response generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("response generation: empty completion")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	updated := append(priorTurns,
		domain.ChatTurn{Role: openai.ChatMessageRoleUser, Content: prompt},
		domain.ChatTurn{Role: openai.ChatMessageRoleAssistant, Content: text},
	)
	return text, updated, nil
}

// complete runs a single deterministic system+user exchange.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func parseIntent(answer string) (domain.Intent, error) {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	normalized = strings.Trim(normalized, ".\"' ")

	for _, intent := range []domain.Intent{
		domain.IntentArgumentative,
		domain.IntentTransactional,
		domain.IntentMeta,
		domain.IntentConfused,
	} {
		if strings.Contains(normalized, string(intent)) {
			return intent, nil
		}
	}
	return "", fmt.Errorf("intent classification: unrecognized label %q", answer)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
