// Package clinic implements the argument clinic conversation state machine:
// the per-session engine, the routing and payment policies, and the
// single-flight coordinator that serializes steps.
package clinic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashureev/argument-clinic/internal/domain"
)

// recentHistoryWindow is how many history entries are handed to the intent
// classifier as context.
const recentHistoryWindow = 3

// Engine is the conversation state machine bound to one session. It owns the
// counters and history and executes one transition per accepted input. The
// engine is not safe for concurrent use; the coordinator guarantees at most
// one in-flight step per session.
type Engine struct {
	sessionID string

	node             domain.Node
	turnCount        int
	frustrationLevel int
	paymentReceived  bool
	history          []string
	arguerTurns      []domain.ChatTurn
	lastResponse     string

	classifier IntentClassifier
	detector   PaymentDetector
	generator  ResponseGenerator
}

// StepResult describes one completed transition.
type StepResult struct {
	Response        string
	Node            domain.Node
	Intent          domain.Intent
	TurnCount       int
	PaymentReceived bool
}

// NewEngine constructs the machine and runs its Entry node: the greeting is
// seeded as the last response and the machine settles in WaitForInput. Entry
// is reachable exactly once, here.
func NewEngine(sessionID string, classifier IntentClassifier, detector PaymentDetector, generator ResponseGenerator) *Engine {
	return &Engine{
		sessionID:    sessionID,
		node:         domain.NodeWaitForInput,
		lastResponse: Greeting,
		classifier:   classifier,
		detector:     detector,
		generator:    generator,
	}
}

// Step consumes one user input and drives the machine through a full
// transition, ending back at WaitForInput. Counter increments are committed
// only after every collaborator call has succeeded, so a failed step leaves
// the counters as they were. The input itself stays in the history: the
// history records accepted inputs and only ever grows.
func (e *Engine) Step(ctx context.Context, input string) (*StepResult, error) {
	if e.node != domain.NodeWaitForInput {
		return nil, fmt.Errorf("%w: current node %s", ErrInvalidState, e.node)
	}

	e.history = append(e.history, input)

	intent, err := e.classifier.Classify(ctx, input, e.recentHistory())
	if err != nil {
		return nil, fmt.Errorf("classify intent: %w", err)
	}

	decision := Route(e.turnCount, e.frustrationLevel, intent, input)
	slog.Debug("routing decision",
		"session_id", e.sessionID,
		"turn_count", e.turnCount,
		"frustration", e.frustrationLevel,
		"intent", intent,
		"next", decision.Next)

	if decision.Next == domain.NodeResolution {
		return e.stepResolution(ctx, intent, input)
	}
	return e.stepResponse(ctx, decision, intent, input)
}

// stepResponse handles the three response-producing nodes.
func (e *Engine) stepResponse(ctx context.Context, decision RouteDecision, intent domain.Intent, input string) (*StepResult, error) {
	prompt := instructionPrompt(decision.Next, intent, input)

	text, turns, err := e.generator.Generate(ctx, prompt, e.arguerTurns)
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}

	e.arguerTurns = turns
	e.lastResponse = text
	e.turnCount++
	e.frustrationLevel += decision.FrustrationDelta
	e.node = domain.NodeWaitForInput

	return &StepResult{
		Response:        text,
		Node:            decision.Next,
		Intent:          intent,
		TurnCount:       e.turnCount,
		PaymentReceived: e.paymentReceived,
	}, nil
}

// stepResolution runs the payment gate. The refusal path keeps the counters
// untouched so Resolution re-triggers on the next input; acceptance resets
// both counters in the same step and reports SimpleContradiction.
func (e *Engine) stepResolution(ctx context.Context, intent domain.Intent, input string) (*StepResult, error) {
	paymentDetected := false
	if intent == domain.IntentTransactional {
		detected, err := e.detector.Detect(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("detect payment: %w", err)
		}
		paymentDetected = detected
	}

	gate := ApplyPaymentGate(e.paymentReceived, paymentDetected, len(e.history))
	e.lastResponse = gate.Response

	node := domain.NodeResolution
	if gate.Accepted {
		e.paymentReceived = true
		e.turnCount = 0
		e.frustrationLevel = 0
		node = gate.Next
		slog.Info("payment accepted", "session_id", e.sessionID)
	}
	e.node = domain.NodeWaitForInput

	return &StepResult{
		Response:        gate.Response,
		Node:            node,
		Intent:          intent,
		TurnCount:       e.turnCount,
		PaymentReceived: e.paymentReceived,
	}, nil
}

func (e *Engine) recentHistory() []string {
	if len(e.history) <= recentHistoryWindow {
		return e.history
	}
	return e.history[len(e.history)-recentHistoryWindow:]
}

// LastResponse returns the most recent response text, used for the
// "still waiting" default reply.
func (e *Engine) LastResponse() string { return e.lastResponse }

// TurnCount returns the number of completed response turns since the last
// payment reset.
func (e *Engine) TurnCount() int { return e.turnCount }

// FrustrationLevel returns the accumulated argumentative-turn counter.
func (e *Engine) FrustrationLevel() int { return e.frustrationLevel }

// PaymentReceived reports whether the session has paid.
func (e *Engine) PaymentReceived() bool { return e.paymentReceived }

// HistoryLength returns the number of accepted user inputs.
func (e *Engine) HistoryLength() int { return len(e.history) }
