package clinic

import (
	"context"

	"github.com/ashureev/argument-clinic/internal/domain"
)

// IntentClassifier infers the purpose of a user utterance. Implementations
// must return one of the four domain.Intent values; any failure propagates
// as an error from the step.
type IntentClassifier interface {
	Classify(ctx context.Context, input string, recentHistory []string) (domain.Intent, error)
}

// PaymentDetector decides whether an utterance is an actual payment. It is
// only consulted for TRANSACTIONAL intent while the session is in Resolution.
type PaymentDetector interface {
	Detect(ctx context.Context, input string) (bool, error)
}

// ResponseGenerator produces the in-character reply for a node-specific
// instruction prompt. The returned turn slice is opaque to the engine and
// must be threaded back on the next call for the same session.
type ResponseGenerator interface {
	Generate(ctx context.Context, prompt string, priorTurns []domain.ChatTurn) (string, []domain.ChatTurn, error)
}
