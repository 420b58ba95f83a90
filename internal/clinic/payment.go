package clinic

import "github.com/ashureev/argument-clinic/internal/domain"

// refusalResponses is the fixed rotation of payment demands. The index is
// len(conversationHistory) mod 5, so the same history length always yields
// the same refusal text.
var refusalResponses = [5]string{
	"I'm sorry, but I can't continue without payment. That's five pounds for the argument.",
	"No, no, no! Five pounds first, then we can argue!",
	"I'm afraid the argument stops here until you pay the five pounds.",
	"Payment first! Five pounds, please. Then we can resume our disagreement.",
	"I won't argue with you until you've paid! Five pounds!",
}

// acceptanceResponse is sent once payment is detected (or was already made).
const acceptanceResponse = "Ah, thank you! Right, where were we? Oh yes, you were wrong about everything!"

// GateResult is the decision of the payment gate for one Resolution step.
type GateResult struct {
	Response string
	// Accepted is true when payment was detected now or had already been
	// received; the engine then resets both counters and marks the session
	// paid. Once paid, a session stays paid for its lifetime.
	Accepted bool
	Next     domain.Node
}

// ApplyPaymentGate runs the Resolution-node payment logic. Pure function:
// the payment detector has already been consulted by the caller.
func ApplyPaymentGate(paymentReceived, paymentDetected bool, historyLength int) GateResult {
	if !paymentReceived && !paymentDetected {
		return GateResult{
			Response: refusalResponses[historyLength%len(refusalResponses)],
			Next:     domain.NodeWaitForInput,
		}
	}
	return GateResult{
		Response: acceptanceResponse,
		Accepted: true,
		Next:     domain.NodeSimpleContradiction,
	}
}
