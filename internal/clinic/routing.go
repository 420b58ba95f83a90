package clinic

import (
	"strings"

	"github.com/ashureev/argument-clinic/internal/domain"
)

// Escalation thresholds for the routing policy.
const (
	resolutionTurnThreshold  = 8
	escalationTurnThreshold  = 3
	escalationFrustThreshold = 3
)

// RouteDecision is the outcome of the routing policy for one input.
// FrustrationDelta is not applied by Route itself; the engine commits it
// together with the turn counter once the step succeeds.
type RouteDecision struct {
	Next             domain.Node
	FrustrationDelta int
}

// Route decides the next conversational node from the session counters, the
// inferred intent and the raw input. It is a pure function: no I/O, no
// hidden state, identical inputs always yield identical decisions.
//
// Priority order:
//  1. turnCount >= 8 forces Resolution regardless of intent.
//  2. META intent mentioning "argument" goes to MetaCommentary.
//  3. ARGUMENTATIVE intent raises frustration and escalates to Argumentation
//     once both turn and frustration thresholds are met.
//  4. Everything else gets a simple contradiction.
func Route(turnCount, frustrationLevel int, intent domain.Intent, input string) RouteDecision {
	if turnCount >= resolutionTurnThreshold {
		return RouteDecision{Next: domain.NodeResolution}
	}

	if intent == domain.IntentMeta && strings.Contains(strings.ToLower(input), "argument") {
		return RouteDecision{Next: domain.NodeMetaCommentary}
	}

	if intent == domain.IntentArgumentative {
		frustration := frustrationLevel + 1
		if turnCount >= escalationTurnThreshold && frustration >= escalationFrustThreshold {
			return RouteDecision{Next: domain.NodeArgumentation, FrustrationDelta: 1}
		}
		return RouteDecision{Next: domain.NodeSimpleContradiction, FrustrationDelta: 1}
	}

	return RouteDecision{Next: domain.NodeSimpleContradiction}
}
