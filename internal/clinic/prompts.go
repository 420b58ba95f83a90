package clinic

import (
	"fmt"

	"github.com/ashureev/argument-clinic/internal/domain"
)

// Greeting is seeded as the session's first response when the Entry node runs.
const Greeting = "Good morning! Welcome to the Argument Clinic. How may I help you today?"

const simpleContradictionTemplate = `User intention: %s

If ARGUMENTATIVE: Provide VERY simple contradictions. Use "No it isn't!" "Yes it is!" etc. if appropriate.
If TRANSACTIONAL: Handle their request appropriately (payment, continuation, etc.)
If META: Acknowledge their meta-comment but still contradict
If CONFUSED: Contradict but maybe explain a bit

User says: "%s"

Respond in character as Mr. Barnard, as concisely as possible following the guidance provided.`

const argumentationTemplate = `User intention: %s

If ARGUMENTATIVE: Provide sophisticated contradictory arguments
If TRANSACTIONAL: Handle their request appropriately
If META: Engage with their meta-discussion about arguing
If CONFUSED: Argue but provide some guidance

User says: "%s"

Respond in character as Mr. Barnard with a sophisticated argument following the guidance provided.`

const metaCommentaryTemplate = `User intention: %s

Discuss what constitutes a proper argument.
"An argument is a connected series of statements intended to establish a proposition!"
Be pedantic about the nature of arguing.

If TRANSACTIONAL: Still be pedantic but handle their request

User says: "%s"

Respond in character as Mr. Barnard, following the guidance provided.`

// instructionPrompt builds the node-specific generator prompt from the raw
// input and the inferred intent label.
func instructionPrompt(node domain.Node, intent domain.Intent, input string) string {
	switch node {
	case domain.NodeArgumentation:
		return fmt.Sprintf(argumentationTemplate, intent, input)
	case domain.NodeMetaCommentary:
		return fmt.Sprintf(metaCommentaryTemplate, intent, input)
	default:
		return fmt.Sprintf(simpleContradictionTemplate, intent, input)
	}
}
