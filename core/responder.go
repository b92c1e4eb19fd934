package conversation

import "strings"

// Responder maps one drained utterance to a reply. Implementations must be
// pure, must not block the controller tick, and must always return
// non-empty text.
type Responder interface {
	Reply(utterance string) string
}

// ruleResponder is the built-in keyword responder. Unmatched utterances
// fall back to echoing what was heard, so the reply is never empty.
type ruleResponder struct{}

func (ruleResponder) Reply(utterance string) string {
	lower := strings.ToLower(utterance)

	switch {
	case strings.Contains(lower, "hello"), strings.Contains(lower, "hi "), lower == "hi":
		return "Hello! Nice to hear from you!"
	case strings.Contains(lower, "how are you"):
		return "I'm doing great! It's amazing that we can talk like this."
	case strings.Contains(lower, "test"):
		return "Test received loud and clear!"
	case strings.Contains(lower, "your name"), strings.Contains(lower, "who are you"):
		return "I am Enki, god of wisdom and water. I'm your AI assistant."
	case strings.Contains(lower, "thank"):
		return "You're welcome!"
	}

	return "I heard you say: " + utterance
}
