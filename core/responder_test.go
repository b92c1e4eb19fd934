package conversation

import (
	"strings"
	"testing"
)

func TestRuleResponderKeywordBranches(t *testing.T) {
	responder := ruleResponder{}

	for _, tc := range []struct {
		utterance string
		want      string
	}{
		{"Hello there", "Hello! Nice to hear from you!"},
		{"so, how are you today", "I'm doing great! It's amazing that we can talk like this."},
		{"this is a test", "Test received loud and clear!"},
		{"what is your name", "I am Enki, god of wisdom and water. I'm your AI assistant."},
		{"who are you exactly", "I am Enki, god of wisdom and water. I'm your AI assistant."},
		{"thanks a lot", "You're welcome!"},
	} {
		if got := responder.Reply(tc.utterance); got != tc.want {
			t.Errorf("Reply(%q) = %q, want %q", tc.utterance, got, tc.want)
		}
	}
}

func TestRuleResponderMatchesAreCaseInsensitive(t *testing.T) {
	responder := ruleResponder{}
	if got := responder.Reply("HELLO EVERYONE"); got != "Hello! Nice to hear from you!" {
		t.Fatalf("expected greeting reply, got %q", got)
	}
}

func TestRuleResponderFallbackEchoesUtterance(t *testing.T) {
	responder := ruleResponder{}

	utterance := "the weather is nice"
	got := responder.Reply(utterance)
	if got == "" {
		t.Fatalf("expected non-empty reply")
	}
	if !strings.Contains(got, utterance) {
		t.Fatalf("expected fallback to echo %q, got %q", utterance, got)
	}
}
