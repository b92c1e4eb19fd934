package events

const (
	KindAssistantReply         Kind = "assistant.reply"
	KindAssistantSpeechStarted Kind = "assistant.speech_started"
	KindAssistantSpeechEnded   Kind = "assistant.speech_ended"
)

// AssistantReply is emitted when a drained utterance has been mapped to a
// reply, before synthesis begins.
type AssistantReply struct {
	Base
	Utterance string
	Reply     string
}

func NewAssistantReply(utterance, reply string) AssistantReply {
	return AssistantReply{Base: NewBase(KindAssistantReply), Utterance: utterance, Reply: reply}
}

// AssistantSpeechStarted is emitted when the playback pipeline claims the
// speaking gate for a reply.
type AssistantSpeechStarted struct {
	Base
	Text string
}

func NewAssistantSpeechStarted(text string) AssistantSpeechStarted {
	return AssistantSpeechStarted{Base: NewBase(KindAssistantSpeechStarted), Text: text}
}

// AssistantSpeechEnded is emitted when playback finished or failed and the
// gate has been released.
type AssistantSpeechEnded struct {
	Base
	Text string
}

func NewAssistantSpeechEnded(text string) AssistantSpeechEnded {
	return AssistantSpeechEnded{Base: NewBase(KindAssistantSpeechEnded), Text: text}
}
