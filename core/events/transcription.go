package events

const KindTranscriptFragment Kind = "transcript.fragment"

// TranscriptFragment is emitted for every recognized line of speech that
// survived gating and was appended to the utterance queue.
type TranscriptFragment struct {
	Base
	Text string
}

func NewTranscriptFragment(text string) TranscriptFragment {
	return TranscriptFragment{Base: NewBase(KindTranscriptFragment), Text: text}
}
