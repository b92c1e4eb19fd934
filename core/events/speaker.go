package events

const KindSpeakerObserved Kind = "speaker.observed"

// SpeakerObserved is emitted when a capture session is created for a
// newly observed speaker.
type SpeakerObserved struct {
	Base
	SpeakerID string
}

func NewSpeakerObserved(speakerID string) SpeakerObserved {
	return SpeakerObserved{Base: NewBase(KindSpeakerObserved), SpeakerID: speakerID}
}
