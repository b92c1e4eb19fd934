package conversation

import "github.com/enkilabs/enki-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// newCallbackEventEmitter bridges typed events to the callbacks registered
// through run options.
func newCallbackEventEmitter(opts runOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.SpeakerObserved:
			if opts.onSpeakerObserved != nil {
				opts.onSpeakerObserved(typedEvent.SpeakerID)
			}
		case events.TranscriptFragment:
			if opts.onTranscript != nil {
				opts.onTranscript(typedEvent.Text)
			}
		case events.AssistantReply:
			if opts.onReply != nil {
				opts.onReply(typedEvent.Utterance, typedEvent.Reply)
			}
		case events.AssistantSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.AssistantSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		}
	}
}
