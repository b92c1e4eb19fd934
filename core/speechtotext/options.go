package speechtotext

import "github.com/enkilabs/enki-core/core/audio"

type TranscriptionOptions struct {
	// TranscriptCallback is called once per recognized utterance line.
	TranscriptCallback func(transcript string)
	// ReadyCallback is called exactly once, when the transcription backend
	// is ready to accept audio.
	ReadyCallback func()
	// ErrorCallback is called when the backend fails after startup, e.g.
	// when a worker process exits.
	ErrorCallback func(err error)

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithTranscriptCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptCallback = callback
	}
}

func WithReadyCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ReadyCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}
