package conversation

import (
	"time"

	"github.com/enkilabs/enki-core/core/conference"
)

type LoopOption func(*Loop)

// WithRoom wires the conference session the loop listens to and speaks
// into.
func WithRoom(room conference.Room) LoopOption {
	return func(l *Loop) { l.room = room }
}

// WithRoomName overrides the room identifier used in logs and diagnostics.
// It defaults to the ROOM environment variable.
func WithRoomName(name string) LoopOption {
	return func(l *Loop) { l.roomName = name }
}

func WithTranscriber(client Transcriber) LoopOption {
	return func(l *Loop) { l.transcriber = client }
}

func WithSynthesizer(client Synthesizer) LoopOption {
	return func(l *Loop) { l.synthesizer = client }
}

func WithConverter(client Converter) LoopOption {
	return func(l *Loop) { l.converter = client }
}

func WithPlayer(client Player) LoopOption {
	return func(l *Loop) { l.player = client }
}

// WithResponder replaces the built-in keyword responder.
func WithResponder(responder Responder) LoopOption {
	return func(l *Loop) {
		if responder != nil {
			l.responder = responder
		}
	}
}

func WithTickInterval(interval time.Duration) LoopOption {
	return func(l *Loop) {
		if interval > 0 {
			l.tickInterval = interval
		}
	}
}

// WithSegmentWindow sets the capture window duration per speaker.
func WithSegmentWindow(window time.Duration) LoopOption {
	return func(l *Loop) {
		if window > 0 {
			l.segmentWindow = window
		}
	}
}

// WithSegmentRestartGap sets the pause between stopping one capture window
// and starting the next.
func WithSegmentRestartGap(gap time.Duration) LoopOption {
	return func(l *Loop) {
		if gap >= 0 {
			l.segmentRestartGap = gap
		}
	}
}

// WithMinimumChunkBytes sets the silence/noise threshold below which a
// captured chunk is discarded.
func WithMinimumChunkBytes(minBytes int) LoopOption {
	return func(l *Loop) {
		if minBytes >= 0 {
			l.minChunkBytes = minBytes
		}
	}
}

func WithChunkDir(dir string) LoopOption {
	return func(l *Loop) { l.chunkDir = dir }
}

func WithSynthesisDir(dir string) LoopOption {
	return func(l *Loop) { l.synthesisDir = dir }
}

// WithDiagnosticsInterval sets how many ticks pass between diagnostic
// snapshots. Zero disables them.
func WithDiagnosticsInterval(ticks int) LoopOption {
	return func(l *Loop) { l.diagnosticsEvery = ticks }
}

// WithGreeting sets the spoken greeting and the chat message posted when
// the loop starts.
func WithGreeting(spoken, message string) LoopOption {
	return func(l *Loop) {
		l.greeting = spoken
		l.greetingMessage = message
	}
}

type runOptions struct {
	onSpeakerObserved      func(speakerID string)
	onTranscript           func(transcript string)
	onReply                func(utterance, reply string)
	onSpeakingStateChanged func(isSpeaking bool)
}

type RunOption func(*runOptions)

// WithSpeakerObservedCallback registers a callback for newly tracked
// speakers.
func WithSpeakerObservedCallback(callback func(speakerID string)) RunOption {
	return func(o *runOptions) { o.onSpeakerObserved = callback }
}

// WithTranscriptCallback registers a callback for every fragment appended
// to the utterance queue. Fragments discarded by gating do not trigger it.
func WithTranscriptCallback(callback func(transcript string)) RunOption {
	return func(o *runOptions) { o.onTranscript = callback }
}

// WithReplyCallback registers a callback invoked when a drained utterance
// has been mapped to a reply, before synthesis starts.
func WithReplyCallback(callback func(utterance, reply string)) RunOption {
	return func(o *runOptions) { o.onReply = callback }
}

// WithSpeakingStateChangedCallback registers a callback for speaking-gate
// transitions.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) RunOption {
	return func(o *runOptions) { o.onSpeakingStateChanged = callback }
}
