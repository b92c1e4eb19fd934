// Package conference defines the contracts the conversation loop expects
// from an already-joined conference session. Joining, leaving and session
// bootstrapping are the embedder's concern.
package conference

import "context"

// Room is one live conference session.
type Room interface {
	// Participants lists the remote participants currently in the room.
	Participants(ctx context.Context) ([]Participant, error)
	// SendTextMessage posts text to the room's chat channel.
	SendTextMessage(ctx context.Context, text string) error
	// ConnectionState reports the media connection state (e.g. ICE state)
	// for diagnostics. Purely informational.
	ConnectionState(ctx context.Context) string
}

// Participant is one remote speaker whose audio can be recorded.
type Participant interface {
	ID() string
	// AudioRecorder opens a capture session on the participant's audio
	// track. Each call returns an independent recorder.
	AudioRecorder() (AudioRecorder, error)
}

// AudioRecorder buffers one speaker's encoded audio between Start and Stop.
//
// Start begins capturing into a fresh buffer. Stop ends the capture window
// and returns everything buffered since Start; the recorder can then be
// started again for the next window. Close releases the underlying track.
type AudioRecorder interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
	Close() error
}
