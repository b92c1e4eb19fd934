package conversation

import "sync/atomic"

type gateState int32

const (
	gateIdle gateState = iota
	gateSpeaking
)

// speakingGate is the half-duplex guard between listening and speaking.
// While it is speaking, captured chunks and arriving transcripts must be
// discarded so the bot never transcribes its own voice.
//
// State transitions belong exclusively to the playback pipeline; every
// other component only reads.
type speakingGate struct {
	state atomic.Int32
}

func (g *speakingGate) IsSpeaking() bool {
	return gateState(g.state.Load()) == gateSpeaking
}

// beginSpeaking claims the gate for a new speaking episode. It reports
// false when an episode is already active, which serializes playback runs
// without a lock.
func (g *speakingGate) beginSpeaking() bool {
	return g.state.CompareAndSwap(int32(gateIdle), int32(gateSpeaking))
}

// endSpeaking releases the gate. Safe to call on failure paths even if the
// episode never produced audio.
func (g *speakingGate) endSpeaking() {
	g.state.Store(int32(gateIdle))
}
