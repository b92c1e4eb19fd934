package conversation

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"github.com/enkilabs/enki-core/core/audio"
	"github.com/enkilabs/enki-core/core/conference"
	"github.com/enkilabs/enki-core/core/events"
	"github.com/enkilabs/enki-core/core/texttospeech"
)

// Synthesizer turns reply text into an encoded audio artifact and returns
// its path. The caller owns the artifact.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (string, error)
}

// Converter rewrites an audio artifact into the requested encoding.
type Converter interface {
	Convert(ctx context.Context, src, dst string, enc audio.EncodingInfo) error
}

// Player plays one audio artifact to completion on the output device.
type Player interface {
	Play(ctx context.Context, path string) error
}

// playbackPipeline turns a reply into audible output: claim the gate,
// synthesize, convert, play, post the reply text to the room, clean up,
// release the gate. Every failure path still releases the gate and removes
// artifacts.
type playbackPipeline struct {
	gate *speakingGate

	synthesizer Synthesizer
	converter   Converter
	player      Player
	room        conference.Room

	synthesisDir string
	emitEvent    eventEmitter
}

func newPlaybackPipeline(gate *speakingGate, synthesizer Synthesizer, converter Converter, player Player, room conference.Room, synthesisDir string) *playbackPipeline {
	return &playbackPipeline{
		gate:         gate,
		synthesizer:  synthesizer,
		converter:    converter,
		player:       player,
		room:         room,
		synthesisDir: synthesisDir,
		emitEvent:    noopEventEmitter,
	}
}

func (p *playbackPipeline) SetEventEmitter(emitEvent eventEmitter) {
	if p != nil && emitEvent != nil {
		p.emitEvent = emitEvent
	}
}

func (p *playbackPipeline) isConfigured() bool {
	return p != nil && p.synthesizer != nil && p.player != nil
}

// Speak starts the reply pipeline asynchronously. It reports false when
// another speaking episode already holds the gate or no synthesis stack is
// configured; the reply is dropped in that case.
func (p *playbackPipeline) Speak(ctx context.Context, reply string) bool {
	if !p.isConfigured() {
		return false
	}

	if !p.gate.beginSpeaking() {
		return false
	}

	go p.run(ctx, reply)
	return true
}

func (p *playbackPipeline) run(ctx context.Context, reply string) {
	ctx, span := tracer.Start(ctx, "speak reply")
	defer span.End()

	p.emitEvent(events.NewAssistantSpeechStarted(reply))
	defer func() {
		p.gate.endSpeaking()
		p.emitEvent(events.NewAssistantSpeechEnded(reply))
	}()

	// The reply also goes out as a visible chat message; a failed post is
	// not a reason to stay silent.
	if p.room != nil {
		if err := p.room.SendTextMessage(ctx, reply); err != nil {
			logger.Warn("failed to post reply to room", "error", err)
		}
	}

	synthesized, err := p.synthesizer.Synthesize(ctx, reply, texttospeech.WithOutputDir(p.synthesisDir))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("speech synthesis failed", "error", err)
		return
	}
	defer os.Remove(synthesized)

	playable := synthesized
	if p.converter != nil {
		converted := strings.TrimSuffix(synthesized, filepath.Ext(synthesized)) + ".wav"
		if err := p.converter.Convert(ctx, synthesized, converted, audio.EncodingInfo{}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Warn("playback conversion failed", "error", err)
			return
		}
		defer os.Remove(converted)
		playable = converted
	}

	if err := p.player.Play(ctx, playable); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("playback failed", "error", err)
	}
}
