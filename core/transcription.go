package conversation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/enkilabs/enki-core/core/audio"
	"github.com/enkilabs/enki-core/core/events"
	"github.com/enkilabs/enki-core/core/speechtotext"
)

// Transcriber is the external speech-to-text collaborator contract.
// Transcribe starts the backend once; SendChunk hands over one chunk
// artifact (ownership included).
type Transcriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendChunk(path string) error
}

// transcription is the STT facade: it gates chunk intake on worker
// readiness, converts chunks to the worker's sample layout, and filters
// arriving transcripts through the speaking gate before they reach the
// utterance queue.
type transcription struct {
	client    Transcriber
	converter Converter
	gate      *speakingGate
	encoding  audio.EncodingInfo

	ready       atomic.Bool
	readySignal chan struct{}
	readyOnce   sync.Once

	onFragment func(text string)
	emitEvent  eventEmitter
}

func newTranscription(client Transcriber, converter Converter, gate *speakingGate, onFragment func(string)) *transcription {
	if onFragment == nil {
		onFragment = func(string) {}
	}

	return &transcription{
		client:      client,
		converter:   converter,
		gate:        gate,
		encoding:    audio.GetDefaultEncodingInfo(),
		readySignal: make(chan struct{}),
		onFragment:  onFragment,
		emitEvent:   noopEventEmitter,
	}
}

func (t *transcription) SetEventEmitter(emitEvent eventEmitter) {
	if t != nil && emitEvent != nil {
		t.emitEvent = emitEvent
	}
}

func (t *transcription) isConfigured() bool {
	return t != nil && t.client != nil
}

// Start launches the transcription backend. Without a configured client the
// facade stays inert and reports ready so the loop can run text-free.
func (t *transcription) Start(ctx context.Context) error {
	if !t.isConfigured() {
		t.markReady()
		return nil
	}

	err := t.client.Transcribe(ctx,
		speechtotext.WithReadyCallback(t.markReady),
		speechtotext.WithTranscriptCallback(t.intake),
		speechtotext.WithErrorCallback(func(err error) {
			logger.Warn("transcription backend degraded", "error", err)
		}),
		speechtotext.WithEncodingInfo(t.encoding),
	)
	if err != nil {
		return fmt.Errorf("failed to start transcription: %w", err)
	}

	return nil
}

func (t *transcription) markReady() {
	t.readyOnce.Do(func() {
		t.ready.Store(true)
		close(t.readySignal)
	})
}

func (t *transcription) IsReady() bool {
	return t.ready.Load()
}

// AwaitReady blocks until the backend reports readiness or ctx ends. It
// reports whether the backend became ready.
func (t *transcription) AwaitReady(ctx context.Context) bool {
	if t.IsReady() {
		return true
	}

	select {
	case <-t.readySignal:
		return true
	case <-ctx.Done():
		return false
	}
}

// EnqueueChunk converts one chunk artifact to the worker's sample layout
// and hands the converted file to the backend. The source artifact is
// always removed; on any failure the chunk is dropped and the conversation
// continues.
func (t *transcription) EnqueueChunk(ctx context.Context, chunk audioChunk) {
	if !t.isConfigured() {
		os.Remove(chunk.path)
		return
	}

	if !t.IsReady() {
		os.Remove(chunk.path)
		logger.Warn("dropping chunk, transcription backend not ready",
			"speaker_id", chunk.speakerID, "sequence", chunk.sequence)
		return
	}

	sendPath := chunk.path
	if t.converter != nil {
		converted := strings.TrimSuffix(chunk.path, filepath.Ext(chunk.path)) + ".wav"
		err := t.converter.Convert(ctx, chunk.path, converted, t.encoding)
		os.Remove(chunk.path)
		if err != nil {
			logger.Warn("failed to convert chunk", "speaker_id", chunk.speakerID, "error", err)
			return
		}
		sendPath = converted
	}

	if err := t.client.SendChunk(sendPath); err != nil {
		os.Remove(sendPath)
		logger.Warn("failed to send chunk to transcription backend",
			"speaker_id", chunk.speakerID, "error", err)
	}
}

// intake receives one recognized line. Late transcripts of the bot's own
// voice can arrive even with capture-side gating, so the gate is checked
// again here.
func (t *transcription) intake(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if t.gate.IsSpeaking() {
		return
	}

	t.emitEvent(events.NewTranscriptFragment(text))
	t.onFragment(text)
}
