package conversation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/enkilabs/enki-core/core/audio"
	"github.com/enkilabs/enki-core/core/events"
	"github.com/enkilabs/enki-core/core/texttospeech"
)

type fakeSynthesizer struct {
	dir string
	err error

	mu    sync.Mutex
	texts []string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string, opts ...texttospeech.SynthesisOption) (string, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	path := filepath.Join(f.dir, "reply.mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeConverter struct {
	err error
}

func (f *fakeConverter) Convert(_ context.Context, src, dst string, _ audio.EncodingInfo) error {
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

type fakePlayer struct {
	err error

	mu     sync.Mutex
	played []string
}

func (f *fakePlayer) Play(_ context.Context, path string) error {
	f.mu.Lock()
	f.played = append(f.played, path)
	f.mu.Unlock()
	return f.err
}

func (f *fakePlayer) playedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.played...)
}

// speechEndedEmitter returns an emitter and a channel that receives once
// per completed speaking episode.
func speechEndedEmitter() (eventEmitter, <-chan struct{}) {
	done := make(chan struct{}, 4)
	return func(event events.Event) {
		if _, ok := event.(events.AssistantSpeechEnded); ok {
			done <- struct{}{}
		}
	}, done
}

func awaitSpeechEnded(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for speaking episode to end")
	}
}

func TestPlaybackSpeakRefusedWhenUnconfigured(t *testing.T) {
	pipeline := newPlaybackPipeline(&speakingGate{}, nil, nil, nil, nil, t.TempDir())
	if pipeline.Speak(context.Background(), "hello") {
		t.Fatalf("expected Speak to refuse without a synthesis stack")
	}
}

func TestPlaybackSpeakRefusedWhileSpeaking(t *testing.T) {
	gate := &speakingGate{}
	gate.beginSpeaking()

	dir := t.TempDir()
	pipeline := newPlaybackPipeline(gate, &fakeSynthesizer{dir: dir}, nil, &fakePlayer{}, nil, dir)
	if pipeline.Speak(context.Background(), "hello") {
		t.Fatalf("expected Speak to refuse while the gate is held")
	}
}

func TestPlaybackSpeakPlaysConvertedArtifactAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	gate := &speakingGate{}
	player := &fakePlayer{}
	pipeline := newPlaybackPipeline(gate, &fakeSynthesizer{dir: dir}, &fakeConverter{}, player, nil, dir)

	emitter, done := speechEndedEmitter()
	pipeline.SetEventEmitter(emitter)

	if !pipeline.Speak(context.Background(), "hello") {
		t.Fatalf("expected Speak to start")
	}
	awaitSpeechEnded(t, done)

	played := player.playedPaths()
	if len(played) != 1 {
		t.Fatalf("expected 1 playback, got %d", len(played))
	}
	if filepath.Ext(played[0]) != ".wav" {
		t.Fatalf("expected converted artifact to be played, got %q", played[0])
	}

	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected artifacts to be removed, found %d", len(entries))
	}
	if gate.IsSpeaking() {
		t.Fatalf("expected gate to be released after playback")
	}
}

func TestPlaybackSpeakWithoutConverterPlaysSynthesizedArtifact(t *testing.T) {
	dir := t.TempDir()
	player := &fakePlayer{}
	pipeline := newPlaybackPipeline(&speakingGate{}, &fakeSynthesizer{dir: dir}, nil, player, nil, dir)

	emitter, done := speechEndedEmitter()
	pipeline.SetEventEmitter(emitter)

	if !pipeline.Speak(context.Background(), "hello") {
		t.Fatalf("expected Speak to start")
	}
	awaitSpeechEnded(t, done)

	played := player.playedPaths()
	if len(played) != 1 || filepath.Ext(played[0]) != ".mp3" {
		t.Fatalf("expected synthesized artifact to be played directly, got %v", played)
	}
}

func TestPlaybackSynthesisFailureReleasesGate(t *testing.T) {
	gate := &speakingGate{}
	pipeline := newPlaybackPipeline(gate, &fakeSynthesizer{err: errors.New("no voice")}, nil, &fakePlayer{}, nil, t.TempDir())

	emitter, done := speechEndedEmitter()
	pipeline.SetEventEmitter(emitter)

	if !pipeline.Speak(context.Background(), "hello") {
		t.Fatalf("expected Speak to start")
	}
	awaitSpeechEnded(t, done)

	if gate.IsSpeaking() {
		t.Fatalf("expected gate to be released after synthesis failure")
	}
}

func TestPlaybackConversionFailureReleasesGateAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	gate := &speakingGate{}
	player := &fakePlayer{}
	pipeline := newPlaybackPipeline(gate, &fakeSynthesizer{dir: dir}, &fakeConverter{err: errors.New("bad codec")}, player, nil, dir)

	emitter, done := speechEndedEmitter()
	pipeline.SetEventEmitter(emitter)

	if !pipeline.Speak(context.Background(), "hello") {
		t.Fatalf("expected Speak to start")
	}
	awaitSpeechEnded(t, done)

	if len(player.playedPaths()) != 0 {
		t.Fatalf("expected no playback after conversion failure")
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected synthesized artifact to be removed, found %d", len(entries))
	}
	if gate.IsSpeaking() {
		t.Fatalf("expected gate to be released after conversion failure")
	}
}
