package conversation

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeRecorder struct {
	mu       sync.Mutex
	data     []byte
	startErr error
	stopErr  error
	starts   int
	closed   bool
}

func (f *fakeRecorder) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	return nil
}

func (f *fakeRecorder) Stop() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.stopErr
}

func (f *fakeRecorder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRecorder) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func newTestSegmenter(t *testing.T, gate *speakingGate, minBytes int, onChunk func(audioChunk)) *segmenter {
	t.Helper()
	return newSegmenter(gate, time.Hour, 0, minBytes, t.TempDir(), onChunk)
}

func TestSegmenterRotateEmitsChunk(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 600)

	var chunks []audioChunk
	seg := newTestSegmenter(t, &speakingGate{}, 500, func(chunk audioChunk) {
		chunks = append(chunks, chunk)
	})

	session := &speakerSession{speakerID: "alice", recorder: &fakeRecorder{data: payload}}
	seg.rotate(session)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	chunk := chunks[0]
	if chunk.speakerID != "alice" || chunk.sequence != 1 || chunk.size != len(payload) {
		t.Fatalf("unexpected chunk metadata: %+v", chunk)
	}

	written, err := os.ReadFile(chunk.path)
	if err != nil {
		t.Fatalf("failed to read chunk artifact: %v", err)
	}
	if !bytes.Equal(written, payload) {
		t.Fatalf("chunk artifact does not match captured audio")
	}
}

func TestSegmenterRotateDropsUndersizedChunk(t *testing.T) {
	called := false
	seg := newTestSegmenter(t, &speakingGate{}, 500, func(audioChunk) { called = true })

	session := &speakerSession{speakerID: "alice", recorder: &fakeRecorder{data: make([]byte, 100)}}
	seg.rotate(session)

	if called {
		t.Fatalf("expected undersized chunk to be dropped")
	}
	if entries, _ := os.ReadDir(seg.chunkDir); len(entries) != 0 {
		t.Fatalf("expected no artifacts, found %d", len(entries))
	}
}

func TestSegmenterRotateDropsChunkWhileSpeaking(t *testing.T) {
	gate := &speakingGate{}
	gate.beginSpeaking()

	called := false
	seg := newTestSegmenter(t, gate, 500, func(audioChunk) { called = true })

	session := &speakerSession{speakerID: "alice", recorder: &fakeRecorder{data: make([]byte, 600)}}
	seg.rotate(session)

	if called {
		t.Fatalf("expected chunk captured while speaking to be dropped")
	}
}

func TestSegmenterRotateToleratesStopFailure(t *testing.T) {
	called := false
	seg := newTestSegmenter(t, &speakingGate{}, 0, func(audioChunk) { called = true })

	session := &speakerSession{speakerID: "alice", recorder: &fakeRecorder{stopErr: errors.New("track gone")}}
	seg.rotate(session)

	if called {
		t.Fatalf("expected no chunk after flush failure")
	}
}

func TestSegmenterObserveSpeakerIsIdempotent(t *testing.T) {
	seg := newTestSegmenter(t, &speakingGate{}, 500, nil)
	defer seg.Close()

	recorder := &fakeRecorder{}
	if err := seg.ObserveSpeaker(context.Background(), "alice", recorder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := seg.ObserveSpeaker(context.Background(), "alice", recorder); err != nil {
		t.Fatalf("unexpected error on repeat observe: %v", err)
	}

	if got := recorder.startCount(); got != 1 {
		t.Fatalf("expected recorder to be started once, got %d", got)
	}
	if got := seg.ActiveSessions(); got != 1 {
		t.Fatalf("expected 1 active session, got %d", got)
	}
	if !seg.IsTracking("alice") {
		t.Fatalf("expected speaker to be tracked")
	}
}

func TestSegmenterObserveSpeakerStartFailure(t *testing.T) {
	seg := newTestSegmenter(t, &speakingGate{}, 500, nil)

	recorder := &fakeRecorder{startErr: errors.New("no track")}
	if err := seg.ObserveSpeaker(context.Background(), "alice", recorder); err == nil {
		t.Fatalf("expected error when capture cannot start")
	}
	if seg.IsTracking("alice") {
		t.Fatalf("expected failed speaker not to be tracked")
	}
}

func TestSegmenterChunkArtifactsGetUniqueNames(t *testing.T) {
	var paths []string
	seg := newTestSegmenter(t, &speakingGate{}, 0, func(chunk audioChunk) {
		paths = append(paths, chunk.path)
	})

	session := &speakerSession{speakerID: "alice", recorder: &fakeRecorder{data: make([]byte, 64)}}
	seg.rotate(session)
	seg.rotate(session)

	if len(paths) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(paths))
	}
	if filepath.Base(paths[0]) == filepath.Base(paths[1]) {
		t.Fatalf("expected unique artifact names, got %q twice", paths[0])
	}
	if session.sequence != 2 {
		t.Fatalf("expected sequence 2, got %d", session.sequence)
	}
}
