package whisper

import (
	"strings"
	"testing"

	"github.com/enkilabs/enki-core/core/speechtotext"
)

func TestWatchDiagnosticsFlipsReadyOnce(t *testing.T) {
	c := &Client{}
	readyCalls := 0
	options := speechtotext.TranscriptionOptions{
		ReadyCallback: func() { readyCalls++ },
	}

	stderr := "Loading Whisper model...\nModel ready!\nModel ready!\n"
	c.watchDiagnostics(strings.NewReader(stderr), options)

	if !c.ready.Load() {
		t.Fatalf("expected client to be ready after readiness marker")
	}
	if readyCalls != 1 {
		t.Fatalf("expected ready callback to fire once, got %d", readyCalls)
	}
}

func TestWatchDiagnosticsIgnoresUnrelatedLines(t *testing.T) {
	c := &Client{}
	options := speechtotext.TranscriptionOptions{
		ReadyCallback: func() { t.Fatalf("ready callback fired without marker") },
	}

	c.watchDiagnostics(strings.NewReader("Transcribed in 0.42s: hello...\n\n"), options)

	if c.ready.Load() {
		t.Fatalf("expected client to stay not ready")
	}
}

func TestReadTranscriptsSkipsEmptyLines(t *testing.T) {
	c := &Client{}
	var transcripts []string
	options := speechtotext.TranscriptionOptions{
		TranscriptCallback: func(transcript string) {
			transcripts = append(transcripts, transcript)
		},
	}

	stdout := "hello there\n\n   \nwhat is your name\n"
	c.readTranscripts(strings.NewReader(stdout), options)

	if len(transcripts) != 2 {
		t.Fatalf("expected 2 transcripts, got %d: %v", len(transcripts), transcripts)
	}
	if transcripts[0] != "hello there" || transcripts[1] != "what is your name" {
		t.Fatalf("unexpected transcripts: %v", transcripts)
	}
}

func TestSendChunkBeforeReadyFails(t *testing.T) {
	c := &Client{}

	if err := c.SendChunk("/tmp/chunk.wav"); err != ErrWorkerNotReady {
		t.Fatalf("expected ErrWorkerNotReady, got %v", err)
	}
}

func TestSendChunkAfterExitFails(t *testing.T) {
	c := &Client{}
	c.ready.Store(true)
	c.exited.Store(true)

	if err := c.SendChunk("/tmp/chunk.wav"); err != ErrWorkerNotReady {
		t.Fatalf("expected ErrWorkerNotReady after worker exit, got %v", err)
	}
}
