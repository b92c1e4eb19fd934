// Package conversation implements the turn-taking loop of a voice
// assistant in a live conference: capture every remote speaker in bounded
// windows, transcribe the windows, and answer heard speech out loud while
// suppressing transcription of the assistant's own voice.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/enkilabs/enki-core/core/conference"
	"github.com/enkilabs/enki-core/core/events"
)

const (
	defaultTickInterval      = 3 * time.Second
	defaultSegmentWindow     = 4 * time.Second
	defaultSegmentRestartGap = 100 * time.Millisecond
	defaultMinChunkBytes     = 500
	defaultDiagnosticsEvery  = 20

	defaultGreeting        = "Hello! I am Enki. I can hear you now."
	defaultGreetingMessage = "🔱 Enki voice bot online!"
)

var (
	// ErrAlreadyRunning is returned by Run when the loop is already live.
	ErrAlreadyRunning = errors.New("conversation loop already running")
	// ErrTranscriptionNotReady is returned when the transcription backend
	// fails to report readiness before the context ends.
	ErrTranscriptionNotReady = errors.New("transcription backend did not become ready")
)

// SessionInfo describes one live capture session.
type SessionInfo struct {
	SpeakerID string
	StartedAt time.Time
}

// Diagnostics is a point-in-time snapshot of the loop's observable state.
type Diagnostics struct {
	RoomName         string
	Tick             int
	Participants     int
	Sessions         []SessionInfo
	PendingFragments int
	ConnectionState  string
	BackendReady     bool
	Speaking         bool
}

// Loop drives one conversation: it polls the room for speakers, rotates
// their capture windows, drains recognized speech on a fixed tick and
// speaks a reply when the floor is free. Construct it with NewLoop and
// drive it with Run; a Loop is single-use.
type Loop struct {
	roomName string
	room     conference.Room

	transcriber Transcriber
	synthesizer Synthesizer
	converter   Converter
	player      Player
	responder   Responder

	tickInterval      time.Duration
	segmentWindow     time.Duration
	segmentRestartGap time.Duration
	minChunkBytes     int
	diagnosticsEvery  int
	chunkDir          string
	synthesisDir      string
	greeting          string
	greetingMessage   string

	baseContext context.Context

	gate          *speakingGate
	queue         *utteranceQueue
	segmenter     *segmenter
	transcription *transcription
	playback      *playbackPipeline

	running   sync.Mutex
	started   bool
	closeOnce sync.Once

	diagnosticsMu sync.Mutex
	diagnostics   Diagnostics
}

func NewLoop(opts ...LoopOption) *Loop {
	loop := &Loop{
		roomName:          os.Getenv("ROOM"),
		responder:         ruleResponder{},
		tickInterval:      defaultTickInterval,
		segmentWindow:     defaultSegmentWindow,
		segmentRestartGap: defaultSegmentRestartGap,
		minChunkBytes:     defaultMinChunkBytes,
		diagnosticsEvery:  defaultDiagnosticsEvery,
		chunkDir:          filepath.Join(os.TempDir(), "enki-audio"),
		synthesisDir:      filepath.Join(os.TempDir(), "enki-tts"),
		greeting:          defaultGreeting,
		greetingMessage:   defaultGreetingMessage,
		baseContext:       context.Background(),
		gate:              &speakingGate{},
		queue:             &utteranceQueue{},
	}

	for _, opt := range opts {
		opt(loop)
	}

	if loop.roomName == "" {
		loop.roomName = "Enki"
	}

	loop.transcription = newTranscription(loop.transcriber, loop.converter, loop.gate, loop.queue.Append)
	loop.segmenter = newSegmenter(loop.gate, loop.segmentWindow, loop.segmentRestartGap,
		loop.minChunkBytes, loop.chunkDir, loop.handOffChunk)
	loop.playback = newPlaybackPipeline(loop.gate, loop.synthesizer, loop.converter,
		loop.player, loop.room, loop.synthesisDir)

	return loop
}

// handOffChunk moves a captured chunk to the transcription facade off the
// segmenter's rotation goroutine. The run context flows through so
// shutdown cancels in-flight conversions.
func (l *Loop) handOffChunk(chunk audioChunk) {
	go l.transcription.EnqueueChunk(l.baseContext, chunk)
}

// Run blocks and drives the conversation until ctx ends. It waits for the
// transcription backend, announces the assistant, then ticks: track new
// speakers, answer anything heard while the floor is free, and
// periodically log diagnostics.
func (l *Loop) Run(ctx context.Context, opts ...RunOption) error {
	l.running.Lock()
	if l.started {
		l.running.Unlock()
		return ErrAlreadyRunning
	}
	l.started = true
	l.running.Unlock()

	runOpts := runOptions{}
	for _, opt := range opts {
		opt(&runOpts)
	}
	emitEvent := newCallbackEventEmitter(runOpts)
	l.segmenter.SetEventEmitter(emitEvent)
	l.transcription.SetEventEmitter(emitEvent)
	l.playback.SetEventEmitter(emitEvent)

	var dirErrs []error
	for _, dir := range []string{l.chunkDir, l.synthesisDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			dirErrs = append(dirErrs, fmt.Errorf("failed to create working directory %s: %w", dir, err))
		}
	}
	if err := errors.Join(dirErrs...); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "conversation loop")
	defer span.End()
	defer l.Close()

	l.baseContext = ctx

	if err := l.transcription.Start(ctx); err != nil {
		return err
	}
	logger.Info("waiting for transcription backend", "room", l.roomName)
	if !l.transcription.AwaitReady(ctx) {
		return ErrTranscriptionNotReady
	}

	l.announce(ctx, emitEvent)

	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick++
			l.observeParticipants(ctx)
			l.respondIfHeard(ctx, emitEvent)
			if l.diagnosticsEvery > 0 && tick%l.diagnosticsEvery == 0 {
				l.recordDiagnostics(ctx, tick)
			}
		}
	}
}

// announce posts the online banner to the room chat and speaks the
// greeting. Neither failing is fatal.
func (l *Loop) announce(ctx context.Context, emitEvent eventEmitter) {
	if l.room != nil && l.greetingMessage != "" {
		if err := l.room.SendTextMessage(ctx, l.greetingMessage); err != nil {
			logger.Warn("failed to post online banner", "error", err)
		}
	}

	if l.greeting != "" {
		emitEvent(events.NewAssistantReply("", l.greeting))
		l.playback.Speak(ctx, l.greeting)
	}
}

// observeParticipants reconciles the segmenter's sessions against the
// room's current participants. Recorders are only opened for speakers not
// already tracked; a speaker whose capture fails is retried next tick.
func (l *Loop) observeParticipants(ctx context.Context) {
	if l.room == nil {
		return
	}

	participants, err := l.room.Participants(ctx)
	if err != nil {
		logger.Warn("failed to list participants", "error", err)
		return
	}

	l.diagnosticsMu.Lock()
	l.diagnostics.Participants = len(participants)
	l.diagnosticsMu.Unlock()

	for _, participant := range participants {
		if l.segmenter.IsTracking(participant.ID()) {
			continue
		}

		recorder, err := participant.AudioRecorder()
		if err != nil {
			logger.Warn("failed to open audio capture",
				"speaker_id", participant.ID(), "error", err)
			continue
		}

		if err := l.segmenter.ObserveSpeaker(ctx, participant.ID(), recorder); err != nil {
			logger.Warn("failed to track speaker",
				"speaker_id", participant.ID(), "error", err)
		}
	}
}

// respondIfHeard drains the utterance queue and speaks a reply, but only
// while the assistant is silent. Anything recognized during playback stays
// queued for the next idle tick.
func (l *Loop) respondIfHeard(ctx context.Context, emitEvent eventEmitter) {
	if l.gate.IsSpeaking() {
		return
	}

	utterance := l.queue.DrainAll()
	if utterance == "" {
		return
	}

	reply := l.responder.Reply(utterance)
	logger.Info("responding", "utterance", utterance, "reply", reply)
	emitEvent(events.NewAssistantReply(utterance, reply))

	if !l.playback.Speak(ctx, reply) {
		logger.Warn("reply dropped, playback unavailable", "reply", reply)
	}
}

func (l *Loop) recordDiagnostics(ctx context.Context, tick int) {
	snapshot := Diagnostics{
		RoomName:         l.roomName,
		Tick:             tick,
		Sessions:         l.segmenter.SessionInfos(),
		PendingFragments: l.queue.Len(),
		BackendReady:     l.transcription.IsReady(),
		Speaking:         l.gate.IsSpeaking(),
	}
	if l.room != nil {
		snapshot.ConnectionState = l.room.ConnectionState(ctx)
	}

	l.diagnosticsMu.Lock()
	snapshot.Participants = l.diagnostics.Participants
	l.diagnostics = snapshot
	l.diagnosticsMu.Unlock()

	logger.Info("loop status",
		"room", snapshot.RoomName,
		"tick", snapshot.Tick,
		"participants", snapshot.Participants,
		"active_sessions", len(snapshot.Sessions),
		"pending_fragments", snapshot.PendingFragments,
		"connection_state", snapshot.ConnectionState,
		"speaking", snapshot.Speaking,
	)
}

// Diagnostics returns a deep copy of the most recent snapshot; the caller
// may keep or mutate the session list without aliasing the loop's state.
func (l *Loop) Diagnostics() Diagnostics {
	l.diagnosticsMu.Lock()
	defer l.diagnosticsMu.Unlock()

	var snapshot Diagnostics
	if err := copier.Copy(&snapshot, &l.diagnostics); err != nil {
		logger.Warn("failed to copy diagnostics snapshot", "error", err)
	}
	return snapshot
}

// Close tears down capture sessions. Run calls it on exit; calling it
// again is a no-op.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.segmenter.Close()
	})
}
