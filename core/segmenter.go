package conversation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enkilabs/enki-core/core/conference"
	"github.com/enkilabs/enki-core/core/events"
)

// audioChunk is one bounded window of a single speaker's encoded audio,
// written out as a temporary artifact. Ownership of the artifact passes to
// whoever consumes the chunk.
type audioChunk struct {
	speakerID  string
	sequence   int
	path       string
	size       int
	capturedAt time.Time
}

// speakerSession tracks one speaker's rolling capture window.
type speakerSession struct {
	speakerID string
	recorder  conference.AudioRecorder
	startedAt time.Time
	sequence  int
	cancel    context.CancelFunc
}

// segmenter owns all speaker sessions. It rotates each session's capture on
// a fixed window, filters out undersized and gate-contaminated chunks, and
// hands surviving chunks downstream.
type segmenter struct {
	window     time.Duration
	restartGap time.Duration
	minBytes   int
	chunkDir   string

	gate      *speakingGate
	onChunk   func(chunk audioChunk)
	emitEvent eventEmitter

	mu       sync.Mutex
	sessions map[string]*speakerSession
}

func newSegmenter(gate *speakingGate, window, restartGap time.Duration, minBytes int, chunkDir string, onChunk func(audioChunk)) *segmenter {
	if onChunk == nil {
		onChunk = func(audioChunk) {}
	}

	return &segmenter{
		window:     window,
		restartGap: restartGap,
		minBytes:   minBytes,
		chunkDir:   chunkDir,
		gate:       gate,
		onChunk:    onChunk,
		emitEvent:  noopEventEmitter,
		sessions:   make(map[string]*speakerSession),
	}
}

func (s *segmenter) SetEventEmitter(emitEvent eventEmitter) {
	if s != nil && emitEvent != nil {
		s.emitEvent = emitEvent
	}
}

func (s *segmenter) IsTracking(speakerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[speakerID]
	return ok
}

func (s *segmenter) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SessionInfos lists the live capture sessions for diagnostics.
func (s *segmenter) SessionInfos() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, session := range s.sessions {
		infos = append(infos, SessionInfo{
			SpeakerID: session.speakerID,
			StartedAt: session.startedAt,
		})
	}
	return infos
}

// ObserveSpeaker ensures a capture session exists for the speaker. Calling
// it again while the session is live is a no-op; the recorder is only
// consulted for new speakers.
func (s *segmenter) ObserveSpeaker(ctx context.Context, speakerID string, recorder conference.AudioRecorder) error {
	s.mu.Lock()
	if _, ok := s.sessions[speakerID]; ok {
		s.mu.Unlock()
		return nil
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	session := &speakerSession{
		speakerID: speakerID,
		recorder:  recorder,
		startedAt: time.Now(),
		cancel:    cancel,
	}
	s.sessions[speakerID] = session
	s.mu.Unlock()

	if err := recorder.Start(sessionCtx); err != nil {
		s.remove(speakerID)
		cancel()
		return fmt.Errorf("failed to start capture for speaker %s: %w", speakerID, err)
	}

	s.emitEvent(events.NewSpeakerObserved(speakerID))
	go s.runWindows(sessionCtx, session)
	return nil
}

// runWindows rotates the session's capture at every window boundary. The
// brief restart gap keeps the boundary sample out of two chunks at the cost
// of a sliver of lost audio.
func (s *segmenter) runWindows(ctx context.Context, session *speakerSession) {
	timer := time.NewTimer(s.window)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.endSession(session)
			return
		case <-timer.C:
			s.rotate(session)

			select {
			case <-ctx.Done():
				s.endSession(session)
				return
			case <-time.After(s.restartGap):
			}

			if err := session.recorder.Start(ctx); err != nil {
				logger.Warn("failed to restart capture window, dropping speaker",
					"speaker_id", session.speakerID, "error", err)
				s.endSession(session)
				return
			}
			timer.Reset(s.window)
		}
	}
}

// rotate closes the current window and emits its audio as a chunk, unless
// the chunk is below the noise threshold or the gate says we were talking.
func (s *segmenter) rotate(session *speakerSession) {
	raw, err := session.recorder.Stop()
	if err != nil {
		logger.Warn("failed to flush capture window", "speaker_id", session.speakerID, "error", err)
		return
	}

	// Capture may have raced with the start of playback; anything flushed
	// while speaking is suspect and dropped.
	if s.gate.IsSpeaking() {
		return
	}

	if len(raw) < s.minBytes {
		return
	}

	path := filepath.Join(s.chunkDir, fmt.Sprintf("chunk_%s.webm", uuid.NewString()))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		logger.Warn("failed to write chunk artifact", "speaker_id", session.speakerID, "error", err)
		return
	}

	session.sequence++
	s.onChunk(audioChunk{
		speakerID:  session.speakerID,
		sequence:   session.sequence,
		path:       path,
		size:       len(raw),
		capturedAt: time.Now(),
	})
}

func (s *segmenter) endSession(session *speakerSession) {
	if err := session.recorder.Close(); err != nil {
		logger.Warn("failed to close recorder", "speaker_id", session.speakerID, "error", err)
	}
	s.remove(session.speakerID)
}

func (s *segmenter) remove(speakerID string) {
	s.mu.Lock()
	delete(s.sessions, speakerID)
	s.mu.Unlock()
}

// Close cancels every session; recorders are closed by their window loops.
func (s *segmenter) Close() {
	s.mu.Lock()
	sessions := make([]*speakerSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.cancel()
	}
}
