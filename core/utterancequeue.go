package conversation

import (
	"strings"
	"sync"
	"time"
)

// transcriptFragment is one recognized line of speech awaiting draining.
type transcriptFragment struct {
	text         string
	recognizedAt time.Time
}

// utteranceQueue buffers fragments between their asynchronous arrival and
// the controller's synchronous drain. Fragments from different speakers are
// merged in arrival order; no speaker attribution is kept.
type utteranceQueue struct {
	mu        sync.Mutex
	fragments []transcriptFragment
}

func (q *utteranceQueue) Append(text string) {
	q.mu.Lock()
	q.fragments = append(q.fragments, transcriptFragment{text: text, recognizedAt: time.Now()})
	q.mu.Unlock()
}

func (q *utteranceQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fragments)
}

// DrainAll atomically removes every buffered fragment and returns them
// joined with single spaces. Draining an empty queue returns "" and leaves
// the queue empty.
func (q *utteranceQueue) DrainAll() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.fragments) == 0 {
		return ""
	}

	parts := make([]string, len(q.fragments))
	for i, fragment := range q.fragments {
		parts[i] = fragment.text
	}
	q.fragments = nil

	return strings.Join(parts, " ")
}
