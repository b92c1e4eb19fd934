package conversation

import (
	"strings"
	"sync"
	"testing"
)

func TestUtteranceQueueDrainJoinsInArrivalOrder(t *testing.T) {
	queue := &utteranceQueue{}
	queue.Append("hi")
	queue.Append("friend")

	if got := queue.DrainAll(); got != "hi friend" {
		t.Fatalf("expected %q, got %q", "hi friend", got)
	}
	if queue.Len() != 0 {
		t.Fatalf("expected queue to be empty after drain, got %d fragments", queue.Len())
	}
}

func TestUtteranceQueueDrainEmpty(t *testing.T) {
	queue := &utteranceQueue{}
	if got := queue.DrainAll(); got != "" {
		t.Fatalf("expected empty drain to return \"\", got %q", got)
	}
}

func TestUtteranceQueueConcurrentAppendsAreNotLost(t *testing.T) {
	queue := &utteranceQueue{}

	const appends = 100
	var wg sync.WaitGroup
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queue.Append("x")
		}()
	}
	wg.Wait()

	drained := queue.DrainAll()
	if got := len(strings.Fields(drained)); got != appends {
		t.Fatalf("expected %d fragments, got %d", appends, got)
	}
}
