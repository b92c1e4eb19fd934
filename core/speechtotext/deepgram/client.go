// Package deepgram provides a streaming transcription backend for rooms
// that forward raw PCM audio instead of bounded chunk files. It satisfies
// the same option surface as the local worker client; readiness is reported
// as soon as the websocket is established.
package deepgram

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/enkilabs/enki-core/core/speechtotext/deepgram"

var logger = otelslog.NewLogger(scopeName)

type TranscriptionClient struct {
	connMu sync.Mutex
	conn   *websocket.Conn

	lastAudioTS time.Time
}

func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{}
}

// Close asks the service to flush and close the stream.
func (c *TranscriptionClient) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	if err := c.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "CloseStream"}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}
