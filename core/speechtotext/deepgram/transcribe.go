package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/enkilabs/enki-core/internal/utils"

	"github.com/enkilabs/enki-core/core/audio"
	"github.com/enkilabs/enki-core/core/speechtotext"
)

const keepAliveInterval = 5 * time.Second

// Transcribe opens the streaming connection and starts delivering final
// transcripts through the transcript callback. The ready callback fires
// immediately after the connection is established.
func (c *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := &speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return fmt.Errorf("deepgram api key not found")
	}

	listenURL, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenURL.Query()
	queryParams.Set("encoding", options.EncodingInfo.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	queryParams.Set("channels", strconv.Itoa(options.EncodingInfo.Channels))
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	queryParams.Set("endpointing", "300")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.lastAudioTS = time.Now()
	c.connMu.Unlock()

	go c.readMessages(conn, *options)
	go c.keepAlive(ctx)

	if options.ReadyCallback != nil {
		options.ReadyCallback()
	}

	return nil
}

// SendAudio forwards raw PCM to the stream.
func (c *TranscriptionClient) SendAudio(audio []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("deepgram stream is not open")
	}

	c.lastAudioTS = time.Now()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write audio to deepgram: %w", err)
	}
	return nil
}

// SendChunk reads one chunk artifact and forwards its contents, deleting
// the artifact afterwards. This adapts the file-based chunk hand-off to the
// streaming connection.
func (c *TranscriptionClient) SendChunk(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read chunk artifact: %w", err)
	}
	defer os.Remove(path)

	return c.SendAudio(data)
}

func (c *TranscriptionClient) readMessages(conn *websocket.Conn, options speechtotext.TranscriptionOptions) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				logger.Warn("failed to read deepgram message", "error", err)
				if options.ErrorCallback != nil {
					options.ErrorCallback(fmt.Errorf("deepgram stream closed: %w", err))
				}
			}

			c.connMu.Lock()
			c.conn = nil
			c.connMu.Unlock()
			conn.Close()
			return
		}

		if msgType == websocket.BinaryMessage {
			continue
		}

		c.processMessage(msg, options)
	}
}

func (c *TranscriptionClient) processMessage(msg []byte, options speechtotext.TranscriptionOptions) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &header); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	if api.TypeResponse(header.Type) != api.TypeMessageResponse {
		return
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(msg, &msgResp); err != nil {
		logger.Warn("failed to unmarshal deepgram transcript", "error", err)
		return
	}

	if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
		return
	}

	transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
	if transcript == "" {
		return
	}

	if options.TranscriptCallback != nil {
		options.TranscriptCallback(transcript)
	}
}

// keepAlive stops the service from closing the stream during long stretches
// without speaker audio (e.g. while the bot itself is speaking).
func (c *TranscriptionClient) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	var lastKeepAliveTime *time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn == nil {
				c.connMu.Unlock()
				return
			}
			if time.Since(c.lastAudioTS) < keepAliveInterval {
				c.connMu.Unlock()
				continue
			}
			if lastKeepAliveTime != nil && time.Since(*lastKeepAliveTime) < keepAliveInterval {
				c.connMu.Unlock()
				continue
			}
			err := c.conn.WriteJSON(struct {
				Type string `json:"type"`
			}{Type: "KeepAlive"})
			c.connMu.Unlock()

			if err != nil {
				logger.Warn("failed to send deepgram keepalive", "error", err)
				continue
			}
			lastKeepAliveTime = utils.Ptr(time.Now())
		}
	}
}
