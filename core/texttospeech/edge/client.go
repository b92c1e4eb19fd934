// Package edge synthesizes speech by invoking the edge-tts CLI, which
// renders text through Microsoft's neural voices into an MP3 artifact.
package edge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/enkilabs/enki-core/core/texttospeech"
)

const scopeName = "github.com/enkilabs/enki-core/core/texttospeech/edge"

var logger = otelslog.NewLogger(scopeName)

type Client struct {
	binary string
	voice  string
}

type Option func(*Client)

// WithBinary overrides the edge-tts executable path.
func WithBinary(binary string) Option {
	return func(c *Client) { c.binary = binary }
}

// WithDefaultVoice sets the voice used when a synthesis call does not pick
// one.
func WithDefaultVoice(voice string) Option {
	return func(c *Client) { c.voice = voice }
}

// NewClient configures the synthesis client. The executable defaults to the
// EDGE_TTS environment variable, falling back to edge-tts on PATH.
func NewClient(opts ...Option) *Client {
	binary, ok := os.LookupEnv("EDGE_TTS")
	if !ok {
		binary = "edge-tts"
	}

	c := &Client{binary: binary}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize renders text to a new MP3 artifact and returns its path. The
// caller owns the artifact and is responsible for deleting it.
func (c *Client) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (string, error) {
	options := &texttospeech.SynthesisOptions{Voice: c.voice, OutputDir: os.TempDir()}
	for _, opt := range opts {
		opt(options)
	}

	path := filepath.Join(options.OutputDir, fmt.Sprintf("tts_%d.mp3", time.Now().UnixMilli()))

	args := []string{"--text", text, "--write-media", path}
	if options.Voice != "" {
		args = append(args, "--voice", options.Voice)
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	stderr := bytes.Buffer{}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("edge-tts failed: %w: %s", err, stderr.String())
	}

	logger.Debug("synthesized speech", "path", path, "text_length", len(text))
	return path, nil
}
