// Package whisper drives a long-lived local transcription worker process.
//
// The worker protocol is line-delimited text: one WAV file path per line on
// stdin, one recognized transcript per line on stdout (an empty line for
// chunks it could not read). The worker announces readiness by printing a
// line containing "Model ready" on stderr once the model is loaded.
package whisper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/enkilabs/enki-core/core/speechtotext"
)

const readyMarker = "Model ready"

var ErrWorkerNotReady = errors.New("transcription worker is not ready")

type Client struct {
	launcher string
	script   string

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser

	ready  atomic.Bool
	exited atomic.Bool

	closeOnce sync.Once
}

type Option func(*Client)

// WithLauncher overrides the interpreter used to start the worker script.
func WithLauncher(launcher string) Option {
	return func(c *Client) { c.launcher = launcher }
}

// WithScript overrides the worker script path.
func WithScript(script string) Option {
	return func(c *Client) { c.script = script }
}

// NewClient configures a worker client. The interpreter defaults to the
// WHISPER_VENV environment variable (falling back to ./venv/bin/python) and
// the script to WHISPER_SCRIPT (falling back to transcribe-server.py),
// matching the deployment layout this worker ships in.
func NewClient(opts ...Option) *Client {
	launcher, ok := os.LookupEnv("WHISPER_VENV")
	if !ok {
		launcher = "./venv/bin/python"
	}
	script, ok := os.LookupEnv("WHISPER_SCRIPT")
	if !ok {
		script = "transcribe-server.py"
	}

	c := &Client{launcher: launcher, script: script}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe launches the worker process once and starts pumping its output.
// Recognized lines are delivered through the transcript callback; readiness
// is reported through the ready callback. A worker that exits is not
// restarted: the client reports the exit through the error callback and
// refuses further chunks.
func (c *Client) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := &speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(options)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return fmt.Errorf("transcription worker already started")
	}

	cmd := exec.CommandContext(ctx, c.launcher, c.script)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open worker stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start transcription worker: %w", err)
	}

	c.cmd = cmd
	c.stdin = stdin

	go c.watchDiagnostics(stderr, *options)
	go c.readTranscripts(stdout, *options)
	go func() {
		err := cmd.Wait()
		c.exited.Store(true)
		logger.Warn("transcription worker exited", "error", err)
		if options.ErrorCallback != nil {
			options.ErrorCallback(fmt.Errorf("transcription worker exited: %w", err))
		}
	}()

	return nil
}

// watchDiagnostics consumes the worker's stderr, logging every line and
// flipping the ready state when the readiness marker appears.
func (c *Client) watchDiagnostics(r io.Reader, options speechtotext.TranscriptionOptions) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		logger.Info("worker diagnostic", "line", line)
		if strings.Contains(line, readyMarker) && c.ready.CompareAndSwap(false, true) {
			if options.ReadyCallback != nil {
				options.ReadyCallback()
			}
		}
	}
}

// readTranscripts consumes the worker's stdout. Empty lines are the worker's
// way of reporting unreadable chunks and never become transcripts.
func (c *Client) readTranscripts(r io.Reader, options speechtotext.TranscriptionOptions) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		transcript := strings.TrimSpace(scanner.Text())
		if transcript == "" {
			continue
		}

		if options.TranscriptCallback != nil {
			options.TranscriptCallback(transcript)
		}
	}
}

func (c *Client) IsReady() bool {
	return c.ready.Load() && !c.exited.Load()
}

// SendChunk hands one converted chunk artifact to the worker. Ownership of
// the file passes to the worker; the caller must not reuse it.
func (c *Client) SendChunk(path string) error {
	if !c.IsReady() {
		return ErrWorkerNotReady
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stdin == nil {
		return ErrWorkerNotReady
	}

	if _, err := io.WriteString(c.stdin, path+"\n"); err != nil {
		return fmt.Errorf("failed to send chunk to transcription worker: %w", err)
	}
	return nil
}

// Close ends the worker's input stream, which terminates a well-behaved
// worker once it has drained pending requests.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		stdin := c.stdin
		c.stdin = nil
		c.mu.Unlock()

		if stdin != nil {
			err = stdin.Close()
		}
	})
	return err
}
