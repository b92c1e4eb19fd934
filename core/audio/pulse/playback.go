// Package pulse plays audio artifacts on a named PulseAudio sink via
// paplay. Pointing it at a virtual sink whose monitor is the conference
// microphone is how the bot's speech reaches the room.
package pulse

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/enkilabs/enki-core/core/audio/pulse"

var logger = otelslog.NewLogger(scopeName)

const defaultDevice = "VirtualMic"

type Player struct {
	binary string
	device string
}

type Option func(*Player)

// WithBinary overrides the paplay executable path.
func WithBinary(binary string) Option {
	return func(p *Player) { p.binary = binary }
}

// WithDevice selects the output sink.
func WithDevice(device string) Option {
	return func(p *Player) { p.device = device }
}

// NewPlayer configures the player. The executable defaults to the PAPLAY
// environment variable (falling back to paplay on PATH) and the sink to
// VirtualMic.
func NewPlayer(opts ...Option) *Player {
	binary, ok := os.LookupEnv("PAPLAY")
	if !ok {
		binary = "paplay"
	}

	p := &Player{binary: binary, device: defaultDevice}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) Device() string { return p.device }

// Play plays one artifact on the configured sink and returns when playback
// has completed.
func (p *Player) Play(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, p.binary, "--device="+p.device, path)
	stderr := bytes.Buffer{}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("paplay failed: %w: %s", err, stderr.String())
	}

	logger.Debug("playback finished", "path", path, "device", p.device)
	return nil
}
