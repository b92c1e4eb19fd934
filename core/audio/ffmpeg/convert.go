// Package ffmpeg rewrites audio artifacts between container formats and
// sample layouts by invoking the ffmpeg binary.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/enkilabs/enki-core/core/audio"
)

const scopeName = "github.com/enkilabs/enki-core/core/audio/ffmpeg"

var logger = otelslog.NewLogger(scopeName)

type Converter struct {
	binary string
}

// NewConverter configures the converter. The executable defaults to the
// FFMPEG environment variable, falling back to ffmpeg on PATH.
func NewConverter() *Converter {
	binary, ok := os.LookupEnv("FFMPEG")
	if !ok {
		binary = "ffmpeg"
	}
	return &Converter{binary: binary}
}

// Convert transcodes src into dst. A zero EncodingInfo keeps the source
// sample rate and channel count and only changes the container (e.g. MP3 to
// WAV); otherwise the output is resampled to the requested layout.
func (c *Converter) Convert(ctx context.Context, src, dst string, enc audio.EncodingInfo) error {
	args := []string{"-y", "-i", src}
	if enc.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(enc.SampleRate))
	}
	if enc.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(enc.Channels))
	}
	args = append(args, dst)

	cmd := exec.CommandContext(ctx, c.binary, args...)
	stderr := bytes.Buffer{}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("ffmpeg conversion failed: %w: %s", err, stderr.String())
	}

	logger.Debug("converted audio", "src", src, "dst", dst)
	return nil
}
