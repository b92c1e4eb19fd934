// Package miniaudio plays WAV artifacts on a local output device through
// malgo, for running the conversation loop without a PulseAudio setup.
package miniaudio

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/enkilabs/enki-core/core/audio"
)

type Player struct {
	mu sync.Mutex
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
}

func NewPlayer() (*Player, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	return &Player{audioContext: audioCtx}, nil
}

// Play decodes the WAV artifact and plays it to completion on the default
// output device. Each call uses a fresh device so playback parameters can
// follow the artifact's sample layout.
func (p *Player) Play(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read playback artifact: %w", err)
	}

	info, err := audio.ParseWAVHeader(data)
	if err != nil {
		return fmt.Errorf("failed to parse playback artifact: %w", err)
	}
	pcm := data[info.DataOffset : info.DataOffset+info.DataSize]

	format := malgo.FormatS16
	if info.BitsPerSample == 8 {
		format = malgo.FormatU8
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(info.SampleRate)
	config.Playback.Format = format
	config.Playback.Channels = uint32(info.Channels)
	config.Alsa.NoMMap = 1

	bytesPerFrame := malgo.SampleSizeInBytes(format) * info.Channels

	done := make(chan struct{})
	doneOnce := sync.Once{}
	offset := 0

	onFrames := func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame
		remaining := len(pcm) - offset
		if remaining <= 0 {
			doneOnce.Do(func() { close(done) })
			return
		}
		if need > remaining {
			need = remaining
		}
		copy(pOutput, pcm[offset:offset+need])
		offset += need
	}

	p.mu.Lock()
	device, err := malgo.InitDevice(p.audioContext.Context, config, malgo.DeviceCallbacks{Data: onFrames})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.audioContext == nil {
		return
	}

	_ = p.audioContext.Uninit()
	p.audioContext.Free()
	p.audioContext = nil
}
