// Package portaudio captures the local microphone in bounded windows,
// letting the operator's own voice join the conversation as one more
// speaker alongside the conference participants.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/enkilabs/enki-core/core/audio"
)

const defaultBufferSize = 1024

// Recorder implements the conference recorder contract on top of the
// default input device. Start begins buffering linear16 mono samples; Stop
// returns the window's bytes and resets the buffer.
type Recorder struct {
	bufferSize int
	stream     *portaudio.Stream
	in         []int16

	mu        sync.Mutex
	buf       bytes.Buffer
	capturing bool
	stop      chan struct{}
}

func NewRecorder() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, defaultBufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, defaultBufferSize, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return &Recorder{bufferSize: defaultBufferSize, stream: stream, in: in}, nil
}

func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.capturing {
		r.mu.Unlock()
		return nil
	}
	r.capturing = true
	r.stop = make(chan struct{})
	stop := r.stop
	r.mu.Unlock()

	if err := r.stream.Start(); err != nil {
		r.mu.Lock()
		r.capturing = false
		r.mu.Unlock()
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	go r.capture(ctx, stop)
	return nil
}

func (r *Recorder) capture(ctx context.Context, stop chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}

		if err := r.stream.Read(); err != nil {
			continue
		}

		r.mu.Lock()
		binary.Write(&r.buf, binary.LittleEndian, r.in)
		r.mu.Unlock()
	}
}

func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	if !r.capturing {
		r.mu.Unlock()
		return nil, nil
	}
	r.capturing = false
	close(r.stop)
	r.mu.Unlock()

	if err := r.stream.Stop(); err != nil {
		return nil, fmt.Errorf("failed to stop portaudio stream: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	captured := make([]byte, r.buf.Len())
	copy(captured, r.buf.Bytes())
	r.buf.Reset()
	return captured, nil
}

func (r *Recorder) Close() error {
	err := r.stream.Close()
	portaudio.Terminate()
	return err
}
