package miniaudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-helper/core/audio"
)

const playbackReadChunk = 4096

// playbackRun owns one output device for the lifetime of a single clip.
// Devices are not reused because synthesized speech changes format between
// vendors.
type playbackRun struct {
	device *malgo.Device

	leftoverAudio []byte
	sourceDone    bool
	sourceErr     error

	audioMu  sync.Mutex
	doneOnce sync.Once
	done     chan struct{}
}

func (c *Client) Play(ctx context.Context, encodingInfo audio.EncodingInfo, pcm io.Reader) error {
	if encodingInfo.Format != audio.EncodingLinear16 {
		return fmt.Errorf("unsupported playback format %q", encodingInfo.Format.Name())
	}

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * encodingInfo.Channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(encodingInfo.SampleRate)
	config.Playback.Format = format
	config.Playback.Channels = uint32(encodingInfo.Channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(encodingInfo.SampleRate / 10) // ~100ms of audio
	config.Periods = 4

	run := &playbackRun{done: make(chan struct{})}

	var err error
	if run.device, err = malgo.InitDevice(
		c.audioContext.Context,
		config,
		malgo.DeviceCallbacks{Data: run.processAudio(bytesPerFrame)},
	); err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	defer run.device.Uninit()

	go run.feed(pcm)

	if err := run.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	defer run.device.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-run.done:
	}

	run.audioMu.Lock()
	defer run.audioMu.Unlock()
	return run.sourceErr
}

func (r *playbackRun) feed(pcm io.Reader) {
	buf := make([]byte, playbackReadChunk)
	for {
		n, err := pcm.Read(buf)
		r.audioMu.Lock()
		r.leftoverAudio = append(r.leftoverAudio, buf[:n]...)
		if err != nil {
			r.sourceDone = true
			if !errors.Is(err, io.EOF) {
				r.sourceErr = fmt.Errorf("failed to read playback source: %w", err)
			}
		}
		r.audioMu.Unlock()

		if err != nil {
			return
		}
	}
}

func (r *playbackRun) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		r.audioMu.Lock()
		defer r.audioMu.Unlock()

		n := copy(pOutput[:need], r.leftoverAudio)
		r.leftoverAudio = r.leftoverAudio[n:]
		clear(pOutput[n:need])

		if r.sourceDone && len(r.leftoverAudio) == 0 {
			r.doneOnce.Do(func() { close(r.done) })
		}
	}
}
