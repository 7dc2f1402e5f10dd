package overlay

import (
	"fmt"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/audio/miniaudio"
	"github.com/koscakluka/ema-helper/core/audio/portaudio"
	"github.com/koscakluka/ema-helper/core/capture"
	"github.com/koscakluka/ema-helper/core/playback"
	"github.com/koscakluka/ema-helper/internal/config"
)

// audioBackend pairs a microphone source with a speaker sink. Miniaudio
// always provides playback; PortAudio can replace it for capture.
type audioBackend struct {
	source       capture.Source
	encodingInfo audio.EncodingInfo
	sink         playback.Sink

	closers []func()
}

func openAudio(cfg config.Audio) (*audioBackend, error) {
	speaker, err := miniaudio.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to open miniaudio: %w", err)
	}

	backend := &audioBackend{
		source:       speaker,
		encodingInfo: speaker.EncodingInfo(),
		sink:         speaker,
		closers:      []func(){speaker.Close},
	}

	if cfg.Backend == config.BackendPortaudio {
		microphone, err := portaudio.NewClient(cfg.BufferSize)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to open portaudio: %w", err)
		}
		backend.source = microphone
		backend.encodingInfo = microphone.EncodingInfo()
		backend.closers = append(backend.closers, microphone.Close)
	}

	return backend, nil
}

func (b *audioBackend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
