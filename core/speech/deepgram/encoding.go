package deepgram

import (
	"fmt"

	"github.com/koscakluka/ema-helper/core/audio"
)

type encodingInfo struct {
	SampleRate int
	Channels   int
	Format     string
}

func convertEncoding(encoding audio.EncodingInfo) (*encodingInfo, error) {
	deepgramEncoding := encodingInfo{Channels: encoding.Channels}
	if deepgramEncoding.Channels == 0 {
		deepgramEncoding.Channels = 1
	}

	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
		deepgramEncoding.SampleRate = encoding.SampleRate
	default:
		return nil, fmt.Errorf("unsupported sample rate %d", encoding.SampleRate)
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
	case audio.EncodingALaw, audio.EncodingMulaw:
		if deepgramEncoding.SampleRate != 8000 {
			return nil, fmt.Errorf("unsupported sample rate for %s encoding", encoding.Format.Name())
		}
	default:
		return nil, fmt.Errorf("unsupported encoding")
	}
	deepgramEncoding.Format = encoding.Format.Name()

	return &deepgramEncoding, nil
}
