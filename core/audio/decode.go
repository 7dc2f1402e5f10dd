package audio

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// Decode turns an encoded speech stream into linear16 PCM ready for an output
// device.
func Decode(container Container, r io.Reader, pcmInfo EncodingInfo) (EncodingInfo, io.Reader, error) {
	switch container {
	case ContainerMP3:
		decoder, err := mp3.NewDecoder(r)
		if err != nil {
			return EncodingInfo{}, nil, fmt.Errorf("failed to decode mp3: %w", err)
		}
		// go-mp3 always produces interleaved stereo linear16.
		return EncodingInfo{
			SampleRate: decoder.SampleRate(),
			Channels:   2,
			Format:     EncodingLinear16,
		}, decoder, nil
	case ContainerWAV:
		return DecodeWAV(r)
	case ContainerPCM:
		if pcmInfo.IsZero() {
			return EncodingInfo{}, nil, fmt.Errorf("pcm payload without encoding info")
		}
		return pcmInfo, r, nil
	default:
		return EncodingInfo{}, nil, fmt.Errorf("unsupported container %q", container)
	}
}
