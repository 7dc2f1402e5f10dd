package audio

import "fmt"

const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	DefaultFormat     = "linear16"
)

// GetDefaultEncodingInfo returns the capture format: 16 kHz, mono, 16-bit
// little-endian PCM.
func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		Format:     encodingFormat(DefaultFormat),
	}
}

type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Channels == 0 || e.Format.Name() == ""
}

// BitDepth returns the number of bits per sample, or -1 for unknown formats.
func (e EncodingInfo) BitDepth() int {
	if size := e.Format.ByteSize(); size > 0 {
		return size * 8
	}
	return -1
}

// BytesPerFrame is the size of one sample across all channels.
func (e EncodingInfo) BytesPerFrame() int {
	return e.Format.ByteSize() * e.Channels
}

// ByteRate is the number of bytes per second of audio.
func (e EncodingInfo) ByteRate() int {
	return e.SampleRate * e.BytesPerFrame()
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

func (e EncodingInfo) String() string {
	return fmt.Sprintf("%s; rate=%d; channels=%d", e.Format.Name(), e.SampleRate, e.Channels)
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
