package audio

import "time"

// Clip is a finalized capture: raw PCM plus the format it was recorded in.
//
// A clip is consumed exactly once, by transcription, and then discarded.
type Clip struct {
	Data         []byte
	EncodingInfo EncodingInfo
}

// EmptyClip returns a clip without samples in the given format.
func EmptyClip(info EncodingInfo) Clip {
	return Clip{EncodingInfo: info}
}

func (c Clip) IsEmpty() bool { return len(c.Data) == 0 }

// Duration is derived from the byte length and the encoding.
func (c Clip) Duration() time.Duration {
	rate := c.EncodingInfo.ByteRate()
	if rate <= 0 {
		return 0
	}
	return time.Duration(len(c.Data)) * time.Second / time.Duration(rate)
}

// Container names the encoding of a synthesized speech payload. Its value is
// also the extension used for scratch files.
type Container string

const (
	ContainerMP3 Container = "mp3"
	ContainerWAV Container = "wav"
	// ContainerPCM is headerless linear16; Speech.EncodingInfo describes it.
	ContainerPCM Container = "pcm"
)

func (c Container) Extension() string { return "." + string(c) }

// Speech is an encoded audio payload produced by a synthesizer.
type Speech struct {
	Data      []byte
	Container Container
	// EncodingInfo is only meaningful for ContainerPCM.
	EncodingInfo EncodingInfo
}
