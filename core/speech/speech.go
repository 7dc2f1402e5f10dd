// Package speech defines the transcription and synthesis capability the
// session engine depends on. Vendors live in subpackages and are selected by
// configuration through the providers package.
package speech

import (
	"context"

	"github.com/koscakluka/ema-helper/core/audio"
)

// Transcriber turns a captured clip into text. Implementations issue a single
// request per call and never retry.
type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip) (string, error)
}

// Synthesizer turns text into an encoded audio payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio.Speech, error)
}

// Capability is the two-operation contract the engine is built against.
type Capability interface {
	Transcriber
	Synthesizer
}

type composed struct {
	Transcriber
	Synthesizer
}

// Compose joins independently configured vendors into one Capability, e.g.
// Deepgram for transcription and Clova for synthesis.
func Compose(transcriber Transcriber, synthesizer Synthesizer) Capability {
	return composed{Transcriber: transcriber, Synthesizer: synthesizer}
}
