package events

import "github.com/koscakluka/ema-helper/core/audio"

const (
	// KindCaptureFinished identifies the end of a capture with its clip.
	KindCaptureFinished Kind = "pipeline.capture_finished"
	// KindTranscriptionFinished identifies a completed transcription request.
	KindTranscriptionFinished Kind = "pipeline.transcription_finished"
	// KindSynthesisFinished identifies a completed synthesis request.
	KindSynthesisFinished Kind = "pipeline.synthesis_finished"
	// KindPlaybackFinished identifies the end of playback of a reply.
	KindPlaybackFinished Kind = "pipeline.playback_finished"
)

// CaptureFinished carries the clip produced by stopping capture.
type CaptureFinished struct {
	Base
	TaskResult
	Clip audio.Clip
}

// NewCaptureFinished creates a capture finished event.
func NewCaptureFinished(task uint64, clip audio.Clip, err error) CaptureFinished {
	return CaptureFinished{
		Base:       NewBase(KindCaptureFinished),
		TaskResult: TaskResult{Task: task, Err: err},
		Clip:       clip,
	}
}

// TranscriptionFinished carries the transcript of the last clip.
type TranscriptionFinished struct {
	Base
	TaskResult
	Text string
}

// NewTranscriptionFinished creates a transcription finished event.
func NewTranscriptionFinished(task uint64, text string, err error) TranscriptionFinished {
	return TranscriptionFinished{
		Base:       NewBase(KindTranscriptionFinished),
		TaskResult: TaskResult{Task: task, Err: err},
		Text:       text,
	}
}

// SynthesisFinished carries the synthesized reply audio.
type SynthesisFinished struct {
	Base
	TaskResult
	Text   string
	Speech audio.Speech
}

// NewSynthesisFinished creates a synthesis finished event.
func NewSynthesisFinished(task uint64, text string, speech audio.Speech, err error) SynthesisFinished {
	return SynthesisFinished{
		Base:       NewBase(KindSynthesisFinished),
		TaskResult: TaskResult{Task: task, Err: err},
		Text:       text,
		Speech:     speech,
	}
}

// PlaybackFinished marks the end of playback, successful or not.
type PlaybackFinished struct {
	Base
	TaskResult
}

// NewPlaybackFinished creates a playback finished event.
func NewPlaybackFinished(task uint64, err error) PlaybackFinished {
	return PlaybackFinished{
		Base:       NewBase(KindPlaybackFinished),
		TaskResult: TaskResult{Task: task, Err: err},
	}
}
