// Package providers builds a speech.Capability from configuration so the
// engine never branches on vendor names.
package providers

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-helper/core/speech"
	"github.com/koscakluka/ema-helper/core/speech/clova"
	"github.com/koscakluka/ema-helper/core/speech/deepgram"
	"github.com/koscakluka/ema-helper/core/speech/gemini"
)

type Name string

const (
	Clova    Name = "clova"
	Gemini   Name = "gemini"
	Deepgram Name = "deepgram"
)

func Available() []Name {
	return []Name{Clova, Gemini, Deepgram}
}

func (n Name) Valid() bool {
	switch n {
	case Clova, Gemini, Deepgram:
		return true
	}
	return false
}

type Config struct {
	// Provider picks both sides unless Transcriber or Synthesizer override it.
	Provider    Name
	Transcriber Name
	Synthesizer Name

	ClovaID       string
	ClovaSecret   string
	ClovaSpeaker  string
	ClovaLanguage string
	ClovaBaseURL  string

	GeminiAPIKey  string
	GeminiVoice   string
	GeminiBaseURL string

	DeepgramAPIKey  string
	DeepgramVoice   string
	DeepgramBaseURL string
}

// New constructs each configured vendor at most once and composes them.
func New(ctx context.Context, cfg Config) (speech.Capability, error) {
	transcriberName := cfg.Provider
	if cfg.Transcriber != "" {
		transcriberName = cfg.Transcriber
	}
	synthesizerName := cfg.Provider
	if cfg.Synthesizer != "" {
		synthesizerName = cfg.Synthesizer
	}

	built := map[Name]speech.Capability{}
	build := func(name Name) (speech.Capability, error) {
		if capability, ok := built[name]; ok {
			return capability, nil
		}
		capability, err := newVendor(ctx, name, cfg)
		if err != nil {
			return nil, err
		}
		built[name] = capability
		return capability, nil
	}

	transcriber, err := build(transcriberName)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}
	synthesizer, err := build(synthesizerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	if transcriberName == synthesizerName {
		return transcriber, nil
	}
	return speech.Compose(transcriber, synthesizer), nil
}

func newVendor(ctx context.Context, name Name, cfg Config) (speech.Capability, error) {
	switch name {
	case Clova:
		var opts []clova.ClientOption
		if cfg.ClovaSpeaker != "" {
			opts = append(opts, clova.WithSpeaker(cfg.ClovaSpeaker))
		}
		if cfg.ClovaLanguage != "" {
			opts = append(opts, clova.WithLanguage(cfg.ClovaLanguage))
		}
		if cfg.ClovaBaseURL != "" {
			opts = append(opts, clova.WithBaseURL(cfg.ClovaBaseURL))
		}
		return clova.NewClient(cfg.ClovaID, cfg.ClovaSecret, opts...)

	case Gemini:
		var opts []gemini.ClientOption
		if cfg.GeminiVoice != "" {
			opts = append(opts, gemini.WithVoice(cfg.GeminiVoice))
		}
		if cfg.GeminiBaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.GeminiBaseURL))
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, opts...)

	case Deepgram:
		var opts []deepgram.ClientOption
		if cfg.DeepgramVoice != "" {
			opts = append(opts, deepgram.WithVoice(cfg.DeepgramVoice))
		}
		if cfg.DeepgramBaseURL != "" {
			opts = append(opts, deepgram.WithBaseURL(cfg.DeepgramBaseURL))
		}
		return deepgram.NewClient(cfg.DeepgramAPIKey, opts...)

	default:
		return nil, fmt.Errorf("unknown speech provider %q", name)
	}
}
