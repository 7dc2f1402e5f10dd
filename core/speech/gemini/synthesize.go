package gemini

import (
	"context"
	"strconv"
	"strings"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// Gemini TTS answers with raw 16-bit PCM at 24 kHz unless the MIME type
// says otherwise.
const defaultSpeechSampleRate = 24000

func (c *Client) Synthesize(ctx context.Context, text string) (result audio.Speech, err error) {
	ctx, span := tracer.Start(ctx, "synthesize")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(
		attribute.String("model", c.speechModel),
		attribute.String("voice", c.voice),
	)

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.speechModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, config)
	if err != nil {
		return audio.Speech{}, classifyError(err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return speechFromInlineData(part.InlineData), nil
		}
	}

	return audio.Speech{}, speech.ErrEmptyResult
}

func speechFromInlineData(blob *genai.Blob) audio.Speech {
	mimeType := strings.ToLower(blob.MIMEType)
	switch {
	case strings.HasPrefix(mimeType, "audio/mpeg"), strings.HasPrefix(mimeType, "audio/mp3"):
		return audio.Speech{Data: blob.Data, Container: audio.ContainerMP3}
	case strings.HasPrefix(mimeType, "audio/wav"), strings.HasPrefix(mimeType, "audio/x-wav"):
		return audio.Speech{Data: blob.Data, Container: audio.ContainerWAV}
	}

	return audio.Speech{
		Data:      blob.Data,
		Container: audio.ContainerPCM,
		EncodingInfo: audio.EncodingInfo{
			SampleRate: sampleRateFromMIME(mimeType),
			Channels:   1,
			Format:     audio.EncodingLinear16,
		},
	}
}

// sampleRateFromMIME reads the rate parameter of e.g.
// "audio/l16;codec=pcm;rate=24000".
func sampleRateFromMIME(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || key != "rate" {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return defaultSpeechSampleRate
}
