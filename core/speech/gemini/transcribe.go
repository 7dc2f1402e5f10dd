package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const transcriptionPrompt = "Transcribe the %s speech in this recording verbatim. " +
	"Reply with the transcript only. If nothing is spoken, reply with nothing."

func (c *Client) Transcribe(ctx context.Context, clip audio.Clip) (text string, err error) {
	ctx, span := tracer.Start(ctx, "transcribe")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(
		attribute.String("model", c.transcriptionModel),
		attribute.Int("clip.bytes", len(clip.Data)),
	)

	wav, err := audio.EncodeWAV(clip.Data, clip.EncodingInfo)
	if err != nil {
		return "", fmt.Errorf("failed to wrap clip: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf(transcriptionPrompt, c.language)),
			genai.NewPartFromBytes(wav, "audio/wav"),
		}, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.transcriptionModel, contents, nil)
	if err != nil {
		return "", classifyError(err)
	}

	text = strings.TrimSpace(resp.Text())
	if text == "" {
		return "", speech.ErrEmptyResult
	}
	return text, nil
}
