package clova

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

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
		attribute.String("voice.speaker", c.speaker),
		attribute.Int("text.length", len(text)),
	)

	form := url.Values{}
	form.Set("speaker", c.speaker)
	form.Set("speed", "0")
	form.Set("volume", "0")
	form.Set("pitch", "0")
	form.Set("format", c.format)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts-premium/v1/tts", strings.NewReader(form.Encode()))
	if err != nil {
		return audio.Speech{}, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return audio.Speech{}, speech.NetworkError(vendorName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Speech{}, speech.NetworkError(vendorName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return audio.Speech{}, &speech.VendorError{Vendor: vendorName, Code: resp.StatusCode, Body: string(body)}
	}
	if len(body) == 0 {
		return audio.Speech{}, speech.ErrEmptyResult
	}

	container := audio.ContainerMP3
	if c.format == "wav" {
		container = audio.ContainerWAV
	}
	return audio.Speech{Data: body, Container: container}, nil
}
