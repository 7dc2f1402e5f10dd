package clova

import (
	"bytes"
	"context"
	"encoding/json"
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

type recognitionResponse struct {
	Text string `json:"text"`
}

// Transcribe wraps the clip in a WAV container and submits it to the
// recognition endpoint in a single request.
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
		attribute.Int("clip.bytes", len(clip.Data)),
		attribute.String("clip.encoding", clip.EncodingInfo.String()),
	)

	wav, err := audio.EncodeWAV(clip.Data, clip.EncodingInfo)
	if err != nil {
		return "", fmt.Errorf("failed to wrap clip: %w", err)
	}

	endpoint := c.baseURL + "/recog/v1/stt?" + url.Values{"lang": {c.language}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(wav))
	if err != nil {
		return "", fmt.Errorf("failed to build recognition request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", speech.NetworkError(vendorName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", speech.NetworkError(vendorName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &speech.VendorError{Vendor: vendorName, Code: resp.StatusCode, Body: string(body)}
	}

	var parsed recognitionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode recognition response: %w", err)
	}

	text = strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", speech.ErrEmptyResult
	}
	return text, nil
}
