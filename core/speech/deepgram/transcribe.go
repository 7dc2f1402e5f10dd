package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// 100ms of 16 kHz linear16 audio
const audioChunkSize = 3200

// Transcribe streams the clip through a listen socket, asks Deepgram to
// flush with CloseStream and joins every final segment it answers with.
func (c *Client) Transcribe(ctx context.Context, clip audio.Clip) (transcript string, err error) {
	ctx, span := tracer.Start(ctx, "transcribe")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(
		attribute.String("model", c.model),
		attribute.Int("clip.bytes", len(clip.Data)),
	)

	if clip.IsEmpty() {
		return "", speech.ErrEmptyResult
	}

	if _, err := convertEncoding(clip.EncodingInfo); err != nil {
		return "", fmt.Errorf("invalid encoding: %w", err)
	}
	// Containerized audio: Deepgram reads the format from the WAV header, so
	// encoding and sample_rate must not be sent.
	wav, err := audio.EncodeWAV(clip.Data, clip.EncodingInfo)
	if err != nil {
		return "", fmt.Errorf("failed to wrap clip: %w", err)
	}

	queryParams := url.Values{}
	queryParams.Set("model", c.model)
	queryParams.Set("language", c.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("endpointing", "300")

	conn, err := c.dial(ctx, "/v1/listen", queryParams)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	var (
		segments []string
		readErr  error
		readDone = make(chan struct{})
		mu       sync.Mutex
	)
	go func() {
		defer close(readDone)
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				if !isNormalClose(err) {
					mu.Lock()
					readErr = err
					mu.Unlock()
				}
				return
			}
			if msgType == websocket.BinaryMessage {
				continue
			}
			if segment, ok := parseFinalSegment(msg); ok {
				mu.Lock()
				segments = append(segments, segment)
				mu.Unlock()
			}
		}
	}()

	for chunk := range slices.Chunk(wav, audioChunkSize) {
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			return "", speech.NetworkError(vendorName, err)
		}
	}
	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return "", speech.NetworkError(vendorName, err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-readDone:
	}

	mu.Lock()
	defer mu.Unlock()
	if readErr != nil && len(segments) == 0 {
		return "", speech.NetworkError(vendorName, readErr)
	}

	transcript = strings.TrimSpace(strings.Join(segments, " "))
	if transcript == "" {
		return "", speech.ErrEmptyResult
	}
	return transcript, nil
}

func parseFinalSegment(msg []byte) (string, bool) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Debug("failed to unmarshal deepgram message", "error", err)
		return "", false
	}
	if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
		return "", false
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(msg, &msgResp); err != nil {
		logger.Debug("failed to unmarshal deepgram results", "error", err)
		return "", false
	}
	if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
		return "", false
	}

	segment := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
	return segment, segment != ""
}
