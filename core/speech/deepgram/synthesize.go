package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

// Synthesize speaks the whole text, flushes and collects raw linear16 frames
// until Deepgram confirms the flush.
func (c *Client) Synthesize(ctx context.Context, text string) (result audio.Speech, err error) {
	ctx, span := tracer.Start(ctx, "synthesize")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(attribute.String("voice", c.voice))

	encodingInfo := audio.EncodingInfo{
		SampleRate: speechSampleRate,
		Channels:   1,
		Format:     audio.EncodingLinear16,
	}

	queryParams := url.Values{}
	queryParams.Set("encoding", encodingInfo.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	queryParams.Set("model", c.voice)
	queryParams.Set("container", "none")

	conn, err := c.dial(ctx, "/v1/speak", queryParams)
	if err != nil {
		return audio.Speech{}, err
	}
	defer conn.Close()

	if err := conn.WriteJSON(speakMessage{Type: "Speak", Text: text}); err != nil {
		return audio.Speech{}, speech.NetworkError(vendorName, err)
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		return audio.Speech{}, speech.NetworkError(vendorName, err)
	}

	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)
	go func() {
		data, err := readSpeech(conn)
		resultCh <- readResult{data: data, err: err}
	}()

	var read readResult
	select {
	case <-ctx.Done():
		return audio.Speech{}, ctx.Err()
	case read = <-resultCh:
	}

	if err := conn.WriteJSON(closeMsg); err != nil {
		logger.Debug("failed to close deepgram speak socket", "error", err)
	}

	if read.err != nil && len(read.data) == 0 {
		return audio.Speech{}, speech.NetworkError(vendorName, read.err)
	}
	if len(read.data) == 0 {
		return audio.Speech{}, speech.ErrEmptyResult
	}

	return audio.Speech{Data: read.data, Container: audio.ContainerPCM, EncodingInfo: encodingInfo}, nil
}

func readSpeech(conn *websocket.Conn) ([]byte, error) {
	var data []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if isNormalClose(err) {
				return data, nil
			}
			return data, err
		}

		switch msgType {
		case websocket.BinaryMessage:
			data = append(data, msg...)
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}
			switch parsedMsg.Type {
			case "Flushed":
				return data, nil
			case "Warning", "Error":
				return data, errors.New(string(msg))
			}
		}
	}
}
