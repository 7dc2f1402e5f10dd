package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type messageRequest struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
}

type logRequest struct {
	SessionID string         `json:"session_id"`
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	Timestamp string         `json:"timestamp"`
}

// SendMessage posts a user utterance to the session. It does not retry; the
// reply, if any, arrives later through the poll loop.
func (c *Client) SendMessage(ctx context.Context, text string) (err error) {
	ctx, span := tracer.Start(ctx, "send message")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", c.sessionID),
		attribute.Int("text.length", len(text)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	return c.post(ctx, "/message", messageRequest{
		SessionID: c.sessionID,
		Role:      RoleUser,
		Text:      text,
	})
}

// LogEvent records a pipeline event on the console. Failures are only worth
// logging; callers should not act on them.
func (c *Client) LogEvent(ctx context.Context, eventType string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	return c.post(ctx, "/log", logRequest{
		SessionID: c.sessionID,
		EventType: eventType,
		EventData: data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.options.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to post %s: %w", path, &statusError{code: resp.StatusCode})
	}
	return nil
}
