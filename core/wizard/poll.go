package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Messages  []struct {
		Role      string `json:"role"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp,omitempty"`
	} `json:"messages"`
}

func (c *Client) probe(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "probe")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/"), nil)
	if err != nil {
		span.RecordError(err)
		return
	}

	resp, err := c.options.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("wizard console unreachable", "error", err)
		c.setConnected(false)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status", resp.StatusCode))
	c.setConnected(resp.StatusCode < http.StatusInternalServerError)
}

// pollLoop runs one poll at a time; the next tick is only scheduled once the
// previous response has been fully processed.
func (c *Client) pollLoop(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := c.poll(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("failed to poll wizard session", "session_id", c.sessionID, "error", err)
		}
		timer.Reset(c.options.PollInterval)
	}
}

func (c *Client) poll(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "poll")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", c.sessionID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	messages, err := c.fetchSession(ctx)
	if errors.Is(err, ErrSessionNotFound) {
		c.setConnected(true)
		return nil
	} else if err != nil {
		var statusErr *statusError
		c.setConnected(errors.As(err, &statusErr) && statusErr.code < http.StatusInternalServerError)
		return err
	}
	c.setConnected(true)

	delivered := c.deliver(messages)
	span.SetAttributes(attribute.Int("messages.delivered", delivered))
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("wizard console returned status %d", e.code)
}

func (c *Client) fetchSession(ctx context.Context) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint("/sessions/"+url.PathEscape(c.sessionID)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build poll request: %w", err)
	}

	resp, err := c.options.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll session: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrSessionNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode}
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	messages := make([]Message, len(session.Messages))
	for i, msg := range session.Messages {
		messages[i] = Message{Role: msg.Role, Text: msg.Text, Index: i}
	}
	return messages, nil
}

// deliver notifies every reply in [watermark, len(snapshot)) and advances the
// watermark once. A snapshot shorter than the watermark is ignored.
func (c *Client) deliver(snapshot []Message) int {
	c.mu.Lock()
	watermark := c.watermark
	if len(snapshot) <= watermark {
		c.mu.Unlock()
		return 0
	}
	c.watermark = len(snapshot)
	c.mu.Unlock()

	delivered := 0
	for _, msg := range snapshot[watermark:] {
		if msg.Role != RoleAssistant && msg.Role != RoleWizard {
			continue
		}
		c.options.MessageCallback(msg)
		delivered++
	}

	if delivered > 0 {
		messagesDelivered.Add(context.Background(), int64(delivered))
	}
	return delivered
}
