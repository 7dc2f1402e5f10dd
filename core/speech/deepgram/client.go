// Package deepgram implements the speech capability over Deepgram's
// websocket listen and speak APIs. Both operations open one socket per call
// and close it once the clip or reply has been fully exchanged.
package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-helper/core/speech"
)

const (
	vendorName = "deepgram"

	defaultBaseURL  = "wss://api.deepgram.com"
	defaultModel    = "nova-3"
	defaultLanguage = "ko"
	defaultVoice    = "aura-2-thalia-en"

	speechSampleRate = 24000
)

type Client struct {
	apiKey string

	baseURL  string
	model    string
	language string
	voice    string

	dialer *websocket.Dialer
}

type ClientOption func(*Client)

// WithBaseURL points the client at another websocket host, mostly for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func WithLanguage(language string) ClientOption {
	return func(c *Client) {
		c.language = language
	}
}

func WithVoice(voice string) ClientOption {
	return func(c *Client) {
		c.voice = voice
	}
}

func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	client := &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		model:    defaultModel,
		language: defaultLanguage,
		voice:    defaultVoice,
		dialer:   websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}

	if !strings.HasPrefix(client.voice, "aura") {
		return nil, fmt.Errorf("invalid voice %q", client.voice)
	}

	return client, nil
}

func (c *Client) dial(ctx context.Context, path string, query url.Values) (*websocket.Conn, error) {
	endpoint := c.baseURL + path + "?" + query.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &speech.VendorError{Vendor: vendorName, Code: resp.StatusCode}
		}
		return nil, speech.NetworkError(vendorName, err)
	}

	return conn, nil
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived)
}
