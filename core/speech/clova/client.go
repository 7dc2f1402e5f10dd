// Package clova implements the speech capability on top of the Naver Cloud
// Clova Speech Recognition and Premium Voice REST APIs.
package clova

import (
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	vendorName = "clova"

	defaultBaseURL  = "https://naveropenapi.apigw.ntruss.com"
	defaultLanguage = "Kor"
	defaultSpeaker  = "nara"
	defaultFormat   = "mp3"
)

type Client struct {
	clientID     string
	clientSecret string

	baseURL  string
	language string
	speaker  string
	format   string

	httpClient *http.Client
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different gateway, mostly for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithLanguage(language string) ClientOption {
	return func(c *Client) {
		c.language = language
	}
}

func WithSpeaker(speaker string) ClientOption {
	return func(c *Client) {
		c.speaker = speaker
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(clientID, clientSecret string, opts ...ClientOption) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("clova client id and secret are required")
	}

	client := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		language:     defaultLanguage,
		speaker:      defaultSpeaker,
		format:       defaultFormat,
		httpClient:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("X-NCP-APIGW-API-KEY-ID", c.clientID)
	req.Header.Set("X-NCP-APIGW-API-KEY", c.clientSecret)
}
