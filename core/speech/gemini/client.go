// Package gemini implements the speech capability with Gemini models: a
// multimodal model transcribes the clip and a TTS model voices replies.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/koscakluka/ema-helper/core/speech"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

const (
	vendorName = "gemini"

	defaultTranscriptionModel = "gemini-2.0-flash"
	defaultSpeechModel        = "gemini-2.5-flash-preview-tts"
	defaultVoice              = "Kore"
)

type Client struct {
	client *genai.Client

	transcriptionModel string
	speechModel        string
	voice              string
	language           string
}

type clientOptions struct {
	baseURL            string
	transcriptionModel string
	speechModel        string
	voice              string
	language           string
}

type ClientOption func(*clientOptions)

// WithBaseURL overrides the Gemini API endpoint, mostly for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

func WithTranscriptionModel(model string) ClientOption {
	return func(o *clientOptions) {
		o.transcriptionModel = model
	}
}

func WithSpeechModel(model string) ClientOption {
	return func(o *clientOptions) {
		o.speechModel = model
	}
}

func WithVoice(voice string) ClientOption {
	return func(o *clientOptions) {
		o.voice = voice
	}
}

// WithLanguage hints the spoken language to the transcription prompt.
func WithLanguage(language string) ClientOption {
	return func(o *clientOptions) {
		o.language = language
	}
}

func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	options := clientOptions{
		transcriptionModel: defaultTranscriptionModel,
		speechModel:        defaultSpeechModel,
		voice:              defaultVoice,
		language:           "Korean",
	}
	for _, opt := range opts {
		opt(&options)
	}

	config := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	if options.baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: options.baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:             client,
		transcriptionModel: options.transcriptionModel,
		speechModel:        options.speechModel,
		voice:              options.voice,
		language:           options.language,
	}, nil
}

// classifyError maps genai failures onto the speech error taxonomy.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &speech.VendorError{Vendor: vendorName, Code: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &speech.VendorError{Vendor: vendorName, Code: apiErrPtr.Code, Body: apiErrPtr.Message}
	}

	return speech.NetworkError(vendorName, err)
}
