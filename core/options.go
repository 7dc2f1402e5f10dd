package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/speech"
	"github.com/koscakluka/ema-helper/core/wizard"
)

type EngineOption func(*Engine)

type AudioCapture interface {
	SetPermission(granted bool)
	Start(ctx context.Context) error
	Stop() (audio.Clip, error)
	// Discard releases an armed capture without returning its audio.
	Discard()
}

type AudioPlayback interface {
	Play(ctx context.Context, speech audio.Speech, onDone func(err error)) error
	Stop()
	Close()
}

// SessionTransport is the wizard console session. Replies and connectivity
// changes are fed back through [Engine.DeliverMessage] and
// [Engine.SetConnectivity].
type SessionTransport interface {
	Connect(ctx context.Context) error
	SendMessage(ctx context.Context, text string) error
	LogEvent(ctx context.Context, eventType string, data map[string]any) error
	Disconnect()
}

// Prompts are the notices shown to the user on transitions.
type Prompts struct {
	Listening         string
	Repeat            string
	Retry             string
	DeviceUnavailable string
	PlaybackFailed    string
}

func DefaultPrompts() Prompts {
	return Prompts{
		Listening:         "듣고 있어요...",
		Repeat:            "다시 말씀해주세요.",
		Retry:             "전송하지 못했어요. 다시 시도해주세요.",
		DeviceUnavailable: "마이크를 사용할 수 없어요.",
		PlaybackFailed:    "답변을 재생하지 못했어요.",
	}
}

func WithSpeech(capability speech.Capability) EngineOption {
	return func(e *Engine) { e.speech = capability }
}

func WithAudioCapture(capture AudioCapture) EngineOption {
	return func(e *Engine) { e.capture = capture }
}

func WithAudioPlayback(playback AudioPlayback) EngineOption {
	return func(e *Engine) { e.playback = playback }
}

func WithTransport(transport SessionTransport) EngineOption {
	return func(e *Engine) { e.transport = transport }
}

// WithWizardConsole connects the engine to a wizard console at baseURL. The
// client is created once the session id is known and reports back into the
// engine.
func WithWizardConsole(baseURL string, opts ...wizard.ClientOption) EngineOption {
	return func(e *Engine) {
		e.wizardBaseURL = baseURL
		e.wizardOptions = opts
	}
}

// WithSessionID overrides the generated four digit session id.
func WithSessionID(sessionID string) EngineOption {
	return func(e *Engine) { e.sessionID = sessionID }
}

// WithSendDelay sets how long a transcript stays on screen before it is sent.
func WithSendDelay(delay time.Duration) EngineOption {
	return func(e *Engine) { e.sendDelay = delay }
}

func WithPrompts(prompts Prompts) EngineOption {
	return func(e *Engine) { e.prompts = prompts }
}

// WithMicrophonePermission starts the engine with microphone access already
// granted.
func WithMicrophonePermission() EngineOption {
	return func(e *Engine) { e.permissionGranted = true }
}

func WithStateChangedCallback(callback func(State)) EngineOption {
	return func(e *Engine) { e.callbacks.onStateChanged = callback }
}

// WithMessageCallback receives every message to display: user transcripts and
// assistant replies.
func WithMessageCallback(callback func(role, text string)) EngineOption {
	return func(e *Engine) { e.callbacks.onMessage = callback }
}

func WithConnectivityCallback(callback func(connected bool)) EngineOption {
	return func(e *Engine) { e.callbacks.onConnectivity = callback }
}

// WithNoticeCallback receives transient prompts such as "please repeat".
func WithNoticeCallback(callback func(notice string)) EngineOption {
	return func(e *Engine) { e.callbacks.onNotice = callback }
}

func WithChatVisibilityCallback(callback func(visible bool)) EngineOption {
	return func(e *Engine) { e.callbacks.onChatVisibility = callback }
}
