package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/events"
	"github.com/koscakluka/ema-helper/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// Pipeline events reported to the wizard console.
const (
	logMicStarted           = "mic_started"
	logUtteranceTranscribed = "utterance_transcribed"
	logUtteranceSent        = "utterance_sent"
	logReplySpoken          = "reply_spoken"
	logPipelineFailed       = "pipeline_failed"
)

func (e *Engine) handleEvent(ctx context.Context, event events.Event) {
	switch event := event.(type) {
	case events.BubbleTapped:
		e.setChatVisible(ctx, !e.chatVisible)
	case events.ChatClosed:
		e.setChatVisible(ctx, false)
	case events.MicTapped:
		e.handleMicTap(ctx)
	case events.MicrophonePermissionGranted:
		if e.capture != nil {
			e.capture.SetPermission(true)
		}
	case events.CaptureFinished:
		e.handleCaptureFinished(ctx, event)
	case events.TranscriptionFinished:
		e.handleTranscriptionFinished(ctx, event)
	case events.MessageSent:
		e.handleMessageSent(ctx, event)
	case events.MessageDelivered:
		e.handleMessageDelivered(ctx, event)
	case events.SynthesisFinished:
		e.handleSynthesisFinished(ctx, event)
	case events.PlaybackFinished:
		e.handlePlaybackFinished(ctx, event)
	case events.ConnectivityChanged:
		e.callbacks.onConnectivity(event.Connected)
	default:
		logger.Warn("unhandled engine event", "kind", string(event.Kind()))
	}
}

func (e *Engine) setState(ctx context.Context, state State) {
	if e.state == state {
		return
	}
	logger.Debug("state changed", "from", e.state.String(), "to", state.String())
	e.state = state
	e.currentState.Store(int32(state))
	stateTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state.String())))
	e.callbacks.onStateChanged(state)
}

// fail aborts the running pipeline and returns to Idle with a notice.
func (e *Engine) fail(ctx context.Context, stage string, notice string) {
	pipelineFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	e.logEvent(logPipelineFailed, map[string]any{"stage": stage, "state": e.state.String()})
	if notice != "" {
		e.callbacks.onNotice(notice)
	}
	e.becomeIdle(ctx)
}

// becomeIdle settles in Idle and starts speaking a reply that arrived while
// the pipeline was busy.
func (e *Engine) becomeIdle(ctx context.Context) {
	e.setState(ctx, StateIdle)
	e.speakPendingReply(ctx)
}

func (e *Engine) speakPendingReply(ctx context.Context) {
	if len(e.pendingReplies) == 0 {
		return
	}
	text := e.pendingReplies[0]
	e.pendingReplies = e.pendingReplies[1:]
	e.speak(ctx, text)
}

func (e *Engine) setChatVisible(ctx context.Context, visible bool) {
	if e.chatVisible == visible {
		return
	}
	e.chatVisible = visible
	e.callbacks.onChatVisibility(visible)

	if !visible && e.state == StateListening {
		e.discardCapture(ctx)
	}
}

func (e *Engine) handleMicTap(ctx context.Context) {
	if !e.chatVisible {
		return
	}

	switch e.state {
	case StateIdle:
		e.startListening(ctx)
	case StateListening:
		e.stopListening(ctx)
	default:
		logger.Debug("mic tap ignored while busy", "state", e.state.String())
	}
}

func (e *Engine) startListening(ctx context.Context) {
	if e.capture == nil {
		e.fail(ctx, "capture", e.prompts.DeviceUnavailable)
		return
	}

	if err := e.capture.Start(ctx); err != nil {
		logger.Warn("failed to start capture", "error", err)
		e.fail(ctx, "capture", e.prompts.DeviceUnavailable)
		return
	}

	e.setState(ctx, StateListening)
	e.callbacks.onNotice(e.prompts.Listening)
	e.logEvent(logMicStarted, nil)
}

func (e *Engine) stopListening(ctx context.Context) {
	e.setState(ctx, StateTranscribing)
	e.spawn(ctx, taskCapture, func(_ context.Context, id uint64) events.Event {
		clip, err := e.capture.Stop()
		return events.NewCaptureFinished(id, clip, err)
	})
}

// discardCapture drops an armed capture without transcribing it.
func (e *Engine) discardCapture(ctx context.Context) {
	e.setState(ctx, StateIdle)
	e.spawn(ctx, taskCapture, func(_ context.Context, id uint64) events.Event {
		e.capture.Discard()
		return events.NewCaptureFinished(id, audio.Clip{}, nil)
	})
	e.speakPendingReply(ctx)
}

func (e *Engine) handleCaptureFinished(ctx context.Context, event events.CaptureFinished) {
	if !e.finish(taskCapture, event.Task) {
		return
	}
	if e.state != StateTranscribing {
		if event.Failed() {
			logger.Warn("failed to discard capture", "error", event.Err)
		}
		return
	}
	if event.Failed() && event.Clip.IsEmpty() {
		logger.Warn("failed to stop capture", "error", event.Err)
		e.fail(ctx, "capture", e.prompts.DeviceUnavailable)
		return
	}

	clip := event.Clip
	e.spawn(ctx, taskTranscription, func(ctx context.Context, id uint64) events.Event {
		if e.speech == nil {
			return events.NewTranscriptionFinished(id, "", errors.New("no speech capability configured"))
		}
		text, err := e.speech.Transcribe(ctx, clip)
		return events.NewTranscriptionFinished(id, text, err)
	})
}

func (e *Engine) handleTranscriptionFinished(ctx context.Context, event events.TranscriptionFinished) {
	if !e.finish(taskTranscription, event.Task) || e.state != StateTranscribing {
		return
	}
	if event.Failed() || event.Text == "" {
		if event.Failed() && !errors.Is(event.Err, speech.ErrEmptyResult) {
			logger.Warn("transcription failed", "error", event.Err)
		}
		e.fail(ctx, "transcription", e.prompts.Repeat)
		return
	}

	text := event.Text
	e.callbacks.onMessage(roleUser, text)
	e.logEvent(logUtteranceTranscribed, map[string]any{"text": text})
	e.setState(ctx, StateSending)

	delay := e.sendDelay
	e.spawn(ctx, taskSend, func(ctx context.Context, id uint64) events.Event {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return events.NewMessageSent(id, text, ctx.Err())
			case <-timer.C:
			}
		}
		if e.transport == nil {
			return events.NewMessageSent(id, text, errors.New("no session transport configured"))
		}
		return events.NewMessageSent(id, text, e.transport.SendMessage(ctx, text))
	})
}

func (e *Engine) handleMessageSent(ctx context.Context, event events.MessageSent) {
	if !e.finish(taskSend, event.Task) || e.state != StateSending {
		return
	}
	if event.Failed() {
		// The transcript stays on screen; only delivery is abandoned.
		logger.Warn("failed to send utterance", "error", event.Err)
		e.fail(ctx, "send", e.prompts.Retry)
		return
	}

	e.logEvent(logUtteranceSent, map[string]any{"text": event.Text})
	e.setState(ctx, StateAwaitingReply)
	e.speakPendingReply(ctx)
}

func (e *Engine) handleMessageDelivered(ctx context.Context, event events.MessageDelivered) {
	e.callbacks.onMessage(roleAssistant, event.Text)

	switch e.state {
	case StateIdle, StateAwaitingReply:
		e.speak(ctx, event.Text)
	default:
		e.pendingReplies = append(e.pendingReplies, event.Text)
	}
}

func (e *Engine) speak(ctx context.Context, text string) {
	e.setState(ctx, StateSpeaking)
	e.spawn(ctx, taskSynthesis, func(ctx context.Context, id uint64) events.Event {
		if e.speech == nil {
			return events.NewSynthesisFinished(id, text, audio.Speech{}, errors.New("no speech capability configured"))
		}
		result, err := e.speech.Synthesize(ctx, text)
		return events.NewSynthesisFinished(id, text, result, err)
	})
}

func (e *Engine) handleSynthesisFinished(ctx context.Context, event events.SynthesisFinished) {
	if !e.finish(taskSynthesis, event.Task) || e.state != StateSpeaking {
		return
	}
	if event.Failed() {
		logger.Warn("failed to synthesize reply", "error", event.Err)
		e.fail(ctx, "synthesis", e.prompts.PlaybackFailed)
		return
	}
	if e.playback == nil {
		e.fail(ctx, "playback", e.prompts.PlaybackFailed)
		return
	}

	id := e.taskCounter.Add(1)
	text := event.Text
	err := e.playback.Play(e.baseContext, event.Speech, func(err error) {
		e.runtime.enqueue(events.NewPlaybackFinished(id, err))
	})
	if err != nil {
		logger.Warn("failed to start playback", "error", err)
		e.fail(ctx, "playback", e.prompts.PlaybackFailed)
		return
	}
	e.inFlight[taskPlayback] = &task{id: id, cancel: e.playback.Stop}
	e.logEvent(logReplySpoken, map[string]any{"text": text})
}

func (e *Engine) handlePlaybackFinished(ctx context.Context, event events.PlaybackFinished) {
	if !e.finish(taskPlayback, event.Task) || e.state != StateSpeaking {
		return
	}
	if event.Failed() && !errors.Is(event.Err, context.Canceled) {
		logger.Warn("playback failed", "error", event.Err)
		e.fail(ctx, "playback", e.prompts.PlaybackFailed)
		return
	}
	e.becomeIdle(ctx)
}

func (e *Engine) logEvent(eventType string, data map[string]any) {
	if e.transport == nil {
		return
	}
	e.background(func(ctx context.Context) {
		if err := e.transport.LogEvent(ctx, eventType, data); err != nil {
			logger.Debug("failed to log pipeline event", "event_type", eventType, "error", err)
		}
	})
}
