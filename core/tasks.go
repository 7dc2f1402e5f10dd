package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/events"
	"go.opentelemetry.io/otel/trace"
)

type taskKind string

const (
	taskCapture       taskKind = "capture"
	taskTranscription taskKind = "transcription"
	taskSend          taskKind = "send"
	taskSynthesis     taskKind = "synthesis"
	taskPlayback      taskKind = "playback"
)

type task struct {
	id     uint64
	cancel context.CancelFunc
}

// spawn runs work in the background and queues the event it returns. At most
// one task per kind is in flight; spawning a kind that is still running
// cancels the older run, whose result is then dropped as stale.
func (e *Engine) spawn(ctx context.Context, kind taskKind, work func(ctx context.Context, id uint64) events.Event) uint64 {
	if running, ok := e.inFlight[kind]; ok {
		running.cancel()
	}

	id := e.taskCounter.Add(1)
	taskCtx, cancel := context.WithCancel(e.baseContext)
	e.inFlight[kind] = &task{id: id, cancel: cancel}

	// ctx only carries the trace of the event that spawned the task.
	parent := ctx

	started := e.tasks.TryGo(func() error {
		defer cancel()
		event := func() (event events.Event) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Error("task panicked", "kind", string(kind), "panic", recovered)
					event = failedTaskEvent(kind, id, fmt.Errorf("%s task panicked: %v", kind, recovered))
				}
			}()
			taskCtx, span := tracer.Start(trace.ContextWithSpan(taskCtx, trace.SpanFromContext(parent)), string(kind))
			defer span.End()
			return work(taskCtx, id)
		}()
		if event != nil {
			e.runtime.enqueue(event)
		}
		return nil
	})
	if !started {
		cancel()
		logger.Error("task limit reached", "kind", string(kind))
		// The owning goroutine is the only consumer of the queue.
		go e.runtime.enqueue(failedTaskEvent(kind, id, fmt.Errorf("too many running tasks")))
	}

	return id
}

// finish clears the in-flight slot for kind and reports whether id is the
// current run.
func (e *Engine) finish(kind taskKind, id uint64) bool {
	running, ok := e.inFlight[kind]
	if !ok || running.id != id {
		return false
	}
	delete(e.inFlight, kind)
	return true
}

// background runs fire-and-forget work such as console event logging on the
// log pool. Work is dropped while the pool is full.
func (e *Engine) background(work func(ctx context.Context)) {
	ctx := e.baseContext
	if !e.logs.TryGo(func() error {
		work(ctx)
		return nil
	}) {
		logger.Debug("dropping background work, log pool full")
	}
}

func failedTaskEvent(kind taskKind, id uint64, err error) events.Event {
	switch kind {
	case taskCapture:
		return events.NewCaptureFinished(id, audio.Clip{}, err)
	case taskTranscription:
		return events.NewTranscriptionFinished(id, "", err)
	case taskSend:
		return events.NewMessageSent(id, "", err)
	case taskSynthesis:
		return events.NewSynthesisFinished(id, "", audio.Speech{}, err)
	default:
		return events.NewPlaybackFinished(id, err)
	}
}
