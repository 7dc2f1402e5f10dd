package orchestration

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-helper/core/events"
	"go.opentelemetry.io/otel/attribute"
)

const engineEventQueueCapacity = 32

type eventQueueItem struct {
	event    events.Event
	queuedAt time.Time
}

type runtimeCallbacks struct {
	onStateChanged   func(State)
	onMessage        func(role, text string)
	onConnectivity   func(connected bool)
	onNotice         func(notice string)
	onChatVisibility func(visible bool)
}

func (c *runtimeCallbacks) fillDefaults() {
	if c.onStateChanged == nil {
		c.onStateChanged = func(State) {}
	}
	if c.onMessage == nil {
		c.onMessage = func(string, string) {}
	}
	if c.onConnectivity == nil {
		c.onConnectivity = func(bool) {}
	}
	if c.onNotice == nil {
		c.onNotice = func(string) {}
	}
	if c.onChatVisibility == nil {
		c.onChatVisibility = func(bool) {}
	}
}

// engineRuntime is the event queue drained by the single owning goroutine.
type engineRuntime struct {
	queue   chan eventQueueItem
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newEngineRuntime() *engineRuntime {
	return &engineRuntime{
		queue:   make(chan eventQueueItem, engineEventQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (runtime *engineRuntime) start(process func(eventQueueItem)) (started bool) {
	if runtime.isClosed() {
		return false
	}

	runtime.startOnce.Do(func() {
		if runtime.isClosed() {
			return
		}

		started = true
		runtime.started.Store(true)
		go func() {
			defer close(runtime.done)

			for {
				select {
				case <-runtime.closeCh:
					return
				case queuedEvent := <-runtime.queue:
					if runtime.isClosed() {
						return
					}
					process(queuedEvent)
				}
			}
		}()
	})

	return started
}

func (runtime *engineRuntime) end() {
	runtime.endOnce.Do(func() {
		close(runtime.closeCh)
	})
}

func (runtime *engineRuntime) waitUntilEnded() {
	if runtime.started.Load() {
		<-runtime.done
	}
}

// enqueue blocks while the queue is full and gives up once the runtime has
// been closed.
func (runtime *engineRuntime) enqueue(event events.Event) bool {
	if runtime.isClosed() {
		return false
	}

	queueItem := eventQueueItem{event: event, queuedAt: time.Now()}
	select {
	case <-runtime.closeCh:
		return false
	case runtime.queue <- queueItem:
		return true
	}
}

func (runtime *engineRuntime) isClosed() bool {
	select {
	case <-runtime.closeCh:
		return true
	default:
		return false
	}
}

func (e *Engine) processQueuedEvent(queuedEvent eventQueueItem) {
	ctx, span := tracer.Start(e.baseContext, "process event")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.kind", string(queuedEvent.event.Kind())),
		attribute.String("event.id", queuedEvent.event.ID().String()),
		attribute.Int64("event.queue_latency_ms", time.Since(queuedEvent.queuedAt).Milliseconds()),
		attribute.String("state.before", e.state.String()),
	)

	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("processing %s panicked: %v", queuedEvent.event.Kind(), recovered)
			span.RecordError(err)
			logger.Error("event processing panicked", "kind", string(queuedEvent.event.Kind()), "panic", recovered)
			e.fail(ctx, "panic", e.prompts.Retry)
		}
	}()

	e.handleEvent(ctx, queuedEvent.event)
	span.SetAttributes(attribute.String("state.after", e.state.String()))
}
