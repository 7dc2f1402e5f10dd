package orchestration

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-helper/core/events"
	"github.com/koscakluka/ema-helper/core/speech"
	"github.com/koscakluka/ema-helper/core/wizard"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSendDelay = time.Second
	maxRunningTasks  = 8
	maxPendingLogs   = 4
)

// Engine owns the assistant's conversation state. All state is mutated by a
// single goroutine that applies queued events; host input methods and
// background tasks only enqueue.
type Engine struct {
	sessionID string

	speech    speech.Capability
	capture   AudioCapture
	playback  AudioPlayback
	transport SessionTransport

	wizardBaseURL string
	wizardOptions []wizard.ClientOption

	sendDelay         time.Duration
	prompts           Prompts
	permissionGranted bool
	callbacks         runtimeCallbacks

	// Owned by the runtime goroutine.
	state          State
	chatVisible    bool
	inFlight       map[taskKind]*task
	pendingReplies []string

	currentState atomic.Int32
	taskCounter  atomic.Uint64

	runtime     *engineRuntime
	baseContext context.Context
	cancelTasks context.CancelFunc
	tasks       errgroup.Group
	// Event logging has its own pool so a slow console never takes slots
	// from the conversation pipeline.
	logs errgroup.Group

	closeOnce sync.Once
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		sendDelay:   defaultSendDelay,
		prompts:     DefaultPrompts(),
		inFlight:    map[taskKind]*task{},
		runtime:     newEngineRuntime(),
		baseContext: context.Background(),
		cancelTasks: func() {},
	}
	e.tasks.SetLimit(maxRunningTasks)
	e.logs.SetLimit(maxPendingLogs)

	for _, opt := range opts {
		opt(e)
	}

	if e.sessionID == "" {
		e.sessionID = newSessionID()
	}
	if e.transport == nil && e.wizardBaseURL != "" {
		e.transport = wizard.NewClient(e.wizardBaseURL, e.sessionID, append([]wizard.ClientOption{
			wizard.WithMessageCallback(func(m wizard.Message) { e.DeliverMessage(m.Role, m.Text, m.Index) }),
			wizard.WithConnectivityCallback(e.SetConnectivity),
		}, e.wizardOptions...)...)
	}
	e.callbacks.fillDefaults()

	if e.permissionGranted && e.capture != nil {
		e.capture.SetPermission(true)
	}

	return e
}

// newSessionID returns a code short enough for a human wizard to read off the
// screen.
func newSessionID() string {
	return strconv.Itoa(1000 + rand.IntN(9000))
}

func (e *Engine) SessionID() string { return e.sessionID }

// State is safe to call from any goroutine.
func (e *Engine) State() State { return State(e.currentState.Load()) }

// Start begins processing events and connects to the session. ctx bounds
// every background task.
//
// Contract: call Start at most once.
func (e *Engine) Start(ctx context.Context) {
	if e.runtime.isClosed() {
		logger.Warn("engine already closed, skipping Start")
		return
	}

	e.baseContext, e.cancelTasks = context.WithCancel(ctx)
	if !e.runtime.start(e.processQueuedEvent) {
		return
	}

	if e.transport != nil {
		if err := e.transport.Connect(e.baseContext); err != nil {
			logger.Error("failed to connect session transport", "error", err)
		}
	}
}

// Close stops the engine: it disconnects the session, releases an armed
// microphone, stops playback and cancels every in-flight task. It is
// idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.runtime.end()
		e.runtime.waitUntilEnded()
		e.cancelTasks()

		if e.transport != nil {
			e.transport.Disconnect()
		}
		if e.capture != nil {
			if _, err := e.capture.Stop(); err != nil {
				logger.Warn("failed to release microphone", "error", err)
			}
		}
		if e.playback != nil {
			e.playback.Close()
		}

		_ = e.tasks.Wait()
		_ = e.logs.Wait()
	})
}

func (e *Engine) OnBubbleTap() { e.runtime.enqueue(events.NewBubbleTapped()) }

func (e *Engine) OnMicTap() { e.runtime.enqueue(events.NewMicTapped()) }

func (e *Engine) OnClose() { e.runtime.enqueue(events.NewChatClosed()) }

func (e *Engine) MicrophonePermissionGranted() {
	e.runtime.enqueue(events.NewMicrophonePermissionGranted())
}

// DeliverMessage feeds a new session message into the engine. Only assistant
// and wizard messages are expected here.
func (e *Engine) DeliverMessage(role, text string, index int) {
	e.runtime.enqueue(events.NewMessageDelivered(role, text, index))
}

func (e *Engine) SetConnectivity(connected bool) {
	e.runtime.enqueue(events.NewConnectivityChanged(connected))
}
