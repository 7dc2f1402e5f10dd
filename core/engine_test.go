package orchestration

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/speech"
)

type fakeCapture struct {
	startErr   error
	clip       audio.Clip
	permission atomic.Bool
	starts     atomic.Int32
	stops      atomic.Int32
}

func (f *fakeCapture) SetPermission(granted bool) { f.permission.Store(granted) }

func (f *fakeCapture) Start(context.Context) error {
	if !f.permission.Load() {
		return errors.New("no permission")
	}
	if f.startErr != nil {
		return f.startErr
	}
	f.starts.Add(1)
	return nil
}

func (f *fakeCapture) Stop() (audio.Clip, error) {
	f.stops.Add(1)
	return f.clip, nil
}

func (f *fakeCapture) Discard() { f.stops.Add(1) }

type fakeSpeech struct {
	transcript    string
	transcribeErr error
	synthesizeErr error

	mu          sync.Mutex
	transcribed []audio.Clip
	synthesized []string
}

func (f *fakeSpeech) Transcribe(_ context.Context, clip audio.Clip) (string, error) {
	f.mu.Lock()
	f.transcribed = append(f.transcribed, clip)
	f.mu.Unlock()
	if clip.IsEmpty() {
		return "", speech.ErrEmptyResult
	}
	return f.transcript, f.transcribeErr
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string) (audio.Speech, error) {
	f.mu.Lock()
	f.synthesized = append(f.synthesized, text)
	f.mu.Unlock()
	return audio.Speech{Data: []byte(text), Container: audio.ContainerMP3}, f.synthesizeErr
}

func (f *fakeSpeech) synthesizedTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.synthesized)
}

type fakePlayback struct {
	block chan struct{}
	plays atomic.Int32
	done  sync.WaitGroup
}

func (f *fakePlayback) Play(ctx context.Context, _ audio.Speech, onDone func(error)) error {
	f.plays.Add(1)
	f.done.Add(1)
	go func() {
		defer f.done.Done()
		if f.block != nil {
			select {
			case <-f.block:
			case <-ctx.Done():
				onDone(ctx.Err())
				return
			}
		}
		onDone(nil)
	}()
	return nil
}

func (f *fakePlayback) Stop() {}

func (f *fakePlayback) Close() { f.done.Wait() }

type fakeTransport struct {
	sendErr error
	// blockLogs holds every LogEvent until its context is cancelled.
	blockLogs bool

	mu          sync.Mutex
	sent        []string
	logged      []string
	connects    atomic.Int32
	disconnects atomic.Int32
}

func (f *fakeTransport) Connect(context.Context) error {
	f.connects.Add(1)
	return nil
}

func (f *fakeTransport) SendMessage(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.sendErr
}

func (f *fakeTransport) LogEvent(ctx context.Context, eventType string, _ map[string]any) error {
	f.mu.Lock()
	f.logged = append(f.logged, eventType)
	f.mu.Unlock()
	if f.blockLogs {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeTransport) Disconnect() { f.disconnects.Add(1) }

func (f *fakeTransport) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

type recorder struct {
	mu       sync.Mutex
	states   []State
	messages []string
	notices  []string
}

func (r *recorder) options() []EngineOption {
	return []EngineOption{
		WithStateChangedCallback(func(s State) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.states = append(r.states, s)
		}),
		WithMessageCallback(func(role, text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.messages = append(r.messages, role+":"+text)
		}),
		WithNoticeCallback(func(notice string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.notices = append(r.notices, notice)
		}),
	}
}

func (r *recorder) snapshot() ([]State, []string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.states), slices.Clone(r.messages), slices.Clone(r.notices)
}

type harness struct {
	engine    *Engine
	capture   *fakeCapture
	speech    *fakeSpeech
	playback  *fakePlayback
	transport *fakeTransport
	recorder  *recorder
}

func newHarness(t *testing.T, configure func(h *harness)) *harness {
	t.Helper()

	h := &harness{
		capture:   &fakeCapture{clip: audio.Clip{Data: []byte{1, 2, 3, 4}, EncodingInfo: audio.GetDefaultEncodingInfo()}},
		speech:    &fakeSpeech{transcript: "hello"},
		playback:  &fakePlayback{},
		transport: &fakeTransport{},
		recorder:  &recorder{},
	}
	if configure != nil {
		configure(h)
	}

	opts := append([]EngineOption{
		WithAudioCapture(h.capture),
		WithSpeech(h.speech),
		WithAudioPlayback(h.playback),
		WithTransport(h.transport),
		WithSendDelay(0),
	}, h.recorder.options()...)
	h.engine = NewEngine(opts...)
	h.engine.Start(context.Background())
	t.Cleanup(h.engine.Close)

	h.engine.MicrophonePermissionGranted()
	return h
}

func waitForState(t *testing.T, engine *Engine, expected State) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if engine.State() == expected {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("expected state %s, got %s", expected, engine.State())
}

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", description)
}

func TestRoundTripFromMicToSpokenReply(t *testing.T) {
	h := newHarness(t, nil)

	h.engine.OnBubbleTap()
	h.engine.OnMicTap()
	waitForState(t, h.engine, StateListening)

	h.engine.OnMicTap()
	waitForState(t, h.engine, StateAwaitingReply)

	if sent := h.transport.sentMessages(); !slices.Equal(sent, []string{"hello"}) {
		t.Fatalf("expected one sent utterance, got %v", sent)
	}

	h.engine.DeliverMessage("assistant", "hi there", 1)
	waitFor(t, "reply playback", func() bool { return h.playback.plays.Load() == 1 })
	waitForState(t, h.engine, StateIdle)

	states, messages, _ := h.recorder.snapshot()
	expectedStates := []State{StateListening, StateTranscribing, StateSending, StateAwaitingReply, StateSpeaking, StateIdle}
	if !slices.Equal(states, expectedStates) {
		t.Fatalf("expected states %v, got %v", expectedStates, states)
	}
	if !slices.Equal(messages, []string{"user:hello", "assistant:hi there"}) {
		t.Fatalf("unexpected displayed messages %v", messages)
	}
	if got := h.speech.synthesizedTexts(); !slices.Equal(got, []string{"hi there"}) {
		t.Fatalf("expected reply to be synthesized, got %v", got)
	}
}

func TestEmptyTranscriptionReturnsToIdleWithoutSending(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.capture.clip = audio.EmptyClip(audio.GetDefaultEncodingInfo())
	})

	h.engine.OnBubbleTap()
	h.engine.OnMicTap()
	waitForState(t, h.engine, StateListening)
	h.engine.OnMicTap()

	waitFor(t, "repeat notice", func() bool {
		_, _, notices := h.recorder.snapshot()
		return slices.Contains(notices, DefaultPrompts().Repeat)
	})
	waitForState(t, h.engine, StateIdle)

	if sent := h.transport.sentMessages(); len(sent) != 0 {
		t.Fatalf("expected no message to be sent, got %v", sent)
	}
}

func TestAwaitingReplyHasNoTimeout(t *testing.T) {
	h := newHarness(t, nil)

	h.engine.OnBubbleTap()
	h.engine.OnMicTap()
	waitForState(t, h.engine, StateListening)
	h.engine.OnMicTap()
	waitForState(t, h.engine, StateAwaitingReply)

	time.Sleep(200 * time.Millisecond)
	if got := h.engine.State(); got != StateAwaitingReply {
		t.Fatalf("expected to keep awaiting the reply, got %s", got)
	}
}

func TestMicTapIgnoredWhileSpeaking(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.playback.block = make(chan struct{})
	})

	h.engine.OnBubbleTap()
	h.engine.DeliverMessage("wizard", "a long answer", 0)
	waitFor(t, "playback start", func() bool { return h.playback.plays.Load() == 1 })

	h.engine.OnMicTap()
	time.Sleep(50 * time.Millisecond)

	if got := h.capture.starts.Load(); got != 0 {
		t.Fatalf("expected mic tap to be ignored while speaking, capture started %d times", got)
	}
	if got := h.engine.State(); got != StateSpeaking {
		t.Fatalf("expected to keep speaking, got %s", got)
	}

	close(h.playback.block)
	waitForState(t, h.engine, StateIdle)
}

func TestCaptureFailureShowsDeviceNotice(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.capture.startErr = errors.New("device busy")
	})

	h.engine.OnBubbleTap()
	h.engine.OnMicTap()

	waitFor(t, "device notice", func() bool {
		_, _, notices := h.recorder.snapshot()
		return slices.Contains(notices, DefaultPrompts().DeviceUnavailable)
	})
	if got := h.engine.State(); got != StateIdle {
		t.Fatalf("expected idle after capture failure, got %s", got)
	}
}

func TestSendFailureKeepsTranscript(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.transport.sendErr = errors.New("connection refused")
	})

	h.engine.OnBubbleTap()
	h.engine.OnMicTap()
	waitForState(t, h.engine, StateListening)
	h.engine.OnMicTap()

	waitFor(t, "retry notice", func() bool {
		_, _, notices := h.recorder.snapshot()
		return slices.Contains(notices, DefaultPrompts().Retry)
	})
	waitForState(t, h.engine, StateIdle)

	_, messages, _ := h.recorder.snapshot()
	if !slices.Contains(messages, "user:hello") {
		t.Fatalf("expected transcript to stay displayed, got %v", messages)
	}
}

func TestMicTapIgnoredWhileChatHidden(t *testing.T) {
	h := newHarness(t, nil)

	h.engine.OnMicTap()
	time.Sleep(50 * time.Millisecond)

	if got := h.capture.starts.Load(); got != 0 {
		t.Fatalf("expected no capture without an open chat, got %d", got)
	}
}

func TestClosingChatDiscardsCapture(t *testing.T) {
	h := newHarness(t, nil)

	h.engine.OnBubbleTap()
	h.engine.OnMicTap()
	waitForState(t, h.engine, StateListening)

	h.engine.OnClose()
	waitForState(t, h.engine, StateIdle)
	waitFor(t, "capture release", func() bool { return h.capture.stops.Load() == 1 })

	h.speech.mu.Lock()
	defer h.speech.mu.Unlock()
	if len(h.speech.transcribed) != 0 {
		t.Fatalf("expected discarded capture not to be transcribed, got %d transcriptions", len(h.speech.transcribed))
	}
}

func TestReplyDuringListeningIsSpokenAfterwards(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.capture.clip = audio.EmptyClip(audio.GetDefaultEncodingInfo())
	})

	h.engine.OnBubbleTap()
	h.engine.OnMicTap()
	waitForState(t, h.engine, StateListening)

	h.engine.DeliverMessage("assistant", "are you there?", 0)
	waitFor(t, "reply display", func() bool {
		_, messages, _ := h.recorder.snapshot()
		return slices.Contains(messages, "assistant:are you there?")
	})
	if got := h.engine.State(); got != StateListening {
		t.Fatalf("expected listening to continue, got %s", got)
	}

	h.engine.OnMicTap()
	waitFor(t, "queued reply playback", func() bool { return h.playback.plays.Load() == 1 })
	waitForState(t, h.engine, StateIdle)
}

func TestStalledEventLoggingDoesNotBlockConversation(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.transport.blockLogs = true
	})

	h.engine.OnBubbleTap()
	for round := 1; round <= 3; round++ {
		h.engine.OnMicTap()
		waitForState(t, h.engine, StateListening)

		h.engine.OnMicTap()
		waitForState(t, h.engine, StateAwaitingReply)

		h.engine.DeliverMessage("assistant", "reply "+strconv.Itoa(round), round)
		waitFor(t, "reply playback", func() bool { return h.playback.plays.Load() == int32(round) })
		waitForState(t, h.engine, StateIdle)
	}

	if sent := h.transport.sentMessages(); len(sent) != 3 {
		t.Fatalf("expected 3 sent utterances, got %v", sent)
	}
	_, _, notices := h.recorder.snapshot()
	if slices.Contains(notices, DefaultPrompts().DeviceUnavailable) {
		t.Fatalf("expected no device notice while logging is stalled, got %v", notices)
	}
}

func TestCloseIsIdempotentAndReleasesResources(t *testing.T) {
	h := newHarness(t, nil)

	waitFor(t, "transport connect", func() bool { return h.transport.connects.Load() == 1 })

	h.engine.Close()
	h.engine.Close()

	if got := h.transport.disconnects.Load(); got != 1 {
		t.Fatalf("expected one disconnect, got %d", got)
	}
	if got := h.capture.stops.Load(); got != 1 {
		t.Fatalf("expected capture to be released once, got %d", got)
	}

	h.engine.OnMicTap()
}

func TestGeneratedSessionIDIsFourDigits(t *testing.T) {
	engine := NewEngine()
	id, err := strconv.Atoi(engine.SessionID())
	if err != nil || id < 1000 || id > 9999 {
		t.Fatalf("expected a four digit session id, got %q", engine.SessionID())
	}

	if got := NewEngine(WithSessionID("abc")).SessionID(); got != "abc" {
		t.Fatalf("expected configured session id, got %q", got)
	}
}
