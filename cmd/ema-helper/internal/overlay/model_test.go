package overlay

import (
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-helper/core"
	"github.com/koscakluka/ema-helper/internal/config"
)

type fakeControls struct {
	bubbleTaps atomic.Int32
	micTaps    atomic.Int32
	closes     atomic.Int32
}

func (f *fakeControls) OnBubbleTap() { f.bubbleTaps.Add(1) }
func (f *fakeControls) OnMicTap()    { f.micTaps.Add(1) }
func (f *fakeControls) OnClose()     { f.closes.Add(1) }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model, cmd
}

func TestKeysDriveEngineControls(t *testing.T) {
	controls := &fakeControls{}
	m := NewModel(controls, NewBridge(), "1234")

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'b'}},
		{Type: tea.KeySpace, Runes: []rune{' '}},
		{Type: tea.KeyEsc},
	} {
		_, cmd := update(t, m, key)
		if cmd == nil {
			t.Fatalf("expected a command for key %q", key.String())
		}
		cmd()
	}

	if controls.bubbleTaps.Load() != 1 || controls.micTaps.Load() != 1 || controls.closes.Load() != 1 {
		t.Fatalf("expected one of each input, got bubble=%d mic=%d close=%d",
			controls.bubbleTaps.Load(), controls.micTaps.Load(), controls.closes.Load())
	}
}

func TestQuitKey(t *testing.T) {
	m := NewModel(&fakeControls{}, NewBridge(), "1234")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Fatalf("expected empty view after quitting")
	}
}

func TestCollapsedBubbleShowsSessionID(t *testing.T) {
	m := NewModel(&fakeControls{}, NewBridge(), "4821")

	if view := m.View(); !strings.Contains(view, "4821") || strings.Contains(view, "세션") {
		t.Fatalf("expected collapsed bubble with session id, got %q", view)
	}
}

func TestChatWindowRendersEngineUpdates(t *testing.T) {
	m := NewModel(&fakeControls{}, NewBridge(), "4821")

	m, _ = update(t, m, ChatVisibilityMsg(true))
	m, _ = update(t, m, ConnectivityMsg(true))
	m, _ = update(t, m, MessageMsg{Role: "assistant", Text: "안녕하세요, 무엇을 도와드릴까요?"})
	m, _ = update(t, m, NoticeMsg("듣고 있어요..."))
	m, _ = update(t, m, StateMsg(orchestration.StateListening))

	view := m.View()
	for _, fragment := range []string{"세션 4821", "안녕하세요", "듣고 있어요...", "듣는 중"} {
		if !strings.Contains(view, fragment) {
			t.Fatalf("expected view to contain %q, got %q", fragment, view)
		}
	}

	m, _ = update(t, m, StateMsg(orchestration.StateTranscribing))
	if m.notice != "" {
		t.Fatalf("expected listening notice to clear, got %q", m.notice)
	}
	if strings.Contains(m.View(), "듣는 중") {
		t.Fatalf("expected mic to leave the listening style")
	}
}

func TestBridgeForwardsUpdatesUntilClosed(t *testing.T) {
	bridge := NewBridge()
	bridge.send(NoticeMsg("hello"))

	if msg := bridge.listen()(); msg != NoticeMsg("hello") {
		t.Fatalf("expected forwarded notice, got %v", msg)
	}

	bridge.Close()
	for range bridgeBufferSize + 1 {
		bridge.send(NoticeMsg("dropped"))
	}
}

func TestPromptsFallBackToDefaults(t *testing.T) {
	p := prompts(config.Prompts{Repeat: "again please"})

	if p.Repeat != "again please" {
		t.Fatalf("expected configured repeat prompt, got %q", p.Repeat)
	}
	if p.Listening != orchestration.DefaultPrompts().Listening {
		t.Fatalf("expected default listening prompt, got %q", p.Listening)
	}
}
