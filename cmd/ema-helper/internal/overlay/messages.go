package overlay

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-helper/core"
)

type (
	StateMsg          orchestration.State
	NoticeMsg         string
	ConnectivityMsg   bool
	ChatVisibilityMsg bool
	MessageMsg        struct{ Role, Text string }
)

const bridgeBufferSize = 64

// Bridge forwards engine callbacks to the UI. Callbacks run on the engine's
// event goroutine, so the UI drains them through a buffered channel instead
// of being called directly.
type Bridge struct {
	updates chan tea.Msg
	done    chan struct{}

	closeOnce sync.Once
}

func NewBridge() *Bridge {
	return &Bridge{
		updates: make(chan tea.Msg, bridgeBufferSize),
		done:    make(chan struct{}),
	}
}

// Close drops every later update so the engine never blocks on a UI that
// has exited.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case <-b.done:
	case b.updates <- msg:
	}
}

func (b *Bridge) EngineOptions() []orchestration.EngineOption {
	return []orchestration.EngineOption{
		orchestration.WithStateChangedCallback(func(s orchestration.State) { b.send(StateMsg(s)) }),
		orchestration.WithMessageCallback(func(role, text string) { b.send(MessageMsg{Role: role, Text: text}) }),
		orchestration.WithNoticeCallback(func(notice string) { b.send(NoticeMsg(notice)) }),
		orchestration.WithConnectivityCallback(func(connected bool) { b.send(ConnectivityMsg(connected)) }),
		orchestration.WithChatVisibilityCallback(func(visible bool) { b.send(ChatVisibilityMsg(visible)) }),
	}
}

func (b *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.done:
			return nil
		case msg := <-b.updates:
			return msg
		}
	}
}
