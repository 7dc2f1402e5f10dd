package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/ema-helper/core"
	"github.com/muesli/reflow/wordwrap"
)

const (
	defaultWidth   = 48
	minBubbleWidth = 16
)

// Controls are the engine inputs the overlay drives.
type Controls interface {
	OnBubbleTap()
	OnMicTap()
	OnClose()
}

// Model renders the floating assistant: a collapsed bubble or the expanded
// chat window.
type Model struct {
	controls  Controls
	bridge    *Bridge
	sessionID string

	state       orchestration.State
	chatVisible bool
	connected   bool
	lastMessage *MessageMsg
	notice      string

	spinner spinner.Model
	styles  styles
	width   int

	quitting bool
}

func NewModel(controls Controls, bridge *Bridge, sessionID string) Model {
	return Model{
		controls:  controls,
		bridge:    bridge,
		sessionID: sessionID,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Ellipsis)),
		styles:    newStyles(),
		width:     defaultWidth,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bridge.listen(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = max(min(msg.Width-4, defaultWidth), minBubbleWidth)
		return m, nil

	case StateMsg:
		m.state = orchestration.State(msg)
		// The listening prompt is stale once the utterance is handed off.
		if m.state == orchestration.StateTranscribing {
			m.notice = ""
		}
		return m, m.bridge.listen()
	case MessageMsg:
		m.lastMessage = &msg
		return m, m.bridge.listen()
	case NoticeMsg:
		m.notice = string(msg)
		return m, m.bridge.listen()
	case ConnectivityMsg:
		m.connected = bool(msg)
		return m, m.bridge.listen()
	case ChatVisibilityMsg:
		m.chatVisible = bool(msg)
		return m, m.bridge.listen()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "b":
		return m, m.control(m.controls.OnBubbleTap)
	case " ":
		return m, m.control(m.controls.OnMicTap)
	case "esc":
		return m, m.control(m.controls.OnClose)
	}
	return m, nil
}

// control runs an engine input off the UI loop; enqueueing may block while
// the engine is draining a full queue.
func (m Model) control(input func()) tea.Cmd {
	return func() tea.Msg {
		input()
		return nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.chatVisible {
		return m.viewBubble()
	}
	return m.viewChat()
}

func (m Model) connectionDot() string {
	color := colorDisconnected
	if m.connected {
		color = colorConnected
	}
	return lipgloss.NewStyle().Foreground(color).Render("●")
}

func (m Model) viewBubble() string {
	label := fmt.Sprintf("%s EMA %s", m.connectionDot(), m.sessionID)
	return m.styles.bubble.Render(label) + "\n" + m.styles.help.Render("b: open  q: quit") + "\n"
}

func (m Model) viewChat() string {
	var body strings.Builder

	body.WriteString(m.styles.title.Render(fmt.Sprintf("세션 %s", m.sessionID)))
	body.WriteString(" " + m.connectionDot() + "\n\n")

	textWidth := m.width - 4
	if m.lastMessage != nil {
		style := m.styles.replyBubble
		if m.lastMessage.Role == "user" {
			style = m.styles.userBubble
		}
		body.WriteString(style.Render(wordwrap.String(m.lastMessage.Text, textWidth)))
		body.WriteString("\n")
	}
	if m.state.Pending() {
		body.WriteString(m.spinner.View())
		body.WriteString("\n")
	}
	if m.notice != "" {
		body.WriteString(m.styles.notice.Render(wordwrap.String(m.notice, textWidth)))
		body.WriteString("\n")
	}
	body.WriteString("\n" + m.micView())

	window := m.styles.window.Width(m.width).Render(body.String())
	return window + "\n" + m.styles.help.Render("space: mic  esc: close  q: quit") + "\n"
}

func (m Model) micView() string {
	switch {
	case m.state == orchestration.StateListening:
		return lipgloss.NewStyle().Foreground(colorListening).Bold(true).Render("◉ 듣는 중")
	case m.state.Busy():
		return lipgloss.NewStyle().Foreground(colorDisabled).Render("◎ 마이크")
	default:
		return lipgloss.NewStyle().Foreground(colorAccent).Render("◎ 마이크")
	}
}
