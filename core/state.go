package orchestration

// State is the conversation state every UI affordance is derived from.
type State int

const (
	StateIdle State = iota
	StateListening
	StateTranscribing
	StateSending
	StateAwaitingReply
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateTranscribing:
		return "transcribing"
	case StateSending:
		return "sending"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Busy reports whether a pipeline is moving forward and the mic control is
// disabled.
func (s State) Busy() bool {
	return s != StateIdle && s != StateListening
}

// Pending reports whether the UI should show the loading indicator.
func (s State) Pending() bool {
	return s == StateTranscribing || s == StateSending || s == StateAwaitingReply
}
