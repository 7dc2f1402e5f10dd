package events

const (
	// KindMessageSent identifies the outcome of submitting an utterance.
	KindMessageSent Kind = "session.message_sent"
	// KindMessageDelivered identifies a new assistant message from the session.
	KindMessageDelivered Kind = "session.message_delivered"
	// KindConnectivityChanged identifies a change in console reachability.
	KindConnectivityChanged Kind = "session.connectivity_changed"
)

// MessageSent reports whether the utterance reached the console.
type MessageSent struct {
	Base
	TaskResult
	Text string
}

// NewMessageSent creates a message sent event.
func NewMessageSent(task uint64, text string, err error) MessageSent {
	return MessageSent{
		Base:       NewBase(KindMessageSent),
		TaskResult: TaskResult{Task: task, Err: err},
		Text:       text,
	}
}

// MessageDelivered carries an assistant or wizard message observed by polling.
type MessageDelivered struct {
	Base
	Role  string
	Text  string
	Index int
}

// NewMessageDelivered creates a message delivered event.
func NewMessageDelivered(role, text string, index int) MessageDelivered {
	return MessageDelivered{Base: NewBase(KindMessageDelivered), Role: role, Text: text, Index: index}
}

// ConnectivityChanged carries the new reachability of the console.
type ConnectivityChanged struct {
	Base
	Connected bool
}

// NewConnectivityChanged creates a connectivity changed event.
func NewConnectivityChanged(connected bool) ConnectivityChanged {
	return ConnectivityChanged{Base: NewBase(KindConnectivityChanged), Connected: connected}
}
