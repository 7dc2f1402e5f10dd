package console

import (
	"slices"
	"sync"
	"time"
)

type Message struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type Event struct {
	SessionID string         `json:"session_id"`
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	Timestamp string         `json:"timestamp"`
}

// store keeps sessions in memory for the lifetime of the process.
type store struct {
	mu       sync.RWMutex
	order    []string
	sessions map[string][]Message
	events   []Event
}

func newStore() *store {
	return &store{sessions: map[string][]Message{}}
}

// append adds a message, creating the session on first use, and reports
// whether the session is new.
func (s *store) append(sessionID string, message Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, ok := s.sessions[sessionID]
	if !ok {
		s.order = append(s.order, sessionID)
	}
	s.sessions[sessionID] = append(messages, message)
	return !ok
}

func (s *store) messages(sessionID string) ([]Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.sessions[sessionID]
	return slices.Clone(messages), ok
}

func (s *store) sessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

func (s *store) logEvent(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *store) eventsFor(sessionID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []Event
	for _, event := range s.events {
		if event.SessionID == sessionID {
			events = append(events, event)
		}
	}
	return events
}

func now() string { return time.Now().Format(time.RFC3339Nano) }
