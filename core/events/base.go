package events

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

type Event interface {
	ID() uuid.UUID
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	id        uuid.UUID
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{id: uuid.New(), kind: kind, timestamp: time.Now()}
}

func (b Base) ID() uuid.UUID {
	return b.id
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

// TaskResult is embedded by events that report the outcome of a background
// task. Task identifies the run so late results of cancelled runs can be told
// apart from the current one.
type TaskResult struct {
	Task uint64
	Err  error
}

func (r TaskResult) Failed() bool { return r.Err != nil }
