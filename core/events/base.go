// Package events defines the typed notifications the conversation loop
// emits: speaker observations, transcript fragments and assistant speech
// milestones. Events are delivered synchronously to registered callbacks;
// handlers must not block the loop.
package events

import "time"

// Kind discriminates event types without reflection.
type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields every conversation event shares. Embed it and
// build it with NewBase in the event's constructor.
type Base struct {
	kind       Kind
	observedAt time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, observedAt: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

// Timestamp is the moment the loop observed the event, not the moment the
// underlying audio was captured.
func (b Base) Timestamp() time.Time {
	return b.observedAt
}
