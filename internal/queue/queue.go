// Package queue carries domain events from the API to the leaderboard worker.
package queue

import (
	"context"
	"time"
)

// Domain event types published after successful writes.
const (
	TypeAmbassadorCreated = "ambassador.created"
	TypeEventCreated      = "event.created"
	TypeSubmissionCreated = "submission.created"
)

// Message names the record a write created.
type Message struct {
	Type string    `json:"type"`
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}
