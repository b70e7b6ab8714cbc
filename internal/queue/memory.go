package queue

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrConsumerActive is returned by InMemory.Consume while another consumer is
// still attached.
var ErrConsumerActive = errors.New("queue: consumer already active")

// InMemory is a bounded queue for a single process. It serves one consumer at a
// time; a message taken from the buffer when the consumer stops is put back.
type InMemory struct {
	buf       chan Message
	consuming atomic.Bool
}

// NewInMemory creates a queue buffering up to size messages.
func NewInMemory(size int) *InMemory {
	return &InMemory{buf: make(chan Message, max(size, 1))}
}

// Publish buffers msg, waiting for room until ctx is done.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.buf <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len reports how many messages are waiting.
func (q *InMemory) Len() int {
	return len(q.buf)
}

// Consume attaches the consumer. The channel closes when ctx is done.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	if !q.consuming.CompareAndSwap(false, true) {
		return nil, ErrConsumerActive
	}
	out := make(chan Message)
	go func() {
		defer close(out)
		defer q.consuming.Store(false)
		for {
			var msg Message
			select {
			case msg = <-q.buf:
			case <-ctx.Done():
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				q.putBack(msg)
				return
			}
		}
	}()
	return out, nil
}

func (q *InMemory) putBack(msg Message) {
	select {
	case q.buf <- msg:
	default:
	}
}
