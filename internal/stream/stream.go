package stream

import (
	"context"
	"sync"
	"time"
)

// PromiseEvent describes a freshly recorded pledge for live subscribers.
// Amounts are minor units; the pledging user is deliberately omitted.
type PromiseEvent struct {
	CauseID    string    `json:"cause_id"`
	CauseTitle string    `json:"cause_title"`
	Amount     int64     `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stream fan-outs promise events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan PromiseEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan PromiseEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan PromiseEvent {
	ch := make(chan PromiseEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt PromiseEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
