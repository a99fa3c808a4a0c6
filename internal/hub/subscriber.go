package hub

import (
	"sync"
	"sync/atomic"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/events"
)

// QueueSubscriber is a subscriber backed by a bounded event queue. A dedicated
// consumer (the session's write loop) drains Events(); Send never blocks and
// drops the event when the queue is full.
type QueueSubscriber struct {
	id      string
	queue   chan events.Event
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// NewQueueSubscriber creates a queue-backed subscriber with the given capacity.
func NewQueueSubscriber(id string, capacity int) *QueueSubscriber {
	return &QueueSubscriber{
		id:    id,
		queue: make(chan events.Event, capacity),
		done:  make(chan struct{}),
	}
}

// ID returns the subscriber's unique identifier.
func (s *QueueSubscriber) ID() string {
	return s.id
}

// Send offers an event to the queue. Returns domain.ErrSubscriberClosed if
// the subscriber is closed, or domain.ErrQueueFull if the consumer is too
// slow; the event is dropped in both cases.
func (s *QueueSubscriber) Send(event events.Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSubscriberClosed
	}
	defer s.mu.Unlock()

	select {
	case s.queue <- event:
		return nil
	default:
		s.dropped.Add(1)
		return domain.ErrQueueFull
	}
}

// Close closes the subscriber. Safe to call multiple times. The caller must
// have removed the subscriber from the hub first; after Close the events
// channel is closed and the consumer's drain loop terminates.
func (s *QueueSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	close(s.queue)
	return nil
}

// Done returns a channel that's closed when the subscriber is done.
func (s *QueueSubscriber) Done() <-chan struct{} {
	return s.done
}

// Events returns the channel the consumer drains.
func (s *QueueSubscriber) Events() <-chan events.Event {
	return s.queue
}

// Dropped returns the number of events dropped because the queue was full.
func (s *QueueSubscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// FuncSubscriber invokes a callback for every event. Used for in-process
// consumers such as the debug log tap.
type FuncSubscriber struct {
	id   string
	done chan struct{}
	fn   func(event events.Event)

	mu     sync.Mutex
	closed bool
}

// NewFuncSubscriber creates a callback-based subscriber.
func NewFuncSubscriber(id string, fn func(event events.Event)) *FuncSubscriber {
	return &FuncSubscriber{
		id:   id,
		done: make(chan struct{}),
		fn:   fn,
	}
}

// ID returns the subscriber's unique identifier.
func (s *FuncSubscriber) ID() string {
	return s.id
}

// Send invokes the callback with the event.
func (s *FuncSubscriber) Send(event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSubscriberClosed
	}
	if s.fn != nil {
		s.fn(event)
	}
	return nil
}

// Close closes the subscriber.
func (s *FuncSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// Done returns a channel that's closed when the subscriber is done.
func (s *FuncSubscriber) Done() <-chan struct{} {
	return s.done
}
