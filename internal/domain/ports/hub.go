package ports

import (
	"github.com/happyhours/orderhub/internal/domain/events"
)

// Subscriber represents one receiver of broadcast events.
type Subscriber interface {
	// ID returns a unique identifier for this subscriber.
	ID() string

	// Send offers an event to this subscriber. It must never block: if the
	// subscriber cannot accept the event it returns an error and the event
	// is dropped for this subscriber only.
	Send(event events.Event) error

	// Close closes the subscriber.
	Close() error

	// Done returns a channel that's closed when the subscriber is done.
	Done() <-chan struct{}
}

// TopicHub is the fanout core: topic-keyed broadcast with per-subscriber
// queues. Topic lifecycle is implicit; a topic exists while it has at least
// one subscriber.
type TopicHub interface {
	// Subscribe adds the subscriber to a topic. Idempotent.
	Subscribe(topic string, sub Subscriber)

	// Unsubscribe removes the subscriber from one topic. Safe to call for a
	// topic the subscriber never joined.
	Unsubscribe(topic string, sub Subscriber)

	// UnsubscribeAll removes the subscriber from every topic it belongs to.
	// It returns only after the subscriber is no longer reachable from the
	// hub, so callers may release the subscriber afterwards.
	UnsubscribeAll(sub Subscriber)

	// Broadcast offers the event to every subscriber of the topic present at
	// the moment of the call.
	Broadcast(topic string, event events.Event)

	// SubscriberCount returns the number of subscribers on a topic.
	SubscriberCount(topic string) int
}
