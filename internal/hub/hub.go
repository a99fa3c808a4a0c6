// Package hub implements the topic-keyed fanout core for order notifications.
//
// Topics are establishment identifiers. A topic is created lazily on first
// subscription and forgotten when its last subscriber leaves; broadcasting to
// a topic with no subscribers discards the event. Delivery is best-effort:
// the hub offers each event to every subscriber's bounded queue and never
// blocks on a slow one.
package hub

import (
	"sync"

	"github.com/happyhours/orderhub/internal/domain/events"
	"github.com/happyhours/orderhub/internal/domain/ports"
	"github.com/rs/zerolog/log"
)

// Hub is the fanout dispatcher. It exclusively owns the topic→subscriber-set
// mapping; subscribers are referenced, never owned.
type Hub struct {
	// mu protects topics
	mu sync.RWMutex

	// topics maps a topic to its subscriber set, keyed by subscriber ID
	topics map[string]map[string]ports.Subscriber

	// closed prevents further subscriptions after Close
	closed bool
}

// New creates a new Hub.
func New() *Hub {
	return &Hub{
		topics: make(map[string]map[string]ports.Subscriber),
	}
}

// Subscribe adds the subscriber to a topic. Idempotent: re-subscribing the
// same subscriber to the same topic is a no-op.
func (h *Hub) Subscribe(topic string, sub ports.Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	set := h.topics[topic]
	if set == nil {
		set = make(map[string]ports.Subscriber)
		h.topics[topic] = set
	}
	set[sub.ID()] = sub

	log.Debug().
		Str("topic", topic).
		Str("subscriber_id", sub.ID()).
		Msg("subscriber registered")
}

// Unsubscribe removes the subscriber from one topic. Safe to call for a
// topic the subscriber never joined.
func (h *Hub) Unsubscribe(topic string, sub ports.Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(topic, sub.ID())
}

// UnsubscribeAll removes the subscriber from every topic. When it returns
// the hub holds no reference to the subscriber, so the caller may close it.
func (h *Hub) UnsubscribeAll(sub ports.Subscriber) {
	id := sub.ID()

	h.mu.Lock()
	defer h.mu.Unlock()

	for topic := range h.topics {
		h.removeLocked(topic, id)
	}
}

// removeLocked deletes one subscriber reference and garbage-collects the
// topic if its set became empty. Caller must hold mu.
func (h *Hub) removeLocked(topic, id string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := set[id]; !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(h.topics, topic)
	}

	log.Debug().
		Str("topic", topic).
		Str("subscriber_id", id).
		Msg("subscriber unregistered")
}

// Broadcast offers the event to every subscriber of the topic present at the
// moment of the call. Snapshot semantics: the subscriber set is captured
// under the read lock, then delivery happens outside it so a slow Send can
// never hold up subscribe/unsubscribe traffic.
func (h *Hub) Broadcast(topic string, event events.Event) {
	h.mu.RLock()
	set := h.topics[topic]
	subs := make([]ports.Subscriber, 0, len(set))
	for _, sub := range set {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		log.Trace().
			Str("topic", topic).
			Str("event_type", string(event.Type())).
			Msg("no subscribers, event discarded")
		return
	}

	for _, sub := range subs {
		if err := sub.Send(event); err != nil {
			// Delivery failure is local to one subscriber; the event is
			// dropped for it and fanout continues.
			log.Warn().
				Str("topic", topic).
				Str("subscriber_id", sub.ID()).
				Err(err).
				Msg("failed to deliver event to subscriber")
		}
	}

	log.Trace().
		Str("topic", topic).
		Str("event_type", string(event.Type())).
		Int("subscribers", len(subs)).
		Msg("event broadcast")
}

// SubscriberCount returns the number of subscribers on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// TopicCount returns the number of live topics.
func (h *Hub) TopicCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}

// Close closes every subscriber and drops all topics.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, set := range h.topics {
		for _, sub := range set {
			_ = sub.Close()
		}
	}
	h.topics = make(map[string]map[string]ports.Subscriber)

	log.Debug().Msg("fanout hub closed")
}
