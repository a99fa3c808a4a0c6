// Package notify translates confirmed order mutations into notification
// events and hands them to the fanout hub.
package notify

import (
	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/events"
	"github.com/happyhours/orderhub/internal/domain/ports"
	"github.com/rs/zerolog/log"
)

// Publisher broadcasts order lifecycle events on the order's establishment
// topic. Fire-and-forget: the hub drops events for slow or absent
// subscribers and nothing here returns an error to the caller.
type Publisher struct {
	hub ports.TopicHub
}

// NewPublisher creates a publisher over the given hub.
func NewPublisher(hub ports.TopicHub) *Publisher {
	return &Publisher{hub: hub}
}

// OrderCreated broadcasts an order_created event.
func (p *Publisher) OrderCreated(order domain.Order) {
	p.broadcast(events.NewOrderCreated(order))
}

// OrderUpdated broadcasts an order_updated event.
func (p *Publisher) OrderUpdated(order domain.Order) {
	p.broadcast(events.NewOrderUpdated(order))
}

func (p *Publisher) broadcast(event *events.OrderEvent) {
	log.Trace().
		Str("event_type", string(event.Type())).
		Str("order_id", event.OrderID).
		Str("topic", event.Topic()).
		Msg("publishing order event")

	p.hub.Broadcast(event.Topic(), event)
}
