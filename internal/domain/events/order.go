package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
)

// OrderEvent notifies subscribers of an establishment's topic that an order
// was created or updated. The wire field set is fixed; existing consumers
// depend on these exact keys.
type OrderEvent struct {
	EventType       EventType          `json:"type"`
	OrderID         string             `json:"order_id"`
	EstablishmentID string             `json:"establishment_id"`
	Status          domain.OrderStatus `json:"status"`
	Client          string             `json:"client"`
	Details         string             `json:"details"`

	occurred time.Time
}

// NewOrderCreated creates the event broadcast after an order is persisted.
func NewOrderCreated(order domain.Order) *OrderEvent {
	return &OrderEvent{
		EventType:       EventTypeOrderCreated,
		OrderID:         order.ID,
		EstablishmentID: order.EstablishmentID,
		Status:          order.Status,
		Client:          order.ClientID,
		Details:         fmt.Sprintf("New order created: %s", order.ID),
		occurred:        time.Now().UTC(),
	}
}

// NewOrderUpdated creates the event broadcast after an order mutation.
func NewOrderUpdated(order domain.Order) *OrderEvent {
	return &OrderEvent{
		EventType:       EventTypeOrderUpdated,
		OrderID:         order.ID,
		EstablishmentID: order.EstablishmentID,
		Status:          order.Status,
		Client:          order.ClientID,
		Details:         fmt.Sprintf("Order updated: %s", order.ID),
		occurred:        time.Now().UTC(),
	}
}

// Type returns the event type.
func (e *OrderEvent) Type() EventType {
	return e.EventType
}

// Topic returns the establishment topic this event belongs to.
func (e *OrderEvent) Topic() string {
	return e.EstablishmentID
}

// Timestamp returns when the event occurred.
func (e *OrderEvent) Timestamp() time.Time {
	return e.occurred
}

// ToJSON serializes the event to its wire representation.
func (e *OrderEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ErrorEvent is sent to a single session when one of its requests fails.
// It is never broadcast.
type ErrorEvent struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`

	occurred time.Time
}

// NewErrorEvent creates an error event for one session.
func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{
		Code:     code,
		Message:  message,
		occurred: time.Now().UTC(),
	}
}

// Type returns the event type.
func (e *ErrorEvent) Type() EventType {
	return EventTypeError
}

// Topic returns an empty topic; error events are point-to-point.
func (e *ErrorEvent) Topic() string {
	return ""
}

// Timestamp returns when the event occurred.
func (e *ErrorEvent) Timestamp() time.Time {
	return e.occurred
}

// ToJSON serializes the event to its wire representation.
func (e *ErrorEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
