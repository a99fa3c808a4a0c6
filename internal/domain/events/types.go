// Package events defines the notification events delivered to live sessions.
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Order lifecycle events
	EventTypeOrderCreated EventType = "order_created"
	EventTypeOrderUpdated EventType = "order_updated"

	// Connection events
	EventTypeHeartbeat EventType = "heartbeat"

	// Error responses addressed to a single session
	EventTypeError EventType = "error"
)

// Event is the base interface for all events.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Topic returns the broadcast topic this event belongs to.
	// Empty for events addressed to a single session.
	Topic() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// ToJSON serializes the event to its wire representation.
	ToJSON() ([]byte, error)
}
