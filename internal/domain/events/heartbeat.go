package events

import (
	"encoding/json"
	"time"
)

// HeartbeatEvent is an application-level keepalive sent to every session so
// clients can detect a stalled connection without relying on protocol pings.
type HeartbeatEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"time"`
	Topics    int       `json:"topics"`
}

// NewHeartbeat creates a heartbeat event. topics is the number of
// establishment feeds the receiving session is subscribed to.
func NewHeartbeat(topics int) *HeartbeatEvent {
	return &HeartbeatEvent{
		EventType: EventTypeHeartbeat,
		Time:      time.Now().UTC(),
		Topics:    topics,
	}
}

// Type returns the event type.
func (e *HeartbeatEvent) Type() EventType {
	return EventTypeHeartbeat
}

// Topic returns an empty topic; heartbeats are sent directly to sessions.
func (e *HeartbeatEvent) Topic() string {
	return ""
}

// Timestamp returns when the event occurred.
func (e *HeartbeatEvent) Timestamp() time.Time {
	return e.Time
}

// ToJSON serializes the event to its wire representation.
func (e *HeartbeatEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
