package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expenses/internal/core"
)

// EventType names a change to the expense collection.
type EventType string

const (
	EventCreated EventType = "expense.created"
	EventUpdated EventType = "expense.updated"
	EventDeleted EventType = "expense.deleted"
)

// RecordEvent is published after every successful mutation. Deleted events
// carry the last known state of the record.
type RecordEvent struct {
	Type      EventType   `json:"type"`
	ID        int64       `json:"id"`
	Record    core.Record `json:"record"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewRecordEvent builds an event for r stamped with the current time.
func NewRecordEvent(t EventType, r core.Record) *RecordEvent {
	return &RecordEvent{
		Type:      t,
		ID:        r.ID,
		Record:    r,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and sanity checks an event.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
