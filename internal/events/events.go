// Package events publishes ledger change notifications to external subscribers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Type names a ledger change. It doubles as the AMQP routing key.
type Type string

const (
	ExpenseRecorded    Type = "expense.recorded"
	ExpenseDeleted     Type = "expense.deleted"
	SettlementRecorded Type = "settlement.recorded"
	SettlementDeleted  Type = "settlement.deleted"
)

// Event is a lightweight notification; subscribers fetch details through the API.
type Event struct {
	Type      Type      `json:"type"`
	GroupID   string    `json:"group_id"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates an event stamped with the current time.
func New(t Type, groupID, entityID string) Event {
	return Event{Type: t, GroupID: groupID, EntityID: entityID, Timestamp: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event from JSON bytes.
func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers events. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
