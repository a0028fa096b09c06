package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
)

// EventType names a change to the expenses table.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseUpdated EventType = "expense.updated"
	EventExpenseDeleted EventType = "expense.deleted"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventExpenseCreated, EventExpenseUpdated, EventExpenseDeleted:
		return true
	default:
		return false
	}
}

// ExpenseEvent is a lightweight change notification. It carries only the
// id and the affected month; consumers read current state from storage.
type ExpenseEvent struct {
	EventID   string    `json:"event_id,omitempty"`
	Type      EventType `json:"type"`
	ID        int64     `json:"id"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent builds an event for e stamped with now and a fresh
// event id.
func NewExpenseEvent(t EventType, e core.Expense, now time.Time) ExpenseEvent {
	return ExpenseEvent{
		EventID:   uuid.NewString(),
		Type:      t,
		ID:        e.ID,
		Month:     e.Month(),
		Timestamp: now.UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (m ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and validates an event.
func ExpenseEventFromJSON(data []byte) (ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return ExpenseEvent{}, err
	}
	if !msg.Type.IsValid() {
		return ExpenseEvent{}, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.ID <= 0 {
		return ExpenseEvent{}, fmt.Errorf("invalid expense id %d", msg.ID)
	}
	return msg, nil
}
