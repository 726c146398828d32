package amqp

import (
	"encoding/json"
	"time"

	"floosafandy/internal/core"
)

type EventType string

const (
	// EventSync signals that a transaction was created or edited and needs
	// to be pushed to the report sink.
	EventSync EventType = "sync"
	// EventDelete signals that a transaction was removed; the sink appends
	// a reversal row since exported rows are never rewritten.
	EventDelete EventType = "delete"
)

// TransactionEvent is the message exchanged between the web process and the
// export worker. Sync events are lightweight (the worker re-reads the row
// from the database); delete events carry the data needed for the reversal
// because the row is already gone.
type TransactionEvent struct {
	Type        EventType `json:"type"`
	ID          int64     `json:"id"`
	Direction   string    `json:"direction,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	AccountID   int64     `json:"account_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewSyncEvent(id int64) *TransactionEvent {
	return &TransactionEvent{
		Type:      EventSync,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func NewDeleteEvent(t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Type:        EventDelete,
		ID:          t.ID,
		Direction:   string(t.Direction),
		AmountCents: t.Amount.Cents,
		AccountID:   t.AccountID,
		Description: t.Description,
		Category:    core.JoinCategories(t.Categories),
		Timestamp:   time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
