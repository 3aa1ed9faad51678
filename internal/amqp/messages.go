package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Op is the change a LedgerEvent announces.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

func (o Op) Valid() bool {
	switch o {
	case OpCreated, OpUpdated, OpDeleted:
		return true
	}
	return false
}

// LedgerEvent is a lightweight notification that a transaction changed.
// Consumers load the current row from the store themselves.
type LedgerEvent struct {
	ID            uuid.UUID `json:"event_id"`
	TransactionID int64     `json:"transaction_id"`
	Op            Op        `json:"op"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a new event with a random id and the current time.
func NewLedgerEvent(op Op, transactionID int64) *LedgerEvent {
	return &LedgerEvent{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Op:            op,
		Timestamp:     time.Now(),
	}
}

// RoutingKey is "transaction.<op>".
func (e *LedgerEvent) RoutingKey() string {
	return "transaction." + string(e.Op)
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown operations.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Op.Valid() {
		return nil, fmt.Errorf("unknown event op %q", e.Op)
	}
	return &e, nil
}
