package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"finmind/internal/core"
)

// EventTransactionCreated is the only event type published today.
const EventTransactionCreated = "transaction.created"

// TransactionEvent announces a stored transaction. It carries the full record
// so a consumer can export it without reading the originating store.
type TransactionEvent struct {
	Type        string           `json:"type"`
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

func NewTransactionCreated(t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Type:        EventTransactionCreated,
		Transaction: t,
		Timestamp:   time.Now().UTC(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and sanity-checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type != EventTransactionCreated {
		return nil, errors.New("unknown event type " + e.Type)
	}
	if e.Transaction.ID == "" {
		return nil, errors.New("event without transaction id")
	}
	return &e, nil
}
