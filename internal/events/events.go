// Package events announces ledger changes to downstream collaborators such as
// notification and reporting workers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmynk/settleup/internal/models"
	"github.com/shopspring/decimal"
)

// Type names one kind of ledger change.
type Type string

const (
	SharesAllocated  Type = "shares.allocated"
	PaymentRequested Type = "payment.requested"
	PaymentPaid      Type = "payment.paid"
	PaymentRejected  Type = "payment.rejected"
	ExpenseFullyPaid Type = "expense.fully_paid"
	ExpenseDeleted   Type = "expense.deleted"
)

// Event is a lightweight notification. Consumers fetch the full records by ID.
type Event struct {
	Type        Type               `json:"type"`
	GroupID     string             `json:"group_id"`
	ExpenseID   string             `json:"expense_id"`
	ShareID     string             `json:"share_id,omitempty"`
	Participant models.Participant `json:"participant,omitzero"`
	Amount      decimal.Decimal    `json:"amount"`
	Note        string             `json:"note,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event published by ToJSON.
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers events. Publishing is best effort: callers log failures
// and carry on, the ledger write has already been committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
