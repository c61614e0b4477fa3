package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TypeSaleCommitted is emitted once per committed sale.
const TypeSaleCommitted = "sale.committed"

// Event is the envelope stored in the outbox and carried on the wire. Type
// selects the payload schema; Payload stays raw until a consumer decodes it.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent stamps a fresh ID and creation time on payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (e *Event) UnmarshalPayload(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload of event %s: %w", e.Type, e.ID, err)
	}
	return nil
}

// SaleCommitted is the payload of a sale.committed event. Remaining figures
// are the ledger values right after the sale, inside the same transaction.
type SaleCommitted struct {
	SaleID           uuid.UUID       `json:"sale_id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Quantity         int             `json:"quantity"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	RemainingStock   int             `json:"remaining_stock"`
	CommittedAt      time.Time       `json:"committed_at"`
}

// EventHandler reacts to one delivered event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc lets a plain function serve as an EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter delivers an event to whatever handlers are listening.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}
