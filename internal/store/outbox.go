package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxRecord is an event written in the same transaction as the state
// change it describes, waiting to be relayed to a publisher.
type OutboxRecord struct {
	ID        uuid.UUID       `json:"id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// OutboxStore persists events for at-least-once delivery.
type OutboxStore interface {
	// Enqueue stores a record. Call it inside UnitOfWork.Do so the event
	// commits or rolls back with the change it describes.
	Enqueue(ctx context.Context, record *OutboxRecord) error

	// FetchPending returns up to limit unsent records, oldest first.
	FetchPending(ctx context.Context, limit int) ([]*OutboxRecord, error)

	// MarkSent flags a record as delivered.
	// Returns ErrNotFound if the record does not exist.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
}
