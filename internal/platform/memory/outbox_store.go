package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/store"
)

// OutboxStore implements store.OutboxStore in memory.
type OutboxStore struct {
	access accessor
}

var _ store.OutboxStore = (*OutboxStore)(nil)

// NewOutboxStore returns an OutboxStore operating directly on db.
func NewOutboxStore(db *DB) *OutboxStore {
	return &OutboxStore{access: db.locked}
}

// Enqueue implements store.OutboxStore.Enqueue
func (s *OutboxStore) Enqueue(ctx context.Context, record *store.OutboxRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return s.access(ctx, func(st *state) error {
		st.outbox = append(st.outbox, cloneRecord(record))
		return nil
	})
}

// FetchPending implements store.OutboxStore.FetchPending
func (s *OutboxStore) FetchPending(ctx context.Context, limit int) ([]*store.OutboxRecord, error) {
	records := make([]*store.OutboxRecord, 0)
	err := s.access(ctx, func(st *state) error {
		for _, r := range st.outbox {
			if len(records) >= limit {
				break
			}
			records = append(records, cloneRecord(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarkSent implements store.OutboxStore.MarkSent
// Delivered records are dropped, so the outbox only ever holds pending work.
func (s *OutboxStore) MarkSent(ctx context.Context, id uuid.UUID, _ time.Time) error {
	return s.access(ctx, func(st *state) error {
		for i, r := range st.outbox {
			if r.ID == id {
				st.outbox = append(st.outbox[:i:i], st.outbox[i+1:]...)
				return nil
			}
		}
		return store.ErrNotFound
	})
}
