package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/phrazzld/shop-api/internal/store"
)

// PostgresOutboxStore implements the store.OutboxStore interface.
type PostgresOutboxStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresOutboxStore creates a new PostgreSQL implementation of the OutboxStore interface.
func NewPostgresOutboxStore(db store.DBTX, logger *slog.Logger) *PostgresOutboxStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOutboxStore{
		db:     db,
		logger: logger.With(slog.String("component", "outbox_store")),
	}
}

// Ensure PostgresOutboxStore implements store.OutboxStore interface
var _ store.OutboxStore = (*PostgresOutboxStore)(nil)

// Enqueue implements store.OutboxStore.Enqueue
func (s *PostgresOutboxStore) Enqueue(ctx context.Context, record *store.OutboxRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO outbox (id, topic, key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Topic,
		record.Key,
		[]byte(record.Payload),
		record.CreatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to enqueue outbox record",
			slog.String("error", redact.Error(err)),
			slog.String("topic", record.Topic))
		return MapError(err)
	}
	return nil
}

// FetchPending implements store.OutboxStore.FetchPending
// Locked rows are skipped so concurrent fetches do not wait on each other.
// Two relays may still fetch the same record; delivery is at least once.
func (s *PostgresOutboxStore) FetchPending(ctx context.Context, limit int) ([]*store.OutboxRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, topic, key, payload, created_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to fetch pending outbox records", slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close outbox rows", slog.String("error", cerr.Error()))
		}
	}()

	records := make([]*store.OutboxRecord, 0, limit)
	for rows.Next() {
		var r store.OutboxRecord
		var payload []byte
		if err := rows.Scan(&r.ID, &r.Topic, &r.Key, &payload, &r.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		r.Payload = json.RawMessage(payload)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}

// MarkSent implements store.OutboxStore.MarkSent
func (s *PostgresOutboxStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE outbox SET sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "outbox record")
}
