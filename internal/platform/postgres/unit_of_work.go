package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/shop-api/internal/store"
)

// UnitOfWork implements store.UnitOfWork on top of a PostgreSQL connection
// pool. Each Do call runs in its own READ COMMITTED transaction; callers take
// row locks with GetForUpdate to serialize conflicting writes.
type UnitOfWork struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUnitOfWork creates a UnitOfWork bound to db.
func NewUnitOfWork(db *sql.DB, logger *slog.Logger) *UnitOfWork {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitOfWork{db: db, logger: logger}
}

// Ensure UnitOfWork implements store.UnitOfWork interface
var _ store.UnitOfWork = (*UnitOfWork)(nil)

var txOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// Do implements store.UnitOfWork.Do
// Conflicts (serialization failures, deadlocks) are reported as store.ErrConflict.
func (u *UnitOfWork) Do(ctx context.Context, fn store.UnitOfWorkFn) error {
	err := store.RunInTransaction(ctx, u.db, txOptions, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, u.ledgers(tx))
	})
	if IsConflict(err) {
		return MapError(err)
	}
	return err
}

// Ledgers implements store.UnitOfWork.Ledgers
// The returned stores run each statement in its own implicit transaction.
func (u *UnitOfWork) Ledgers() store.Ledgers {
	return u.ledgers(u.db)
}

func (u *UnitOfWork) ledgers(db store.DBTX) store.Ledgers {
	return store.Ledgers{
		Accounts: NewPostgresAccountStore(db, u.logger),
		Products: NewPostgresProductStore(db, u.logger),
		Sales:    NewPostgresSaleStore(db, u.logger),
		Outbox:   NewPostgresOutboxStore(db, u.logger),
	}
}
