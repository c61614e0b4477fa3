package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/redact"
)

// TxFn is a function that executes within a database transaction.
// Returning nil commits the transaction; returning an error rolls it back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn inside a transaction begun with opts, or the
// driver defaults when opts is nil.
//
// Begin and commit failures wrap ErrTransactionFailed together with the
// driver error, so callers can still classify the cause (a serialization
// failure may surface only at commit). An error from fn is returned as is,
// joined with the rollback error if the rollback fails too. A panic in fn
// rolls the transaction back and is re-raised.
func RunInTransaction(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFn) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", redact.Error(err)))
		return fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction after panic",
				slog.String("error", redact.Error(rbErr)),
				slog.Any("panic", p))
		}
		// ALLOW-PANIC: the caller's panic is propagated after cleanup
		panic(p)
	}()

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", redact.Error(rbErr)),
				slog.String("error", redact.Error(err)))
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		log.Debug("transaction rolled back", slog.String("error", redact.Error(err)))
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Warn("failed to commit transaction", slog.String("error", redact.Error(err)))
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}
	return nil
}
