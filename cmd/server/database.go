package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/phrazzld/shop-api/internal/config"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/sethvargo/go-retry"
)

const (
	dbPingAttempts = 5
	dbPingTimeout  = 5 * time.Second
	dbPingBackoff  = 500 * time.Millisecond
)

// setupAppDatabase opens the pgx pool backing the ledgers and waits for
// Postgres to answer, backing off between pings so the server can start
// alongside a database container that is still booting.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute)

	backoff := retry.WithMaxRetries(dbPingAttempts-1, retry.NewExponential(dbPingBackoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		defer cancel()
		if perr := db.PingContext(pingCtx); perr != nil {
			logger.Warn("Database not ready", "attempt", attempt, "error", redact.Error(perr))
			return retry.RetryableError(perr)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
	}

	logger.Info("Ledger database ready",
		"attempts", attempt,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns)
	return db, nil
}
