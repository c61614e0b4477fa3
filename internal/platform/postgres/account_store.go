package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/phrazzld/shop-api/internal/store"
	"github.com/shopspring/decimal"
)

// PostgresAccountStore implements the store.AccountStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAccountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAccountStore creates a new PostgreSQL implementation of the AccountStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAccountStore(db store.DBTX, logger *slog.Logger) *PostgresAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAccountStore{
		db:     db,
		logger: logger.With(slog.String("component", "account_store")),
	}
}

// Ensure PostgresAccountStore implements store.AccountStore interface
var _ store.AccountStore = (*PostgresAccountStore)(nil)

const accountColumns = `id, balance, created_at, updated_at`

// Create implements store.AccountStore.Create
// Returns store.ErrAccountExists if an account with the same ID exists.
func (s *PostgresAccountStore) Create(ctx context.Context, account *domain.Account) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := account.Validate(); err != nil {
		log.Warn("account validation failed during create",
			slog.String("error", redact.Error(err)),
			slog.String("account_id", account.ID.String()))
		return err
	}

	query := `
		INSERT INTO accounts (id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("account already exists", slog.String("account_id", account.ID.String()))
			return MapUniqueViolation(err, store.ErrAccountExists)
		}
		log.Error("failed to create account",
			slog.String("error", redact.Error(err)),
			slog.String("account_id", account.ID.String()))
		return MapError(err)
	}

	log.Info("account created",
		slog.String("account_id", account.ID.String()),
		slog.String("balance", account.Balance.StringFixed(2)))
	return nil
}

// GetByID implements store.AccountStore.GetByID
// Returns store.ErrAccountNotFound if the account does not exist.
func (s *PostgresAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.get(ctx, id, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`)
}

// GetForUpdate implements store.AccountStore.GetForUpdate
// It takes a row lock that is held until the surrounding transaction ends.
func (s *PostgresAccountStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.get(ctx, id, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`)
}

func (s *PostgresAccountStore) get(ctx context.Context, id uuid.UUID, query string) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var account domain.Account
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("account not found", slog.String("account_id", id.String()))
			return nil, store.ErrAccountNotFound
		}
		log.Error("failed to get account",
			slog.String("error", redact.Error(err)),
			slog.String("account_id", id.String()))
		return nil, MapError(err)
	}

	return &account, nil
}

// GetBalance implements store.AccountStore.GetBalance
func (s *PostgresAccountStore) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, store.ErrAccountNotFound
		}
		return decimal.Zero, MapError(err)
	}
	return balance, nil
}

// AdjustBalance implements store.AccountStore.AdjustBalance
// The balance is changed in a single UPDATE so concurrent adjustments never
// lose writes; the accounts_balance_non_negative constraint rejects overdrafts
// with domain.ErrInsufficientFunds.
func (s *PostgresAccountStore) AdjustBalance(
	ctx context.Context,
	id uuid.UUID,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = $3
		WHERE id = $1
		RETURNING balance
	`
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, query, id, delta, time.Now().UTC()).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, store.ErrAccountNotFound
		}
		if hasCode(err, numericOverflowCode) {
			return decimal.Zero, domain.NewValidationError("amount", "would exceed the maximum balance", nil)
		}
		mapped := MapError(err)
		if errors.Is(mapped, domain.ErrInsufficientFunds) {
			log.Warn("balance adjustment rejected",
				slog.String("account_id", id.String()),
				slog.String("delta", delta.String()))
			return decimal.Zero, fmt.Errorf("adjust balance of account %s: %w", id, domain.ErrInsufficientFunds)
		}
		log.Error("failed to adjust balance",
			slog.String("error", redact.Error(err)),
			slog.String("account_id", id.String()))
		return decimal.Zero, mapped
	}

	log.Debug("balance adjusted",
		slog.String("account_id", id.String()),
		slog.String("delta", delta.String()),
		slog.String("balance", balance.String()))
	return balance, nil
}
