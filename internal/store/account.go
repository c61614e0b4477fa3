package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountStore is the account ledger: customer balances.
type AccountStore interface {
	// Create saves a new account.
	// Returns ErrAccountExists if the ID is taken.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account without locking it.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetForUpdate retrieves an account and locks its row until the
	// surrounding transaction ends. Only meaningful inside UnitOfWork.Do.
	// Returns ErrAccountNotFound if the account does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetBalance returns the current balance.
	// Returns ErrAccountNotFound if the account does not exist.
	GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)

	// AdjustBalance adds delta (which may be negative) to the balance and
	// returns the new balance. Returns domain.ErrInsufficientFunds if the
	// result would be negative, ErrAccountNotFound if the account is missing.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}
