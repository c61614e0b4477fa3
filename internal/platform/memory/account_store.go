package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/store"
	"github.com/shopspring/decimal"
)

// AccountStore implements store.AccountStore in memory.
type AccountStore struct {
	access accessor
}

var _ store.AccountStore = (*AccountStore)(nil)

// NewAccountStore returns an AccountStore operating directly on db.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{access: db.locked}
}

// Create implements store.AccountStore.Create
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	return s.access(ctx, func(st *state) error {
		if _, ok := st.accounts[account.ID]; ok {
			return store.ErrAccountExists
		}
		st.accounts[account.ID] = cloneAccount(account)
		return nil
	})
}

// GetByID implements store.AccountStore.GetByID
func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var out *domain.Account
	err := s.access(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return store.ErrAccountNotFound
		}
		out = cloneAccount(a)
		return nil
	})
	return out, err
}

// GetForUpdate implements store.AccountStore.GetForUpdate
// Units of work are already serialized, so no additional lock is taken.
func (s *AccountStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.GetByID(ctx, id)
}

// GetBalance implements store.AccountStore.GetBalance
func (s *AccountStore) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Balance, nil
}

// AdjustBalance implements store.AccountStore.AdjustBalance
func (s *AccountStore) AdjustBalance(
	ctx context.Context,
	id uuid.UUID,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.access(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return store.ErrAccountNotFound
		}
		if err := a.Apply(delta, time.Now().UTC()); err != nil {
			return fmt.Errorf("adjust balance of account %s: %w", id, err)
		}
		balance = a.Balance
		return nil
	})
	return balance, err
}
