package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a customer's wallet. Its balance is only changed through
// debits and credits and never drops below zero.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount creates an account with the given opening balance.
// A zero id generates a fresh UUID.
func NewAccount(id uuid.UUID, openingBalance decimal.Decimal) (*Account, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	account := &Account{
		ID:        id,
		Balance:   openingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// Validate checks if the Account has valid data.
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return NewValidationError("account_id", "cannot be empty", ErrInvalidID)
	}
	if a.Balance.IsNegative() {
		return NewValidationError("balance", "cannot be negative", nil)
	}
	return CheckAmount("balance", a.Balance)
}

// CanCover reports whether the balance is at least amount.
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Apply adds delta to the balance. A delta that would leave the balance
// negative returns ErrInsufficientFunds, and one that would overflow
// MaxAmount returns a ValidationError; either way the account is unchanged.
func (a *Account) Apply(delta decimal.Decimal, at time.Time) error {
	next := a.Balance.Add(delta)
	if next.IsNegative() {
		return ErrInsufficientFunds
	}
	if next.GreaterThan(MaxAmount) {
		return NewValidationError("amount", "would exceed the maximum balance", nil)
	}
	a.Balance = next
	a.UpdatedAt = at
	return nil
}
