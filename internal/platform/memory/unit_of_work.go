package memory

import (
	"context"

	"github.com/phrazzld/shop-api/internal/store"
)

// UnitOfWork implements store.UnitOfWork over a DB. Units of work run one at
// a time; Do must not be called from inside another Do on the same DB.
type UnitOfWork struct {
	db *DB
}

var _ store.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork creates a UnitOfWork bound to db.
func NewUnitOfWork(db *DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do implements store.UnitOfWork.Do
// fn sees a staged copy of the database; the copy becomes the live state only
// if fn returns nil and ctx is still active.
func (u *UnitOfWork) Do(ctx context.Context, fn store.UnitOfWorkFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	work := u.db.st.clone()
	access := staged(work)
	ledgers := store.Ledgers{
		Accounts: &AccountStore{access: access},
		Products: &ProductStore{access: access},
		Sales:    &SaleStore{access: access},
		Outbox:   &OutboxStore{access: access},
	}

	if err := fn(ctx, ledgers); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	work.commitSales()
	u.db.st = work
	return nil
}

// Ledgers implements store.UnitOfWork.Ledgers
func (u *UnitOfWork) Ledgers() store.Ledgers {
	return store.Ledgers{
		Accounts: NewAccountStore(u.db),
		Products: NewProductStore(u.db),
		Sales:    NewSaleStore(u.db),
		Outbox:   NewOutboxStore(u.db),
	}
}
