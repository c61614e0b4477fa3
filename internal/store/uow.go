package store

import "context"

// Ledgers bundles the stores a unit of work operates on. Inside
// UnitOfWork.Do every store is bound to the same transaction.
type Ledgers struct {
	Accounts AccountStore
	Products ProductStore
	Sales    SaleStore
	Outbox   OutboxStore
}

// UnitOfWorkFn is executed atomically by UnitOfWork.Do.
type UnitOfWorkFn func(ctx context.Context, l Ledgers) error

// UnitOfWork runs a function against transaction-bound stores. All writes
// made through the Ledgers commit together if fn returns nil and are
// discarded otherwise; no partial state is visible to other readers.
type UnitOfWork interface {
	// Do runs fn in a new transaction. Write conflicts with concurrent
	// transactions surface as errors wrapping ErrConflict.
	Do(ctx context.Context, fn UnitOfWorkFn) error

	// Ledgers returns stores that operate outside any transaction, for
	// plain reads and single-statement writes.
	Ledgers() Ledgers
}
