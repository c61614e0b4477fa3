// Package postgres backs the store ledgers with PostgreSQL through the pgx
// database/sql driver.
//
// Accounts, products, sales and outbox events each have a store that runs
// against a store.DBTX, so the same code serves a pooled *sql.DB and an open
// transaction. UnitOfWork opens a READ COMMITTED transaction per call, hands
// the callback tx-scoped stores, and maps serialization failures and
// deadlocks to store.ErrConflict. Balance and stock changes are applied in
// place by a single UPDATE, and non-negative check constraints turn an
// overdraft into domain.ErrInsufficientFunds or domain.ErrInsufficientStock.
//
// Schema changes live in migrations/ and are applied with goose via Migrate.
package postgres
