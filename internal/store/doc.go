// Package store declares the ledgers the sale service writes to: accounts,
// products, the append-only sale log and the event outbox.
//
// A UnitOfWork hands a callback one consistent set of these ledgers and
// commits everything it wrote or nothing. The memory and postgres packages
// provide the two implementations.
package store
