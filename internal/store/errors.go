package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the memory and postgres ledgers. Callers match
// them with errors.Is; the API layer maps each to a stable error code.
var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity wraps validation and check-constraint failures.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed reports a begin, commit or rollback failure that
	// is not a write conflict.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrConflict marks a serialization failure or deadlock. The unit of
	// work that produced it can be replayed from the start.
	ErrConflict = errors.New("concurrent write conflict")

	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("%w: product", ErrNotFound)
	ErrSaleNotFound    = fmt.Errorf("%w: sale", ErrNotFound)

	ErrAccountExists = fmt.Errorf("%w: account", ErrDuplicate)
)

// IsNotFoundError reports whether err names a missing account, product or sale.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsConflictError reports whether err is worth retrying as a whole transaction.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}
