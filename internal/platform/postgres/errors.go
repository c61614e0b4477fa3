package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/store"
)

// PostgreSQL SQLSTATE codes the stores react to.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"

	// numericOverflowCode is raised when an amount exceeds NUMERIC(14,2)
	numericOverflowCode = "22003"

	// restrictViolationCode is raised by the sales append-only trigger
	restrictViolationCode = "23001"

	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
	lockNotAvailableCode     = "55P03"
)

// codeErrors maps SQLSTATE codes to the store sentinel they represent.
var codeErrors = map[string]error{
	serializationFailureCode: store.ErrConflict,
	deadlockDetectedCode:     store.ErrConflict,
	lockNotAvailableCode:     store.ErrConflict,
	uniqueViolationCode:      store.ErrDuplicate,
	foreignKeyViolationCode:  store.ErrInvalidEntity,
	checkViolationCode:       store.ErrInvalidEntity,
	notNullViolationCode:     store.ErrInvalidEntity,
	restrictViolationCode:    store.ErrInvalidEntity,
	numericOverflowCode:      store.ErrInvalidEntity,
}

// constraintErrors maps named CHECK constraints to the domain error they enforce.
var constraintErrors = map[string]error{
	"accounts_balance_non_negative": domain.ErrInsufficientFunds,
	"products_stock_non_negative":   domain.ErrInsufficientStock,
}

// pgError extracts the driver error, if any.
func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	ok := errors.As(err, &pgErr)
	return pgErr, ok
}

func hasCode(err error, code string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == code
}

// MapError translates a driver error into a store or domain sentinel.
// The driver error is kept as text only, so callers cannot reach pgconn
// details through errors.As. Unknown errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	pgErr, ok := pgError(err)
	if !ok {
		return err
	}

	if pgErr.Code == checkViolationCode {
		if domainErr, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %v", domainErr, err)
		}
	}

	sentinel, ok := codeErrors[pgErr.Code]
	if !ok {
		return err
	}
	if detail := pgErr.ConstraintName; detail != "" {
		return fmt.Errorf("%w (%s): %v", sentinel, detail, err)
	}
	if detail := pgErr.ColumnName; detail != "" {
		return fmt.Errorf("%w (%s): %v", sentinel, detail, err)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolationCode)
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolationCode)
}

// IsConflict reports whether err is a serialization failure, a deadlock or a
// lock timeout. The transaction that hit it may be retried as a whole.
func IsConflict(err error) bool {
	pgErr, ok := pgError(err)
	return ok && codeErrors[pgErr.Code] == store.ErrConflict
}

// CheckRowsAffected returns store.ErrNotFound when an UPDATE touched no row.
func CheckRowsAffected(result sql.Result, entityName string) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if entityName == "" {
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: %s not found", store.ErrNotFound, entityName)
	}
	return nil
}

// MapUniqueViolation wraps a unique violation in specific, which must itself
// wrap store.ErrDuplicate. Other errors are returned unchanged.
func MapUniqueViolation(err error, specific error) error {
	if !IsUniqueViolation(err) {
		return err
	}
	return fmt.Errorf("%w: %v", specific, err)
}
