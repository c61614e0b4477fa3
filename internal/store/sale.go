package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
)

// SaleStore is the append-only sale ledger. It deliberately has no update
// or delete operation.
type SaleStore interface {
	// Create appends a sale record.
	// IMPORTANT: must run inside UnitOfWork.Do together with the matching
	// balance and stock adjustments.
	Create(ctx context.Context, sale *domain.Sale) error

	// GetByID retrieves a sale by its ID.
	// Returns ErrSaleNotFound if the sale does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)

	// ListByCustomer returns a customer's sales, oldest first.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Sale, error)
}
