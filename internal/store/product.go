package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
)

// ProductStore is the stock ledger: product catalogue and inventory counts.
type ProductStore interface {
	// Create saves a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product without locking it.
	// Returns ErrProductNotFound if the product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// GetForUpdate retrieves a product and locks its row until the
	// surrounding transaction ends.
	// Returns ErrProductNotFound if the product does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// List returns all products ordered by name.
	List(ctx context.Context) ([]*domain.Product, error)

	// GetStock returns the current stock count.
	// Returns ErrProductNotFound if the product does not exist.
	GetStock(ctx context.Context, id uuid.UUID) (int, error)

	// AdjustStock adds delta (which may be negative) to the stock count and
	// returns the new count. Returns domain.ErrInsufficientStock if the
	// result would be negative, ErrProductNotFound if the product is missing.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
}
