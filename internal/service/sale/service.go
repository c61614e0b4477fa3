// Package sale implements the sale processor: it validates a purchase
// against the account and stock ledgers and commits the debit, the stock
// decrement and the sale record atomically. It also hosts the catalogue,
// history and administrative ledger operations exposed by the API.
package sale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/shopspring/decimal"
)

// PurchaseRequest asks for quantity units of a product to be bought from a
// customer's account for TotalPrice.
type PurchaseRequest struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	TotalPrice decimal.Decimal
}

// CreateAccountRequest opens a customer account. A zero ID generates one.
type CreateAccountRequest struct {
	ID             uuid.UUID
	OpeningBalance decimal.Decimal
}

// CreateProductRequest adds a product to the catalogue.
type CreateProductRequest struct {
	Name        string
	Category    domain.ProductCategory
	UnitPrice   decimal.Decimal
	Description string
	Stock       int
}

// Config tunes the sale processor.
type Config struct {
	// MaxRetries bounds how often a conflicting unit of work is re-run.
	MaxRetries int
	// RetryBaseDelay is the first backoff delay; later ones double.
	RetryBaseDelay time.Duration
	// Topic is the outbox topic for sale.committed events.
	Topic string
}

// Service defines the sale workflow and the ledger operations around it.
// Every call takes the authenticated principal explicitly.
type Service interface {
	// ProcessSale validates and commits a purchase. It returns the committed
	// sale, or one of: a *domain.ValidationError, domain.ErrUnauthorized,
	// domain.ErrForbidden, ErrCustomerNotFound, ErrProductNotFound,
	// domain.ErrInsufficientFunds, domain.ErrInsufficientStock or
	// ErrTransactionConflict. On error no ledger has changed.
	ProcessSale(ctx context.Context, p domain.Principal, req PurchaseRequest) (*domain.Sale, error)

	// ListProducts returns the catalogue ordered by name.
	ListProducts(ctx context.Context, p domain.Principal) ([]*domain.Product, error)

	// GetProduct returns a single product.
	GetProduct(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Product, error)

	// History returns a customer's sales, oldest first.
	History(ctx context.Context, p domain.Principal, customerID uuid.UUID) ([]*domain.Sale, error)

	// GetSale returns a single sale visible to the principal. A sale owned by
	// another customer is reported as ErrSaleNotFound.
	GetSale(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Sale, error)

	// CreateAccount opens an account. Admin only.
	CreateAccount(ctx context.Context, p domain.Principal, req CreateAccountRequest) (*domain.Account, error)

	// GetAccount returns an account to an admin or its owner.
	GetAccount(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Account, error)

	// CreditAccount tops up an account balance. Admin only.
	CreditAccount(ctx context.Context, p domain.Principal, id uuid.UUID, amount decimal.Decimal) (*domain.Account, error)

	// CreateProduct adds a product. Admin only.
	CreateProduct(ctx context.Context, p domain.Principal, req CreateProductRequest) (*domain.Product, error)

	// RestockProduct adds units to a product's stock. Admin only.
	RestockProduct(ctx context.Context, p domain.Principal, id uuid.UUID, quantity int) (*domain.Product, error)
}
