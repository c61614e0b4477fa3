package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleState is the lifecycle position of a Sale. Only committed sales are
// ever visible outside the sale processor.
type SaleState string

// Sale states.
const (
	SaleStateProposed  SaleState = "proposed"
	SaleStateCommitted SaleState = "committed"
)

// Sale is an immutable ledger entry recording one purchase.
//
// TotalPrice is whatever the caller supplied; it is not recomputed from the
// product's unit price.
type Sale struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	State      SaleState       `json:"-"`
}

// NewSale builds a proposed sale. It is not durable until the sale
// processor commits it.
func NewSale(
	customerID, productID uuid.UUID,
	quantity int,
	totalPrice decimal.Decimal,
) (*Sale, error) {
	sale := &Sale{
		ID:         uuid.New(),
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: totalPrice,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		State:      SaleStateProposed,
	}

	if err := sale.Validate(); err != nil {
		return nil, err
	}

	return sale, nil
}

// Validate checks if the Sale has valid data.
func (s *Sale) Validate() error {
	if s.ID == uuid.Nil {
		return NewValidationError("sale_id", "cannot be empty", ErrInvalidID)
	}
	if s.CustomerID == uuid.Nil {
		return NewValidationError("customer_id", "is required", ErrInvalidID)
	}
	if s.ProductID == uuid.Nil {
		return NewValidationError("product_id", "is required", ErrInvalidID)
	}
	if s.Quantity <= 0 {
		return NewValidationError("quantity", "must be greater than zero", nil)
	}
	if !s.TotalPrice.IsPositive() {
		return NewValidationError("total_price", "must be greater than zero", nil)
	}
	return CheckAmount("total_price", s.TotalPrice)
}

// MarkCommitted moves the sale into its terminal state.
func (s *Sale) MarkCommitted() {
	s.State = SaleStateCommitted
}
