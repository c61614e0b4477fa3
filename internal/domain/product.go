package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCategory groups products in the catalogue.
type ProductCategory string

// Supported product categories.
const (
	CategoryFood        ProductCategory = "Food"
	CategoryClothes     ProductCategory = "Clothes"
	CategoryAccessories ProductCategory = "Accessories"
	CategoryElectronics ProductCategory = "Electronics"
)

// IsValid reports whether c is one of the supported categories.
func (c ProductCategory) IsValid() bool {
	switch c {
	case CategoryFood, CategoryClothes, CategoryAccessories, CategoryElectronics:
		return true
	default:
		return false
	}
}

// Product is an item in the inventory. StockCount never goes negative.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    ProductCategory `json:"category"`
	UnitPrice   decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	StockCount  int             `json:"stock_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewProduct creates a product with a fresh UUID.
func NewProduct(
	name string,
	category ProductCategory,
	unitPrice decimal.Decimal,
	description string,
	stock int,
) (*Product, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	product := &Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Category:    category,
		UnitPrice:   unitPrice,
		Description: description,
		StockCount:  stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate checks if the Product has valid data.
func (p *Product) Validate() error {
	if p.ID == uuid.Nil {
		return NewValidationError("product_id", "cannot be empty", ErrInvalidID)
	}
	if p.Name == "" {
		return NewValidationError("name", "cannot be empty", nil)
	}
	if !p.Category.IsValid() {
		return NewValidationError("category", "is not a supported category", nil)
	}
	if !p.UnitPrice.IsPositive() {
		return NewValidationError("price", "must be greater than zero", nil)
	}
	if err := CheckAmount("price", p.UnitPrice); err != nil {
		return err
	}
	if p.StockCount < 0 {
		return NewValidationError("stock_count", "cannot be negative", nil)
	}
	return nil
}

// HasStock reports whether at least quantity units are available.
func (p *Product) HasStock(quantity int) bool {
	return p.StockCount >= quantity
}

// Apply adds delta to the stock count. A delta that would leave the stock
// negative returns ErrInsufficientStock and leaves the product unchanged.
func (p *Product) Apply(delta int, at time.Time) error {
	next := p.StockCount + delta
	if next < 0 {
		return ErrInsufficientStock
	}
	p.StockCount = next
	p.UpdatedAt = at
	return nil
}
