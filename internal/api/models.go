package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/shopspring/decimal"
)

// PurchaseRequest defines the payload for POST /sales/purchase.
// TotalPrice is taken as supplied; the server does not recompute it.
type PurchaseRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" validate:"required"`
	ProductID  uuid.UUID       `json:"product_id"  validate:"required"`
	Quantity   int             `json:"quantity"    validate:"gt=0"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CreateAccountRequest defines the payload for POST /api/accounts.
type CreateAccountRequest struct {
	ID             uuid.UUID       `json:"id,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// CreditRequest defines the payload for POST /api/accounts/{id}/credit.
type CreditRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreateProductRequest defines the payload for POST /api/products.
type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required,max=200"`
	Category    string          `json:"category"    validate:"required,oneof=Food Clothes Accessories Electronics"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"max=2000"`
	StockCount  int             `json:"stock_count" validate:"gte=0"`
}

// RestockRequest defines the payload for POST /api/products/{id}/restock.
type RestockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// SaleResponse represents a committed sale.
type SaleResponse struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ProductSummary is the catalogue listing entry.
type ProductSummary struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductResponse is the full product detail.
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	StockCount  int             `json:"stock_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AccountResponse represents a customer account.
type AccountResponse struct {
	ID        uuid.UUID       `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func saleToResponse(s *domain.Sale) SaleResponse {
	return SaleResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		ProductID:  s.ProductID,
		Quantity:   s.Quantity,
		TotalPrice: s.TotalPrice,
		CreatedAt:  s.CreatedAt,
	}
}

func salesToResponse(sales []*domain.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, saleToResponse(s))
	}
	return out
}

func productToResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Price:       p.UnitPrice,
		Description: p.Description,
		StockCount:  p.StockCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func productsToSummary(products []*domain.Product) []ProductSummary {
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, ProductSummary{ID: p.ID, Name: p.Name, Price: p.UnitPrice})
	}
	return out
}

func accountToResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
