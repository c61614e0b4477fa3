package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestNewSale(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()

	sale, err := NewSale(customerID, productID, 2, decimal.NewFromInt(30))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sale.State != SaleStateProposed {
		t.Errorf("Expected proposed state, got %s", sale.State)
	}
	if sale.ID == uuid.Nil {
		t.Error("Expected generated sale ID")
	}
	if sale.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
	if !sale.CreatedAt.Equal(sale.CreatedAt.Truncate(time.Microsecond)) {
		t.Errorf("Expected CreatedAt at microsecond precision, got %v", sale.CreatedAt)
	}

	sale.MarkCommitted()
	if sale.State != SaleStateCommitted {
		t.Errorf("Expected committed state, got %s", sale.State)
	}
}

func TestSaleValidate(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()

	tests := []struct {
		name       string
		customerID uuid.UUID
		productID  uuid.UUID
		quantity   int
		total      decimal.Decimal
		wantErr    error
	}{
		{"missing customer", uuid.Nil, productID, 1, decimal.NewFromInt(1), ErrInvalidID},
		{"missing product", customerID, uuid.Nil, 1, decimal.NewFromInt(1), ErrInvalidID},
		{"zero quantity", customerID, productID, 0, decimal.NewFromInt(1), ErrValidation},
		{"negative quantity", customerID, productID, -3, decimal.NewFromInt(1), ErrValidation},
		{"zero total", customerID, productID, 1, decimal.Zero, ErrValidation},
		{"negative total", customerID, productID, 1, decimal.NewFromInt(-5), ErrValidation},
		{"sub-cent total", customerID, productID, 1, decimal.RequireFromString("30.004"), ErrValidation},
		{"fraction of a cent", customerID, productID, 1, decimal.RequireFromString("0.001"), ErrValidation},
		{"total beyond ledger range", customerID, productID, 1, decimal.New(1, 13), ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSale(tc.customerID, tc.productID, tc.quantity, tc.total)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected every sale validation error to match ErrValidation, got %v", err)
			}
		})
	}
}
