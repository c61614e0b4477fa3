package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/store"
)

// SaleStore implements store.SaleStore in memory. Stored sales are copies,
// so callers cannot mutate the ledger through returned values.
type SaleStore struct {
	access accessor
}

var _ store.SaleStore = (*SaleStore)(nil)

// NewSaleStore returns a SaleStore operating directly on db.
func NewSaleStore(db *DB) *SaleStore {
	return &SaleStore{access: db.locked}
}

// Create implements store.SaleStore.Create
// Returns store.ErrInvalidEntity if the customer or product does not exist.
func (s *SaleStore) Create(ctx context.Context, sale *domain.Sale) error {
	if err := sale.Validate(); err != nil {
		return err
	}
	return s.access(ctx, func(st *state) error {
		if _, ok := st.sale(sale.ID); ok {
			return fmt.Errorf("%w: sale", store.ErrDuplicate)
		}
		if _, ok := st.accounts[sale.CustomerID]; !ok {
			return fmt.Errorf("%w: customer %s does not exist", store.ErrInvalidEntity, sale.CustomerID)
		}
		if _, ok := st.products[sale.ProductID]; !ok {
			return fmt.Errorf("%w: product %s does not exist", store.ErrInvalidEntity, sale.ProductID)
		}
		stored := cloneSale(sale)
		stored.State = domain.SaleStateCommitted
		st.appendSale(stored)
		return nil
	})
}

// GetByID implements store.SaleStore.GetByID
func (s *SaleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	var out *domain.Sale
	err := s.access(ctx, func(st *state) error {
		sale, ok := st.sale(id)
		if !ok {
			return store.ErrSaleNotFound
		}
		out = cloneSale(sale)
		return nil
	})
	return out, err
}

// ListByCustomer implements store.SaleStore.ListByCustomer
// Sales are returned in insertion order.
func (s *SaleStore) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Sale, error) {
	sales := make([]*domain.Sale, 0)
	err := s.access(ctx, func(st *state) error {
		st.eachSale(func(sale *domain.Sale) {
			if sale.CustomerID == customerID {
				sales = append(sales, cloneSale(sale))
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sales, nil
}
