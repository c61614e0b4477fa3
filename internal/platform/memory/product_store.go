package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/store"
)

// ProductStore implements store.ProductStore in memory.
type ProductStore struct {
	access accessor
}

var _ store.ProductStore = (*ProductStore)(nil)

// NewProductStore returns a ProductStore operating directly on db.
func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{access: db.locked}
}

// Create implements store.ProductStore.Create
func (s *ProductStore) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	return s.access(ctx, func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return fmt.Errorf("%w: product", store.ErrDuplicate)
		}
		st.products[product.ID] = cloneProduct(product)
		return nil
	})
}

// GetByID implements store.ProductStore.GetByID
func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var out *domain.Product
	err := s.access(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return store.ErrProductNotFound
		}
		out = cloneProduct(p)
		return nil
	})
	return out, err
}

// GetForUpdate implements store.ProductStore.GetForUpdate
func (s *ProductStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.GetByID(ctx, id)
}

// List implements store.ProductStore.List
// Products are ordered by name, then ID, like the PostgreSQL store.
func (s *ProductStore) List(ctx context.Context) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0)
	err := s.access(ctx, func(st *state) error {
		for _, p := range st.products {
			products = append(products, cloneProduct(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID.String() < products[j].ID.String()
	})
	return products, nil
}

// GetStock implements store.ProductStore.GetStock
func (s *ProductStore) GetStock(ctx context.Context, id uuid.UUID) (int, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.StockCount, nil
}

// AdjustStock implements store.ProductStore.AdjustStock
func (s *ProductStore) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var stock int
	err := s.access(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return store.ErrProductNotFound
		}
		if err := p.Apply(delta, time.Now().UTC()); err != nil {
			return fmt.Errorf("adjust stock of product %s: %w", id, err)
		}
		stock = p.StockCount
		return nil
	})
	return stock, err
}
