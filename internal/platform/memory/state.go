package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/store"
)

// state holds the database contents. The sale ledger is append-only, so a
// staged copy shares sales and saleOrder with the committed state and keeps
// its own inserts in added until commitSales folds them in. outbox holds
// only undelivered records.
type state struct {
	accounts  map[uuid.UUID]*domain.Account
	products  map[uuid.UUID]*domain.Product
	sales     map[uuid.UUID]*domain.Sale
	saleOrder []*domain.Sale
	added     []*domain.Sale
	outbox    []*store.OutboxRecord
}

func newState() *state {
	return &state{
		accounts: make(map[uuid.UUID]*domain.Account),
		products: make(map[uuid.UUID]*domain.Product),
		sales:    make(map[uuid.UUID]*domain.Sale),
	}
}

// clone copies accounts, products and pending outbox records. The sale
// ledger is shared rather than copied, so a unit of work costs nothing per
// historical sale.
func (s *state) clone() *state {
	c := &state{
		accounts:  make(map[uuid.UUID]*domain.Account, len(s.accounts)),
		products:  make(map[uuid.UUID]*domain.Product, len(s.products)),
		sales:     s.sales,
		saleOrder: s.saleOrder,
		outbox:    make([]*store.OutboxRecord, len(s.outbox)),
	}
	for id, a := range s.accounts {
		c.accounts[id] = cloneAccount(a)
	}
	for id, p := range s.products {
		c.products[id] = cloneProduct(p)
	}
	for i, r := range s.outbox {
		c.outbox[i] = cloneRecord(r)
	}
	return c
}

func (s *state) sale(id uuid.UUID) (*domain.Sale, bool) {
	for _, sale := range s.added {
		if sale.ID == id {
			return sale, true
		}
	}
	sale, ok := s.sales[id]
	return sale, ok
}

func (s *state) appendSale(sale *domain.Sale) {
	s.added = append(s.added, sale)
}

// eachSale visits sales in insertion order, staged ones last.
func (s *state) eachSale(fn func(*domain.Sale)) {
	for _, sale := range s.saleOrder {
		fn(sale)
	}
	for _, sale := range s.added {
		fn(sale)
	}
}

// commitSales moves staged sales into the shared ledger. Callers hold the
// database lock.
func (s *state) commitSales() {
	for _, sale := range s.added {
		s.sales[sale.ID] = sale
		s.saleOrder = append(s.saleOrder, sale)
	}
	s.added = nil
}

// accessor runs fn against a state. Outside a unit of work it takes the
// database lock; inside one the lock is already held by Do.
type accessor func(ctx context.Context, fn func(*state) error) error

// DB is the shared in-memory database.
type DB struct {
	mu sync.Mutex
	st *state
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{st: newState()}
}

func (db *DB) locked(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := fn(db.st); err != nil {
		db.st.added = nil
		return err
	}
	db.st.commitSales()
	return nil
}

func staged(st *state) accessor {
	return func(ctx context.Context, fn func(*state) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(st)
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func cloneProduct(p *domain.Product) *domain.Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneSale(s *domain.Sale) *domain.Sale {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneRecord(r *store.OutboxRecord) *store.OutboxRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Payload = append([]byte(nil), r.Payload...)
	if r.SentAt != nil {
		at := *r.SentAt
		c.SentAt = &at
	}
	return &c
}
