package sale_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/events"
	"github.com/phrazzld/shop-api/internal/platform/memory"
	"github.com/phrazzld/shop-api/internal/platform/metrics"
	"github.com/phrazzld/shop-api/internal/service/sale"
	"github.com/phrazzld/shop-api/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uow     *memory.UnitOfWork
	svc     sale.Service
	metrics *metrics.Metrics
	admin   domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	uow := memory.NewUnitOfWork(memory.NewDB())
	m := metrics.New()
	svc, err := sale.NewService(uow, sale.Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond, Topic: "test.sales"}, m, nil)
	require.NoError(t, err)
	return &fixture{
		uow:     uow,
		svc:     svc,
		metrics: m,
		admin:   domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin},
	}
}

func (f *fixture) seed(t *testing.T, balance string, stock int) (*domain.Account, *domain.Product) {
	t.Helper()
	ctx := context.Background()

	account, err := f.svc.CreateAccount(ctx, f.admin, sale.CreateAccountRequest{
		OpeningBalance: decimal.RequireFromString(balance),
	})
	require.NoError(t, err)

	product, err := f.svc.CreateProduct(ctx, f.admin, sale.CreateProductRequest{
		Name:      "Headphones",
		Category:  domain.CategoryElectronics,
		UnitPrice: decimal.NewFromInt(15),
		Stock:     stock,
	})
	require.NoError(t, err)

	return account, product
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	b, err := f.uow.Ledgers().Accounts.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	s, err := f.uow.Ledgers().Products.GetStock(context.Background(), id)
	require.NoError(t, err)
	return s
}

func customerFor(id uuid.UUID) domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleCustomer, CustomerID: id}
}

func TestProcessSale_WorkedExample(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	account, product := f.seed(t, "50", 3)

	got, err := f.svc.ProcessSale(context.Background(), customerFor(account.ID), sale.PurchaseRequest{
		CustomerID: account.ID,
		ProductID:  product.ID,
		Quantity:   2,
		TotalPrice: decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStateCommitted, got.State)
	assert.Equal(t, account.ID, got.CustomerID)
	assert.Equal(t, product.ID, got.ProductID)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(30)))

	assert.True(t, f.balance(t, account.ID).Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 1, f.stock(t, product.ID))

	stored, err := f.uow.Ledgers().Sales.GetByID(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)
	assert.True(t, stored.TotalPrice.Equal(decimal.NewFromInt(30)))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Sales.WithLabelValues(metrics.OutcomeCommitted)))
}

func TestProcessSale_Arithmetic(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	account, product := f.seed(t, "100.50", 10)
	ctx := context.Background()
	p := customerFor(account.ID)

	purchases := []struct {
		qty   int
		total string
	}{
		{1, "10.25"},
		{3, "30.00"},
		{2, "0.25"},
	}

	wantBalance := decimal.RequireFromString("100.50")
	wantStock := 10
	for _, pc := range purchases {
		total := decimal.RequireFromString(pc.total)
		_, err := f.svc.ProcessSale(ctx, p, sale.PurchaseRequest{
			CustomerID: account.ID, ProductID: product.ID, Quantity: pc.qty, TotalPrice: total,
		})
		require.NoError(t, err)

		wantBalance = wantBalance.Sub(total)
		wantStock -= pc.qty
		assert.True(t, f.balance(t, account.ID).Equal(wantBalance), "balance after %s", pc.total)
		assert.Equal(t, wantStock, f.stock(t, product.ID))
	}

	history, err := f.svc.History(ctx, p, account.ID)
	require.NoError(t, err)
	assert.Len(t, history, len(purchases))
}

func TestProcessSale_FailuresLeaveLedgersUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		qty     int
		total   string
		wantErr error
	}{
		{"total exceeds balance", 1, "50.01", domain.ErrInsufficientFunds},
		{"quantity exceeds stock", 4, "10", domain.ErrInsufficientStock},
		{"zero quantity", 0, "10", domain.ErrValidation},
		{"non positive total", 1, "0", domain.ErrValidation},
		{"sub-cent total", 2, "30.004", domain.ErrValidation},
		{"fraction of a cent", 1, "0.001", domain.ErrValidation},
		{"total beyond ledger range", 1, "10000000000000", domain.ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			account, product := f.seed(t, "50", 3)

			_, err := f.svc.ProcessSale(context.Background(), customerFor(account.ID), sale.PurchaseRequest{
				CustomerID: account.ID,
				ProductID:  product.ID,
				Quantity:   tc.qty,
				TotalPrice: decimal.RequireFromString(tc.total),
			})
			require.ErrorIs(t, err, tc.wantErr)

			assert.True(t, f.balance(t, account.ID).Equal(decimal.NewFromInt(50)))
			assert.Equal(t, 3, f.stock(t, product.ID))

			sales, err := f.uow.Ledgers().Sales.ListByCustomer(context.Background(), account.ID)
			require.NoError(t, err)
			assert.Empty(t, sales)

			pending, err := f.uow.Ledgers().Outbox.FetchPending(context.Background(), 10)
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestProcessSale_MissingEntities(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	account, product := f.seed(t, "50", 3)
	ctx := context.Background()

	_, err := f.svc.ProcessSale(ctx, f.admin, sale.PurchaseRequest{
		CustomerID: uuid.New(), ProductID: product.ID, Quantity: 1, TotalPrice: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, sale.ErrCustomerNotFound)

	_, err = f.svc.ProcessSale(ctx, f.admin, sale.PurchaseRequest{
		CustomerID: account.ID, ProductID: uuid.New(), Quantity: 1, TotalPrice: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, sale.ErrProductNotFound)

	assert.True(t, f.balance(t, account.ID).Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Sales.WithLabelValues(metrics.OutcomeNotFound)))
}

func TestProcessSale_Authorization(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	account, product := f.seed(t, "50", 3)
	ctx := context.Background()
	req := sale.PurchaseRequest{
		CustomerID: account.ID, ProductID: product.ID, Quantity: 1, TotalPrice: decimal.NewFromInt(5),
	}

	_, err := f.svc.ProcessSale(ctx, customerFor(uuid.New()), req)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.ProcessSale(ctx, domain.Principal{}, req)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.ProcessSale(ctx, f.admin, req)
	assert.NoError(t, err, "admins may purchase for any customer")

	assert.True(t, f.balance(t, account.ID).Equal(decimal.NewFromInt(45)))
}

func TestProcessSale_ConcurrentPurchasesOneWins(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	account, product := f.seed(t, "100", 10)
	p := customerFor(account.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.ProcessSale(context.Background(), p, sale.PurchaseRequest{
				CustomerID: account.ID, ProductID: product.ID, Quantity: 1, TotalPrice: decimal.NewFromInt(60),
			})
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.True(t, f.balance(t, account.ID).Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 9, f.stock(t, product.ID))
}

func TestProcessSale_SaleRecordsAreNotMutated(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	account, product := f.seed(t, "100", 10)
	ctx := context.Background()
	p := customerFor(account.ID)

	first, err := f.svc.ProcessSale(ctx, p, sale.PurchaseRequest{
		CustomerID: account.ID, ProductID: product.ID, Quantity: 1, TotalPrice: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	before, err := f.svc.GetSale(ctx, p, first.ID)
	require.NoError(t, err)

	// Later sales and a returned copy being modified must not change the record.
	first.Quantity = 99
	_, err = f.svc.ProcessSale(ctx, p, sale.PurchaseRequest{
		CustomerID: account.ID, ProductID: product.ID, Quantity: 2, TotalPrice: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	_, err = f.svc.CreditAccount(ctx, f.admin, account.ID, decimal.NewFromInt(5))
	require.NoError(t, err)

	after, err := f.svc.GetSale(ctx, p, before.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestProcessSale_EnqueuesSaleCommittedEvent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	account, product := f.seed(t, "50", 3)

	got, err := f.svc.ProcessSale(context.Background(), customerFor(account.ID), sale.PurchaseRequest{
		CustomerID: account.ID, ProductID: product.ID, Quantity: 2, TotalPrice: decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	pending, err := f.uow.Ledgers().Outbox.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "test.sales", pending[0].Topic)
	assert.Equal(t, account.ID.String(), pending[0].Key)

	var event events.Event
	require.NoError(t, json.Unmarshal(pending[0].Payload, &event))
	assert.Equal(t, events.TypeSaleCommitted, event.Type)
	assert.Equal(t, pending[0].ID, event.ID)

	var payload events.SaleCommitted
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, got.ID, payload.SaleID)
	assert.Equal(t, 1, payload.RemainingStock)
	assert.True(t, payload.RemainingBalance.Equal(decimal.NewFromInt(20)))
}

// conflictingUoW fails the first n units of work with a write conflict.
type conflictingUoW struct {
	store.UnitOfWork
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (u *conflictingUoW) Do(ctx context.Context, fn store.UnitOfWorkFn) error {
	u.mu.Lock()
	u.calls++
	fail := u.calls <= u.conflicts
	u.mu.Unlock()
	if fail {
		return store.ErrConflict
	}
	return u.UnitOfWork.Do(ctx, fn)
}

func TestProcessSale_RetriesConflicts(t *testing.T) {
	t.Parallel()

	seedFixture := newFixture(t)
	account, product := seedFixture.seed(t, "50", 3)
	req := sale.PurchaseRequest{
		CustomerID: account.ID, ProductID: product.ID, Quantity: 1, TotalPrice: decimal.NewFromInt(10),
	}

	t.Run("succeeds within retry budget", func(t *testing.T) {
		uow := &conflictingUoW{UnitOfWork: seedFixture.uow, conflicts: 2}
		m := metrics.New()
		svc, err := sale.NewService(uow, sale.Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, m, nil)
		require.NoError(t, err)

		_, err = svc.ProcessSale(context.Background(), seedFixture.admin, req)
		require.NoError(t, err)
		assert.Equal(t, 3, uow.calls)
		assert.Equal(t, 2.0, testutil.ToFloat64(m.SaleRetries))
	})

	t.Run("surfaces conflict when exhausted", func(t *testing.T) {
		uow := &conflictingUoW{UnitOfWork: seedFixture.uow, conflicts: 100}
		m := metrics.New()
		svc, err := sale.NewService(uow, sale.Config{MaxRetries: 2, RetryBaseDelay: time.Millisecond}, m, nil)
		require.NoError(t, err)

		_, err = svc.ProcessSale(context.Background(), seedFixture.admin, req)
		require.ErrorIs(t, err, sale.ErrTransactionConflict)
		assert.Equal(t, 3, uow.calls)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Sales.WithLabelValues(metrics.OutcomeConflict)))
	})
}

func TestNewService_Validation(t *testing.T) {
	t.Parallel()

	_, err := sale.NewService(nil, sale.Config{}, nil, nil)
	assert.Error(t, err)

	_, err = sale.NewService(memory.NewUnitOfWork(memory.NewDB()), sale.Config{MaxRetries: -1}, nil, nil)
	assert.Error(t, err)
}
