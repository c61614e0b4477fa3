//go:build integration

package sale_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/postgres"
	"github.com/phrazzld/shop-api/internal/service/sale"
	"github.com/phrazzld/shop-api/internal/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pgFixture struct {
	uow   *postgres.UnitOfWork
	svc   sale.Service
	admin domain.Principal
}

func newPostgresFixture(t *testing.T) *pgFixture {
	db := testdb.GetTestDBWithT(t)
	testdb.ResetTables(t, db)
	t.Cleanup(func() { testdb.ResetTables(t, db) })

	uow := postgres.NewUnitOfWork(db, nil)
	svc, err := sale.NewService(uow, sale.Config{MaxRetries: 5, RetryBaseDelay: 5 * time.Millisecond}, nil, nil)
	require.NoError(t, err)

	return &pgFixture{
		uow:   uow,
		svc:   svc,
		admin: domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin},
	}
}

func (f *pgFixture) seed(t *testing.T, balance int64, stock int) (*domain.Account, *domain.Product) {
	t.Helper()
	ctx := context.Background()

	account, err := f.svc.CreateAccount(ctx, f.admin, sale.CreateAccountRequest{
		OpeningBalance: decimal.NewFromInt(balance),
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

func TestPostgresProcessSale_CommitsAllLedgers(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	account, product := f.seed(t, 50, 3)

	committed, err := f.svc.ProcessSale(ctx, customerFor(account.ID), sale.PurchaseRequest{
		CustomerID: account.ID,
		ProductID:  product.ID,
		Quantity:   2,
		TotalPrice: decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	l := f.uow.Ledgers()
	balance, err := l.Accounts.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(20)), balance.String())

	stock, err := l.Products.GetStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stock)

	stored, err := l.Sales.GetByID(ctx, committed.ID)
	require.NoError(t, err)
	assert.Equal(t, committed.ID, stored.ID)
	assert.Equal(t, committed.CustomerID, stored.CustomerID)
	assert.Equal(t, committed.ProductID, stored.ProductID)
	assert.Equal(t, committed.Quantity, stored.Quantity)
	assert.True(t, committed.TotalPrice.Equal(stored.TotalPrice), stored.TotalPrice.String())
	assert.True(t, committed.CreatedAt.Equal(stored.CreatedAt), "stored %v, returned %v", stored.CreatedAt, committed.CreatedAt)

	pending, err := l.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, account.ID.String(), pending[0].Key)
}

func TestPostgresProcessSale_FailureLeavesLedgersUntouched(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	account, product := f.seed(t, 10, 3)

	_, err := f.svc.ProcessSale(ctx, customerFor(account.ID), sale.PurchaseRequest{
		CustomerID: account.ID,
		ProductID:  product.ID,
		Quantity:   1,
		TotalPrice: decimal.NewFromInt(15),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	l := f.uow.Ledgers()
	balance, err := l.Accounts.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(10)))

	stock, err := l.Products.GetStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stock)

	history, err := f.svc.History(ctx, f.admin, account.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	pending, err := l.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPostgresProcessSale_ConcurrentPurchasesNeverOverdraw(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	account, product := f.seed(t, 100, 10)

	const buyers = 8
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.ProcessSale(ctx, customerFor(account.ID), sale.PurchaseRequest{
				CustomerID: account.ID,
				ProductID:  product.ID,
				Quantity:   1,
				TotalPrice: decimal.NewFromInt(30),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	}
	assert.Equal(t, 3, succeeded)

	l := f.uow.Ledgers()
	balance, err := l.Accounts.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(10)), balance.String())

	stock, err := l.Products.GetStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stock)

	history, err := f.svc.History(ctx, f.admin, account.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestPostgresMoneyOutsideColumnScaleIsRejected(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	account, product := f.seed(t, 50, 3)

	for _, total := range []string{"30.004", "0.001", "10000000000000"} {
		_, err := f.svc.ProcessSale(ctx, customerFor(account.ID), sale.PurchaseRequest{
			CustomerID: account.ID,
			ProductID:  product.ID,
			Quantity:   1,
			TotalPrice: decimal.RequireFromString(total),
		})
		assert.ErrorIs(t, err, domain.ErrValidation, total)
	}

	_, err := f.svc.CreditAccount(ctx, f.admin, account.ID, domain.MaxAmount)
	assert.ErrorIs(t, err, domain.ErrValidation, "credit past the maximum balance")

	l := f.uow.Ledgers()
	balance, err := l.Accounts.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(50)), balance.String())

	history, err := f.svc.History(ctx, f.admin, account.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
