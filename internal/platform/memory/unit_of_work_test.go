package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/memory"
	"github.com/phrazzld/shop-api/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, uow *memory.UnitOfWork, balance int64, stock int) (*domain.Account, *domain.Product) {
	t.Helper()
	ctx := context.Background()
	l := uow.Ledgers()

	account, err := domain.NewAccount(uuid.Nil, decimal.NewFromInt(balance))
	require.NoError(t, err)
	require.NoError(t, l.Accounts.Create(ctx, account))

	product, err := domain.NewProduct("Widget", domain.CategoryAccessories, decimal.NewFromInt(10), "", stock)
	require.NoError(t, err)
	require.NoError(t, l.Products.Create(ctx, product))

	return account, product
}

func TestUnitOfWork_CommitAppliesAllWrites(t *testing.T) {
	uow := memory.NewUnitOfWork(memory.NewDB())
	account, product := seed(t, uow, 100, 5)
	ctx := context.Background()

	var saleID uuid.UUID
	err := uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		if _, err := l.Accounts.AdjustBalance(ctx, account.ID, decimal.NewFromInt(-30)); err != nil {
			return err
		}
		if _, err := l.Products.AdjustStock(ctx, product.ID, -2); err != nil {
			return err
		}
		sale, err := domain.NewSale(account.ID, product.ID, 2, decimal.NewFromInt(30))
		if err != nil {
			return err
		}
		saleID = sale.ID
		if err := l.Sales.Create(ctx, sale); err != nil {
			return err
		}
		return l.Outbox.Enqueue(ctx, &store.OutboxRecord{Topic: "t", Key: "k", Payload: json.RawMessage(`{}`)})
	})
	require.NoError(t, err)

	l := uow.Ledgers()
	balance, err := l.Accounts.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(70)))

	stock, err := l.Products.GetStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stock)

	sale, err := l.Sales.GetByID(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStateCommitted, sale.State)

	pending, err := l.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestUnitOfWork_FailureDiscardsAllWrites(t *testing.T) {
	uow := memory.NewUnitOfWork(memory.NewDB())
	account, product := seed(t, uow, 100, 5)
	ctx := context.Background()

	err := uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		if _, err := l.Accounts.AdjustBalance(ctx, account.ID, decimal.NewFromInt(-30)); err != nil {
			return err
		}
		_, err := l.Products.AdjustStock(ctx, product.ID, -6)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	l := uow.Ledgers()
	balance, err := l.Accounts.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)), "debit must be rolled back")

	stock, err := l.Products.GetStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	sales, err := l.Sales.ListByCustomer(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestUnitOfWork_StagedSalesStayPrivateUntilCommit(t *testing.T) {
	uow := memory.NewUnitOfWork(memory.NewDB())
	account, product := seed(t, uow, 100, 5)
	ctx := context.Background()

	committed, err := domain.NewSale(account.ID, product.ID, 1, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, uow.Ledgers().Sales.Create(ctx, committed))

	rejected := errors.New("rejected after insert")
	err = uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		staged, err := domain.NewSale(account.ID, product.ID, 2, decimal.NewFromInt(20))
		if err != nil {
			return err
		}
		if err := l.Sales.Create(ctx, staged); err != nil {
			return err
		}

		got, err := l.Sales.GetByID(ctx, staged.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, got.Quantity)

		list, err := l.Sales.ListByCustomer(ctx, account.ID)
		if err != nil {
			return err
		}
		require.Len(t, list, 2)
		assert.Equal(t, committed.ID, list[0].ID)
		assert.Equal(t, staged.ID, list[1].ID)

		assert.ErrorIs(t, l.Sales.Create(ctx, staged), store.ErrDuplicate)
		return rejected
	})
	require.ErrorIs(t, err, rejected)

	list, err := uow.Ledgers().Sales.ListByCustomer(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, committed.ID, list[0].ID)

	err = uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		sale, err := domain.NewSale(account.ID, product.ID, 3, decimal.NewFromInt(30))
		if err != nil {
			return err
		}
		return l.Sales.Create(ctx, sale)
	})
	require.NoError(t, err)

	list, err = uow.Ledgers().Sales.ListByCustomer(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[1].Quantity)
}

func TestUnitOfWork_CancelledContextDiscardsWrites(t *testing.T) {
	uow := memory.NewUnitOfWork(memory.NewDB())
	account, _ := seed(t, uow, 100, 5)
	ctx, cancel := context.WithCancel(context.Background())

	err := uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		_, err := l.Accounts.AdjustBalance(ctx, account.ID, decimal.NewFromInt(-10))
		cancel()
		return err
	})
	require.ErrorIs(t, err, context.Canceled)

	balance, err := uow.Ledgers().Accounts.GetBalance(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))
}

func TestUnitOfWork_SerializesConcurrentDebits(t *testing.T) {
	uow := memory.NewUnitOfWork(memory.NewDB())
	account, _ := seed(t, uow, 100, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
				a, err := l.Accounts.GetForUpdate(ctx, account.ID)
				if err != nil {
					return err
				}
				if !a.CanCover(decimal.NewFromInt(60)) {
					return domain.ErrInsufficientFunds
				}
				time.Sleep(5 * time.Millisecond)
				_, err = l.Accounts.AdjustBalance(ctx, account.ID, decimal.NewFromInt(-60))
				return err
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, succeeded)

	balance, err := uow.Ledgers().Accounts.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(40)))
}

func TestUnitOfWork_PropagatesError(t *testing.T) {
	uow := memory.NewUnitOfWork(memory.NewDB())
	sentinel := errors.New("boom")

	err := uow.Do(context.Background(), func(ctx context.Context, l store.Ledgers) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}
