package memory_test

import (
	"context"
	"encoding/json"
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

func TestAccountStore(t *testing.T) {
	ctx := context.Background()
	s := memory.NewAccountStore(memory.NewDB())

	account, err := domain.NewAccount(uuid.Nil, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, account))

	assert.ErrorIs(t, s.Create(ctx, account), store.ErrAccountExists)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	balance, err := s.AdjustBalance(ctx, account.ID, decimal.NewFromInt(-20))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(30)))

	_, err = s.AdjustBalance(ctx, account.ID, decimal.NewFromInt(-31))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	balance, err = s.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(30)), "rejected debit must not change the balance")

	got, err := s.GetByID(ctx, account.ID)
	require.NoError(t, err)
	got.Balance = decimal.NewFromInt(1_000_000)
	balance, err = s.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(30)), "returned accounts are copies")
}

func TestProductStore(t *testing.T) {
	ctx := context.Background()
	s := memory.NewProductStore(memory.NewDB())

	b, err := domain.NewProduct("Banana", domain.CategoryFood, decimal.RequireFromString("0.25"), "", 10)
	require.NoError(t, err)
	a, err := domain.NewProduct("Apple", domain.CategoryFood, decimal.RequireFromString("0.50"), "", 4)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, b))
	require.NoError(t, s.Create(ctx, a))

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Apple", products[0].Name)
	assert.Equal(t, "Banana", products[1].Name)

	stock, err := s.AdjustStock(ctx, a.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	_, err = s.AdjustStock(ctx, a.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = s.GetStock(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrProductNotFound)
}

func TestSaleStore(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	accounts := memory.NewAccountStore(db)
	products := memory.NewProductStore(db)
	sales := memory.NewSaleStore(db)

	account, err := domain.NewAccount(uuid.Nil, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, accounts.Create(ctx, account))
	product, err := domain.NewProduct("Hat", domain.CategoryClothes, decimal.NewFromInt(15), "", 3)
	require.NoError(t, err)
	require.NoError(t, products.Create(ctx, product))

	first, err := domain.NewSale(account.ID, product.ID, 1, decimal.NewFromInt(15))
	require.NoError(t, err)
	second, err := domain.NewSale(account.ID, product.ID, 2, decimal.NewFromInt(30))
	require.NoError(t, err)
	require.NoError(t, sales.Create(ctx, first))
	require.NoError(t, sales.Create(ctx, second))

	orphan, err := domain.NewSale(uuid.New(), product.ID, 1, decimal.NewFromInt(15))
	require.NoError(t, err)
	assert.ErrorIs(t, sales.Create(ctx, orphan), store.ErrInvalidEntity)

	list, err := sales.ListByCustomer(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	list[0].Quantity = 99
	stored, err := sales.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity, "stored sales cannot be mutated through returned values")

	_, err = sales.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrSaleNotFound)
}

func TestOutboxStore(t *testing.T) {
	ctx := context.Background()
	s := memory.NewOutboxStore(memory.NewDB())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Enqueue(ctx, &store.OutboxRecord{Topic: "t", Key: "k", Payload: json.RawMessage(`{}`)}))
	}

	pending, err := s.FetchPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	sentID := pending[0].ID
	require.NoError(t, s.MarkSent(ctx, sentID, time.Now().UTC()))

	pending, err = s.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, r := range pending {
		assert.NotEqual(t, sentID, r.ID)
	}

	assert.ErrorIs(t, s.MarkSent(ctx, sentID, time.Now().UTC()), store.ErrNotFound,
		"delivered records are dropped from the outbox")

	assert.ErrorIs(t, s.MarkSent(ctx, uuid.New(), time.Now().UTC()), store.ErrNotFound)
}
