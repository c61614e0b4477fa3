package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/store"
)

// ListProducts implements Service.ListProducts.
func (s *serviceImpl) ListProducts(ctx context.Context, p domain.Principal) ([]*domain.Product, error) {
	if err := p.Authenticate(); err != nil {
		return nil, err
	}

	products, err := s.uow.Ledgers().Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct implements Service.GetProduct.
func (s *serviceImpl) GetProduct(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Product, error) {
	if err := p.Authenticate(); err != nil {
		return nil, err
	}
	return s.loadProduct(ctx, s.uow.Ledgers().Products, id)
}

// History implements Service.History.
func (s *serviceImpl) History(
	ctx context.Context,
	p domain.Principal,
	customerID uuid.UUID,
) ([]*domain.Sale, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Authorize(customerID); err != nil {
		log.Warn("principal may not read customer history",
			slog.String("user_id", p.UserID.String()),
			slog.String("customer_id", customerID.String()))
		return nil, err
	}

	ledgers := s.uow.Ledgers()
	if _, err := s.loadAccount(ctx, ledgers.Accounts, customerID); err != nil {
		return nil, err
	}

	sales, err := ledgers.Sales.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

// GetSale implements Service.GetSale.
func (s *serviceImpl) GetSale(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Sale, error) {
	if err := p.Authenticate(); err != nil {
		return nil, err
	}

	sale, err := s.uow.Ledgers().Sales.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrSaleNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	// Another customer's sale looks exactly like a missing one.
	if err := p.Authorize(sale.CustomerID); err != nil {
		return nil, ErrSaleNotFound
	}
	return sale, nil
}

// GetAccount implements Service.GetAccount.
func (s *serviceImpl) GetAccount(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Account, error) {
	if err := p.Authorize(id); err != nil {
		return nil, err
	}
	return s.loadAccount(ctx, s.uow.Ledgers().Accounts, id)
}
