package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/phrazzld/shop-api/internal/store"
	"github.com/shopspring/decimal"
)

// CreateAccount implements Service.CreateAccount.
func (s *serviceImpl) CreateAccount(
	ctx context.Context,
	p domain.Principal,
	req CreateAccountRequest,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	account, err := domain.NewAccount(req.ID, req.OpeningBalance)
	if err != nil {
		return nil, err
	}

	if err := s.uow.Ledgers().Accounts.Create(ctx, account); err != nil {
		if store.IsDuplicateError(err) {
			return nil, err
		}
		log.Error("failed to create account", slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.Info("account created",
		slog.String("account_id", account.ID.String()),
		slog.String("admin_id", p.UserID.String()))
	return account, nil
}

// CreditAccount implements Service.CreditAccount.
func (s *serviceImpl) CreditAccount(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	amount decimal.Decimal,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be greater than zero", nil)
	}
	if err := domain.CheckAmount("amount", amount); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := s.uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		if _, err := l.Accounts.AdjustBalance(ctx, id, amount); err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to credit account: %w", err)
		}
		var err error
		account, err = s.loadAccount(ctx, l.Accounts, id)
		return err
	})
	if err != nil {
		if store.IsConflictError(err) {
			return nil, fmt.Errorf("%w: %v", ErrTransactionConflict, err)
		}
		return nil, err
	}

	log.Info("account credited",
		slog.String("account_id", id.String()),
		slog.String("amount", amount.String()),
		slog.String("admin_id", p.UserID.String()))
	return account, nil
}

// CreateProduct implements Service.CreateProduct.
func (s *serviceImpl) CreateProduct(
	ctx context.Context,
	p domain.Principal,
	req CreateProductRequest,
) (*domain.Product, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	product, err := domain.NewProduct(req.Name, req.Category, req.UnitPrice, req.Description, req.Stock)
	if err != nil {
		return nil, err
	}

	if err := s.uow.Ledgers().Products.Create(ctx, product); err != nil {
		log.Error("failed to create product", slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	log.Info("product created",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name))
	return product, nil
}

// RestockProduct implements Service.RestockProduct.
func (s *serviceImpl) RestockProduct(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	quantity int,
) (*domain.Product, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "must be greater than zero", nil)
	}

	var product *domain.Product
	err := s.uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
		if _, err := l.Products.AdjustStock(ctx, id, quantity); err != nil {
			if errors.Is(err, store.ErrProductNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to restock product: %w", err)
		}
		var err error
		product, err = s.loadProduct(ctx, l.Products, id)
		return err
	})
	if err != nil {
		if store.IsConflictError(err) {
			return nil, fmt.Errorf("%w: %v", ErrTransactionConflict, err)
		}
		return nil, err
	}

	log.Info("product restocked",
		slog.String("product_id", id.String()),
		slog.Int("quantity", quantity),
		slog.Int("stock", product.StockCount))
	return product, nil
}
