package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/events"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/platform/metrics"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/phrazzld/shop-api/internal/store"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/phrazzld/shop-api/internal/service/sale"

	defaultRetryBaseDelay = 20 * time.Millisecond
	defaultTopic          = "shop.sales"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	uow     store.UnitOfWork
	cfg     Config
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewService creates a new sale Service. metrics may be nil.
func NewService(
	uow store.UnitOfWork,
	cfg Config,
	m *metrics.Metrics,
	log *slog.Logger,
) (Service, error) {
	if uow == nil {
		return nil, errors.New("sale service requires a unit of work")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries cannot be negative, got %d", cfg.MaxRetries)
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	if cfg.Topic == "" {
		cfg.Topic = defaultTopic
	}
	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		uow:     uow,
		cfg:     cfg,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
		logger:  log.With(slog.String("component", "sale_service")),
	}, nil
}

// ProcessSale implements Service.ProcessSale.
func (s *serviceImpl) ProcessSale(
	ctx context.Context,
	p domain.Principal,
	req PurchaseRequest,
) (result *domain.Sale, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "sale.ProcessSale", trace.WithAttributes(
		attribute.String("customer_id", req.CustomerID.String()),
		attribute.String("product_id", req.ProductID.String()),
		attribute.Int("quantity", req.Quantity),
	))
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("customer_id", req.CustomerID.String()),
		slog.String("product_id", req.ProductID.String()),
	)

	defer func() {
		outcome := outcomeFor(err)
		s.metrics.ObserveSale(outcome, time.Since(started))
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetAttributes(attribute.String("sale_id", result.ID.String()))
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	proposed, err := domain.NewSale(req.CustomerID, req.ProductID, req.Quantity, req.TotalPrice)
	if err != nil {
		log.Debug("rejected invalid purchase request", slog.String("error", err.Error()))
		return nil, err
	}

	if err := p.Authorize(req.CustomerID); err != nil {
		log.Warn("principal may not purchase for customer",
			slog.String("user_id", p.UserID.String()),
			slog.String("role", string(p.Role)))
		return nil, err
	}

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxRetries), retry.NewExponential(s.cfg.RetryBaseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.IncSaleRetry()
			log.Debug("retrying sale after write conflict", slog.Int("attempt", attempt))
		}
		err := s.uow.Do(ctx, func(ctx context.Context, l store.Ledgers) error {
			return s.commitSale(ctx, l, proposed)
		})
		if store.IsConflictError(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if store.IsConflictError(err) {
			log.Warn("sale aborted after repeated write conflicts",
				slog.Int("attempts", attempt),
				slog.String("error", redact.Error(err)))
			return nil, fmt.Errorf("%w: %d attempts", ErrTransactionConflict, attempt)
		}
		if isExpectedSaleError(err) {
			log.Info("sale rejected", slog.String("reason", err.Error()))
			return nil, err
		}
		log.Error("sale failed", slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to process sale: %w", err)
	}

	proposed.MarkCommitted()
	log.Info("sale committed",
		slog.String("sale_id", proposed.ID.String()),
		slog.Int("quantity", proposed.Quantity),
		slog.String("total_price", proposed.TotalPrice.String()))
	return proposed, nil
}

// commitSale runs inside one unit of work. The account row is locked
// before the product row so concurrent sales acquire locks in the same order.
func (s *serviceImpl) commitSale(ctx context.Context, l store.Ledgers, sale *domain.Sale) error {
	account, err := l.Accounts.GetForUpdate(ctx, sale.CustomerID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to lock account: %w", err)
	}

	product, err := l.Products.GetForUpdate(ctx, sale.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to lock product: %w", err)
	}

	if !account.CanCover(sale.TotalPrice) {
		return domain.ErrInsufficientFunds
	}
	if !product.HasStock(sale.Quantity) {
		return domain.ErrInsufficientStock
	}

	balance, err := l.Accounts.AdjustBalance(ctx, account.ID, sale.TotalPrice.Neg())
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}

	stock, err := l.Products.AdjustStock(ctx, product.ID, -sale.Quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if err := l.Sales.Create(ctx, sale); err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}

	record, err := s.saleCommittedRecord(sale, balance, stock)
	if err != nil {
		return err
	}
	if err := l.Outbox.Enqueue(ctx, record); err != nil {
		return fmt.Errorf("failed to enqueue sale event: %w", err)
	}

	return nil
}

func (s *serviceImpl) saleCommittedRecord(
	sale *domain.Sale,
	balance decimal.Decimal,
	stock int,
) (*store.OutboxRecord, error) {
	event, err := events.NewEvent(events.TypeSaleCommitted, events.SaleCommitted{
		SaleID:           sale.ID,
		CustomerID:       sale.CustomerID,
		ProductID:        sale.ProductID,
		Quantity:         sale.Quantity,
		TotalPrice:       sale.TotalPrice,
		RemainingBalance: balance,
		RemainingStock:   stock,
		CommittedAt:      sale.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build sale event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sale event: %w", err)
	}

	return &store.OutboxRecord{
		ID:        event.ID,
		Topic:     s.cfg.Topic,
		Key:       sale.CustomerID.String(),
		Payload:   payload,
		CreatedAt: event.CreatedAt,
	}, nil
}

// isExpectedSaleError reports errors that reject a sale as a business
// outcome rather than a failure.
func isExpectedSaleError(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrValidation)
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCommitted
	case errors.Is(err, domain.ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrProductNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return metrics.OutcomeInsufficientFunds
	case errors.Is(err, domain.ErrInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, ErrTransactionConflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}

// lookup helpers shared by the read and admin operations

func (s *serviceImpl) loadAccount(ctx context.Context, accounts store.AccountStore, id uuid.UUID) (*domain.Account, error) {
	account, err := accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *serviceImpl) loadProduct(ctx context.Context, products store.ProductStore, id uuid.UUID) (*domain.Product, error) {
	product, err := products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}
