package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/phrazzld/shop-api/internal/store"
)

// PostgresSaleStore implements the store.SaleStore interface
// using a PostgreSQL database as the storage backend. Rows are never updated
// or deleted; the sales_append_only trigger enforces this in the database too.
type PostgresSaleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSaleStore creates a new PostgreSQL implementation of the SaleStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSaleStore(db store.DBTX, logger *slog.Logger) *PostgresSaleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSaleStore{
		db:     db,
		logger: logger.With(slog.String("component", "sale_store")),
	}
}

// Ensure PostgresSaleStore implements store.SaleStore interface
var _ store.SaleStore = (*PostgresSaleStore)(nil)

const saleColumns = `id, customer_id, product_id, quantity, total_price, created_at`

func scanSale(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	if err := row.Scan(
		&sale.ID,
		&sale.CustomerID,
		&sale.ProductID,
		&sale.Quantity,
		&sale.TotalPrice,
		&sale.CreatedAt,
	); err != nil {
		return nil, err
	}
	sale.State = domain.SaleStateCommitted
	return &sale, nil
}

// Create implements store.SaleStore.Create
// Returns store.ErrInvalidEntity if the customer or product does not exist.
func (s *PostgresSaleStore) Create(ctx context.Context, sale *domain.Sale) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sale.Validate(); err != nil {
		log.Warn("sale validation failed during create",
			slog.String("error", redact.Error(err)),
			slog.String("sale_id", sale.ID.String()))
		return err
	}

	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		sale.ID,
		sale.CustomerID,
		sale.ProductID,
		sale.Quantity,
		sale.TotalPrice,
		sale.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("sale references unknown customer or product",
				slog.String("sale_id", sale.ID.String()),
				slog.String("customer_id", sale.CustomerID.String()),
				slog.String("product_id", sale.ProductID.String()))
			return fmt.Errorf("%w: customer or product does not exist", store.ErrInvalidEntity)
		}
		log.Error("failed to create sale",
			slog.String("error", redact.Error(err)),
			slog.String("sale_id", sale.ID.String()))
		return MapError(err)
	}

	log.Debug("sale recorded",
		slog.String("sale_id", sale.ID.String()),
		slog.String("customer_id", sale.CustomerID.String()))
	return nil
}

// GetByID implements store.SaleStore.GetByID
// Returns store.ErrSaleNotFound if the sale does not exist.
func (s *PostgresSaleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSaleNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get sale",
			slog.String("error", redact.Error(err)),
			slog.String("sale_id", id.String()))
		return nil, MapError(err)
	}
	return sale, nil
}

// ListByCustomer implements store.SaleStore.ListByCustomer
// Sales are returned oldest first.
func (s *PostgresSaleStore) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Sale, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE customer_id = $1 ORDER BY created_at, id`,
		customerID)
	if err != nil {
		log.Error("failed to list sales",
			slog.String("error", redact.Error(err)),
			slog.String("customer_id", customerID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close sale rows", slog.String("error", cerr.Error()))
		}
	}()

	sales := make([]*domain.Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, MapError(err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return sales, nil
}
