package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/phrazzld/shop-api/internal/store"
)

// PostgresProductStore implements the store.ProductStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProductStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProductStore creates a new PostgreSQL implementation of the ProductStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresProductStore(db store.DBTX, logger *slog.Logger) *PostgresProductStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProductStore{
		db:     db,
		logger: logger.With(slog.String("component", "product_store")),
	}
}

// Ensure PostgresProductStore implements store.ProductStore interface
var _ store.ProductStore = (*PostgresProductStore)(nil)

const productColumns = `id, name, category, unit_price, description, stock_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var category string
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&category,
		&p.UnitPrice,
		&p.Description,
		&p.StockCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Category = domain.ProductCategory(category)
	return &p, nil
}

// Create implements store.ProductStore.Create
func (s *PostgresProductStore) Create(ctx context.Context, product *domain.Product) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := product.Validate(); err != nil {
		log.Warn("product validation failed during create",
			slog.String("error", redact.Error(err)),
			slog.String("product_id", product.ID.String()))
		return err
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		string(product.Category),
		product.UnitPrice,
		product.Description,
		product.StockCount,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create product",
			slog.String("error", redact.Error(err)),
			slog.String("product_id", product.ID.String()))
		return MapError(err)
	}

	log.Info("product created",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name),
		slog.Int("stock_count", product.StockCount))
	return nil
}

// GetByID implements store.ProductStore.GetByID
// Returns store.ErrProductNotFound if the product does not exist.
func (s *PostgresProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.get(ctx, id, `SELECT `+productColumns+` FROM products WHERE id = $1`)
}

// GetForUpdate implements store.ProductStore.GetForUpdate
// It takes a row lock that is held until the surrounding transaction ends.
func (s *PostgresProductStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.get(ctx, id, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`)
}

func (s *PostgresProductStore) get(ctx context.Context, id uuid.UUID, query string) (*domain.Product, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("product not found", slog.String("product_id", id.String()))
			return nil, store.ErrProductNotFound
		}
		log.Error("failed to get product",
			slog.String("error", redact.Error(err)),
			slog.String("product_id", id.String()))
		return nil, MapError(err)
	}
	return product, nil
}

// List implements store.ProductStore.List
// Products are ordered by name, then ID.
func (s *PostgresProductStore) List(ctx context.Context) ([]*domain.Product, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		log.Error("failed to list products", slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close product rows", slog.String("error", cerr.Error()))
		}
	}()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, MapError(err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return products, nil
}

// GetStock implements store.ProductStore.GetStock
func (s *PostgresProductStore) GetStock(ctx context.Context, id uuid.UUID) (int, error) {
	var stock int
	err := s.db.QueryRowContext(ctx, `SELECT stock_count FROM products WHERE id = $1`, id).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrProductNotFound
		}
		return 0, MapError(err)
	}
	return stock, nil
}

// AdjustStock implements store.ProductStore.AdjustStock
// The products_stock_non_negative constraint rejects oversells with
// domain.ErrInsufficientStock.
func (s *PostgresProductStore) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE products
		SET stock_count = stock_count + $2, updated_at = $3
		WHERE id = $1
		RETURNING stock_count
	`
	var stock int
	err := s.db.QueryRowContext(ctx, query, id, delta, time.Now().UTC()).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrProductNotFound
		}
		mapped := MapError(err)
		if errors.Is(mapped, domain.ErrInsufficientStock) {
			log.Warn("stock adjustment rejected",
				slog.String("product_id", id.String()),
				slog.Int("delta", delta))
			return 0, fmt.Errorf("adjust stock of product %s: %w", id, domain.ErrInsufficientStock)
		}
		log.Error("failed to adjust stock",
			slog.String("error", redact.Error(err)),
			slog.String("product_id", id.String()))
		return 0, mapped
	}

	log.Debug("stock adjusted",
		slog.String("product_id", id.String()),
		slog.Int("delta", delta),
		slog.Int("stock_count", stock))
	return stock, nil
}
