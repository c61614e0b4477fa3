package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/shop-api/internal/platform/logger"
)

// LowStockHandler logs a warning when a committed sale leaves a product at
// or below the configured threshold.
type LowStockHandler struct {
	threshold int
	logger    *slog.Logger
}

// NewLowStockHandler creates a LowStockHandler.
func NewLowStockHandler(threshold int, log *slog.Logger) *LowStockHandler {
	if log == nil {
		log = slog.Default()
	}
	return &LowStockHandler{
		threshold: threshold,
		logger:    log.With("component", "low_stock_handler"),
	}
}

// HandleEvent implements EventHandler.HandleEvent
func (h *LowStockHandler) HandleEvent(ctx context.Context, event *Event) error {
	if event.Type != TypeSaleCommitted {
		return nil
	}

	var sale SaleCommitted
	if err := event.UnmarshalPayload(&sale); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	if sale.RemainingStock > h.threshold {
		return nil
	}

	logger.FromContextOrDefault(ctx, h.logger).Warn("product stock low",
		"product_id", sale.ProductID.String(),
		"remaining_stock", sale.RemainingStock,
		"threshold", h.threshold,
		"sale_id", sale.SaleID.String())
	return nil
}
