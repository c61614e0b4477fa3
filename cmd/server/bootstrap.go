package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/shop-api/internal/config"
	"github.com/phrazzld/shop-api/internal/platform/logger"
)

// loadAppConfig reads SHOP_* settings and reports which storage and event
// backends the server will use.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	events := "in-memory"
	if len(cfg.Events.KafkaBrokers) > 0 {
		events = "kafka"
	}
	slog.Info("Shop configuration loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Database.Driver,
		"events", events,
		"max_sale_retries", cfg.Sale.MaxRetries)

	return cfg, nil
}

// setupAppLogger builds the process logger at the configured level, tagged
// with the service name so relay and HTTP logs share one stream.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return l.With("service", "shop-api", "storage", cfg.Database.Driver), nil
}
