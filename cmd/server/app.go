package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/phrazzld/shop-api/internal/config"
	"github.com/phrazzld/shop-api/internal/events"
	"github.com/phrazzld/shop-api/internal/outbox"
	"github.com/phrazzld/shop-api/internal/platform/memory"
	"github.com/phrazzld/shop-api/internal/platform/metrics"
	"github.com/phrazzld/shop-api/internal/platform/postgres"
	"github.com/phrazzld/shop-api/internal/service/auth"
	"github.com/phrazzld/shop-api/internal/service/sale"
	"github.com/phrazzld/shop-api/internal/store"
)

// application holds every long-lived dependency of the server.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	db          *sql.DB
	uow         store.UnitOfWork
	jwtService  auth.JWTService
	saleService sale.Service
	metrics     *metrics.Metrics
	publisher   events.Publisher
	relay       *outbox.Relay
}

// newApplication wires the application from configuration. The database is
// only opened for the postgres driver.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	if err := app.setupStorage(context.Background()); err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.jwtService = jwtService

	saleService, err := sale.NewService(app.uow, sale.Config{
		MaxRetries:     cfg.Sale.MaxRetries,
		RetryBaseDelay: cfg.Sale.RetryBaseDelay(),
		Topic:          cfg.Events.Topic,
	}, app.metrics, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create sale service: %w", err)
	}
	app.saleService = saleService

	app.publisher = app.newPublisher()

	relay, err := outbox.NewRelay(app.uow, app.publisher, outbox.Config{
		Interval:  cfg.Events.RelayInterval(),
		BatchSize: cfg.Events.BatchSize,
	}, app.metrics, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create outbox relay: %w", err)
	}
	app.relay = relay

	return app, nil
}

// setupStorage selects the unit of work for the configured driver.
func (app *application) setupStorage(ctx context.Context) error {
	switch app.config.Database.Driver {
	case config.DriverMemory:
		app.logger.Warn("Using in-memory storage, data will not survive a restart")
		app.uow = memory.NewUnitOfWork(memory.NewDB())
		return nil
	case config.DriverPostgres:
		db, err := setupAppDatabase(ctx, app.config, app.logger)
		if err != nil {
			return err
		}
		app.db = db
		app.uow = postgres.NewUnitOfWork(db, app.logger)
		return nil
	default:
		return fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}
}

// newPublisher returns a Kafka publisher when brokers are configured,
// otherwise an in-process emitter feeding the low stock handler.
func (app *application) newPublisher() events.Publisher {
	brokers := events.ParseBrokers(strings.Join(app.config.Events.KafkaBrokers, ","))
	if len(brokers) > 0 {
		app.logger.Info("Publishing sale events to Kafka",
			"brokers", len(brokers),
			"topic", app.config.Events.Topic)
		return events.NewKafkaPublisher(brokers, app.logger)
	}

	emitter := events.NewInMemoryEventEmitter(app.logger)
	emitter.Subscribe(events.TypeSaleCommitted,
		events.NewLowStockHandler(app.config.Sale.LowStockThreshold, app.logger))
	app.logger.Info("No Kafka brokers configured, dispatching sale events in process")
	return events.NewEmitterPublisher(emitter)
}

// Run starts the outbox relay and the HTTP server and blocks until ctx is
// cancelled and both have stopped.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	relayCtx, stopRelay := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.relay.Run(relayCtx)
	}()

	err := app.startHTTPServer(ctx, app.setupRouter())

	stopRelay()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// cleanup releases the publisher and database connection.
func (app *application) cleanup() {
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("Error closing event publisher", "error", err)
		}
		app.publisher = nil
	}
	if app.db != nil {
		app.logger.Info("Closing database connection")
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
		app.db = nil
	}
}
