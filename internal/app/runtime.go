// Package app assembles the ledger runtime (store, route fixture, writer
// lock and event publisher) from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/config"
	"github.com/smarttransit/route-ledger/internal/database"
	"github.com/smarttransit/route-ledger/internal/events"
	"github.com/smarttransit/route-ledger/internal/lock"
	"github.com/smarttransit/route-ledger/internal/processor"
	"github.com/smarttransit/route-ledger/internal/storage"
)

// Runtime holds the wired collaborators of one process
type Runtime struct {
	Store     storage.Store
	Routes    storage.RouteSource
	Locker    lock.Locker
	Publisher events.Publisher
	Processor *processor.Processor

	checks  []func(ctx context.Context) error
	closers []func() error
}

// NewLogger creates the JSON logrus logger used by every binary
func NewLogger(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(out)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// Build wires a runtime for cfg. Close must be called when done.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Runtime, error) {
	rt := &Runtime{
		Routes: storage.NewRouteFixture(cfg.Store.RoutesFile),
	}

	if err := rt.buildStore(ctx, cfg, logger); err != nil {
		rt.Close()
		return nil, err
	}
	rt.buildLocker(cfg, logger)

	rt.Publisher = events.NoopPublisher{}
	if cfg.Events.RabbitMQURL != "" {
		rt.Publisher = events.NewAMQPPublisher(cfg.Events.RabbitMQURL)
		logger.Info("Booking events will be published to RabbitMQ")
	}

	rt.Processor = processor.New(processor.Options{
		Store:        rt.Store,
		Routes:       rt.Routes,
		Locker:       rt.Locker,
		Publisher:    rt.Publisher,
		Logger:       logger,
		DefaultSeats: cfg.Ledger.DefaultSeatsPerRoute,
	})
	return rt, nil
}

func (rt *Runtime) buildStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		logger.Info("Connecting to database...")
		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, db.Close)
		rt.checks = append(rt.checks, func(ctx context.Context) error { return db.PingContext(ctx) })

		store := database.NewLedgerStore(db)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate ledger schema: %w", err)
		}
		rt.Store = store
		logger.Info("Database connection established")
	default:
		rt.Store = storage.NewFileStore(cfg.Store.DataDir)
		logger.WithField("data_dir", cfg.Store.DataDir).Debug("Using flat-file store")
	}
	return nil
}

func (rt *Runtime) buildLocker(cfg *config.Config, logger *logrus.Logger) {
	switch cfg.Lock.Mode {
	case config.LockModeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, client.Close)
		rt.checks = append(rt.checks, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		rt.Locker = lock.NewRedisLocker(client, lock.DefaultRedisKey, cfg.Lock.TTL, cfg.Lock.WaitTimeout)
	case config.LockModeNone:
		logger.Warn("Ledger writer lock disabled, concurrent writers will overwrite each other")
		rt.Locker = lock.NoopLocker{}
	default:
		rt.Locker = lock.NewFileLocker(filepath.Join(cfg.Store.DataDir, lock.FileLockName), cfg.Lock.WaitTimeout)
	}
}

// HealthCheck pings every remote dependency
func (rt *Runtime) HealthCheck(ctx context.Context) error {
	for _, check := range rt.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases connections in reverse order of creation
func (rt *Runtime) Close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	return first
}
