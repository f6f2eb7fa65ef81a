// Package backend wires the configured storage backend and event publisher.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/bolt"
	"github.com/mmynk/splitledger/internal/storage/memory"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// Result bundles the opened collaborators with a cleanup function that
// releases them in reverse order.
type Result struct {
	Store     storage.Store
	Publisher events.Publisher
	Cleanup   func() error
}

// OpenStore opens the storage backend selected by cfg.DataBackend.
func OpenStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.DataBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil
	case config.BackendBolt:
		store, err := bolt.New(cfg.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		logger.Info("Initialized bolt backend", "db_path", cfg.BoltDBPath)
		return store, nil
	case config.BackendMemory:
		logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

// Open opens the store and, when AMQP_URL is set, the event publisher.
// A broker that cannot be reached is logged and replaced by a no-op publisher.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(ctx, cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP publisher, continuing without events", "error", err)
		} else {
			logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange)
			publisher = amqpPublisher
		}
	}

	return &Result{
		Store:     store,
		Publisher: publisher,
		Cleanup: func() error {
			pubErr := publisher.Close()
			storeErr := store.Close()
			if storeErr != nil {
				return storeErr
			}
			return pubErr
		},
	}, nil
}
