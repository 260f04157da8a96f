package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"weekbudget/internal/amqp"
	"weekbudget/internal/cache"
	"weekbudget/internal/storage"
	"weekbudget/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.CacheEnabled {
		cached := cache.NewCachedStore(result.Store, config.CacheSize, config.CacheTTL)
		result.Store = cached
		result.Cache = cached
		f.logger.Info("Enabled store cache", "size", config.CacheSize, "ttl", config.CacheTTL.String())
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
			result.Cleanup = chain(result.Cleanup, client.Close)
		}
	}

	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend; state is lost on exit")
	return &BackendResult{
		Store: memory.New(),
		Ready: func(context.Context) error { return nil },
	}
}

// chain runs both cleanups and joins their errors.
func chain(first, second CleanupFunc) CleanupFunc {
	if first == nil {
		return second
	}
	return func() error {
		return errors.Join(second(), first())
	}
}
