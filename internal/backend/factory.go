package backend

import (
	"context"
	"fmt"

	"freedom/internal/amqp"
	"freedom/internal/graphql"
	"freedom/internal/log"
	"freedom/internal/services"
	"freedom/internal/storage"
	"freedom/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case GraphQLBackend:
		return f.createGraphQLBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createGraphQLBackend(config Config) (*BackendResult, error) {
	client := graphql.NewClient(config.GraphQLURL, config.GraphQLTimeout)

	f.logger.Info("Initialized GraphQL backend", "endpoint", config.GraphQLURL)

	return &BackendResult{
		Backend: client,
		Cleanup: nil, // No cleanup needed for the HTTP client
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	svc := services.NewAccountService(repo, f.publisher(ctx, config), f.logger)

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: svc,
		Cleanup: svc.Close,
		Ready:   svc.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	svc := services.NewAccountService(memory.New(), f.publisher(ctx, config), f.logger)

	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Backend: svc,
		Cleanup: svc.Close,
		Ready:   svc.Ping,
	}, nil
}

// publisher connects to AMQP when configured. A broker that cannot be
// reached only disables commit events.
func (f *DefaultFactory) publisher(ctx context.Context, config Config) services.Publisher {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without commit events", "error", err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
