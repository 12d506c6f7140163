package backend

import (
	"context"
	"fmt"

	"walletstats/internal/ledger/memory"
	applog "walletstats/internal/log"
	"walletstats/internal/storage"
	"walletstats/internal/storage/postgres"
)

// DefaultFactory opens the three built-in backends.
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Nop()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend opens the backend named by config.Type. SQL backends are migrated
// before they are returned.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	}
	return nil, unknownType(config.Type)
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	db, err := postgres.Open(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := postgres.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate Postgres: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Postgres backend")

	return &BackendResult{
		Backend: postgres.NewStore(db),
		Cleanup: db.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory seed file: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.MemorySeedFile)

	return &BackendResult{Backend: store}, nil
}
