package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/ledger/internal/core/config"
	"github.com/vietddude/ledger/internal/core/cursor"
	redisclient "github.com/vietddude/ledger/internal/infra/redis"
	"github.com/vietddude/ledger/internal/infra/storage"
	"github.com/vietddude/ledger/internal/infra/storage/memory"
	"github.com/vietddude/ledger/internal/infra/storage/postgres"
)

// checkpointStore is an opened checkpoint backend and its connections.
type checkpointStore struct {
	repo  storage.CheckpointRepository
	db    *postgres.DB
	redis *redisclient.Client
}

func (s *checkpointStore) close() error {
	if s.db != nil {
		return s.db.Close()
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

// openCheckpointStore connects the configured backend. Postgres schemas are
// migrated on open.
func openCheckpointStore(ctx context.Context, cfg config.CheckpointConfig) (*checkpointStore, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		db.WatchPool(ctx, 15*time.Second)
		slog.Info("Using PostgreSQL checkpoint storage")
		return &checkpointStore{repo: postgres.NewCheckpointRepo(db), db: db}, nil

	case config.BackendRedis:
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		slog.Info("Using Redis checkpoint storage")
		return &checkpointStore{repo: redisclient.NewCheckpointRepo(rc), redis: rc}, nil

	case config.BackendMemory, "":
		slog.Debug("Using in-memory checkpoint storage")
		return &checkpointStore{repo: memory.NewCheckpointRepo()}, nil

	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}

// OpenCheckpoints opens only the checkpoint manager, for commands that do not
// talk to the ledger. The returned func releases the backend.
func OpenCheckpoints(ctx context.Context, cfg config.CheckpointConfig) (*cursor.Manager, func() error, error) {
	store, err := openCheckpointStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	manager := cursor.NewManager(store.repo)
	manager.SetBackend(cfg.Backend)
	return manager, store.close, nil
}
