package storage

import (
	"context"
	"errors"

	"github.com/vietddude/ledger/internal/core/domain"
)

var (
	// ErrCheckpointNotFound is returned when a checkpoint doesn't exist
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrCheckpointExists is returned by Create when the name is taken
	ErrCheckpointExists = errors.New("checkpoint already exists")
)

// CheckpointRepository handles checkpoint storage operations
type CheckpointRepository interface {
	// Get retrieves a checkpoint by name
	Get(ctx context.Context, name string) (*domain.Checkpoint, error)

	// Create inserts a new checkpoint, failing with ErrCheckpointExists if the name is taken
	Create(ctx context.Context, cp *domain.Checkpoint) error

	// Save creates or replaces a checkpoint
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Delete removes a checkpoint; deleting a missing checkpoint is not an error
	Delete(ctx context.Context, name string) error

	// List returns all checkpoints ordered by name
	List(ctx context.Context) ([]*domain.Checkpoint, error)
}
