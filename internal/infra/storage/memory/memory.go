package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/storage"
)

// CheckpointRepo implements storage.CheckpointRepository in process memory.
type CheckpointRepo struct {
	checkpoints map[string]domain.Checkpoint
	mu          sync.RWMutex
}

func NewCheckpointRepo() *CheckpointRepo {
	return &CheckpointRepo{
		checkpoints: make(map[string]domain.Checkpoint),
	}
}

func (r *CheckpointRepo) Get(ctx context.Context, name string) (*domain.Checkpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp, ok := r.checkpoints[name]
	if !ok {
		return nil, storage.ErrCheckpointNotFound
	}
	return &cp, nil
}

func (r *CheckpointRepo) Create(ctx context.Context, cp *domain.Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checkpoints[cp.Name]; ok {
		return storage.ErrCheckpointExists
	}
	r.checkpoints[cp.Name] = *cp
	return nil
}

func (r *CheckpointRepo) Save(ctx context.Context, cp *domain.Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkpoints[cp.Name] = *cp
	return nil
}

func (r *CheckpointRepo) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkpoints, name)
	return nil
}

func (r *CheckpointRepo) List(ctx context.Context) ([]*domain.Checkpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Checkpoint, 0, len(r.checkpoints))
	for _, cp := range r.checkpoints {
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domain.Checkpoint) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}
