package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/storage"
)

// CheckpointRepo implements storage.CheckpointRepository on Redis.
// Each checkpoint is a JSON string; a set indexes the names.
type CheckpointRepo struct {
	c *Client
}

func NewCheckpointRepo(c *Client) *CheckpointRepo {
	return &CheckpointRepo{c: c}
}

func (r *CheckpointRepo) Create(ctx context.Context, cp *domain.Checkpoint) error {
	row := *cp
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&row)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	// SADD is idempotent, so it runs in the same transaction even when the
	// key already exists.
	var created *redis.BoolCmd
	_, err = r.c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		created = p.SetNX(ctx, r.c.checkpointKey(cp.Name), data, 0)
		p.SAdd(ctx, r.c.indexKey(), cp.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	if !created.Val() {
		return storage.ErrCheckpointExists
	}
	return nil
}

func (r *CheckpointRepo) Save(ctx context.Context, cp *domain.Checkpoint) error {
	row := *cp
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&row)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	_, err = r.c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.c.checkpointKey(cp.Name), data, 0)
		p.SAdd(ctx, r.c.indexKey(), cp.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (r *CheckpointRepo) Get(ctx context.Context, name string) (*domain.Checkpoint, error) {
	data, err := r.c.rdb.Get(ctx, r.c.checkpointKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", name, err)
	}
	return &cp, nil
}

func (r *CheckpointRepo) Delete(ctx context.Context, name string) error {
	_, err := r.c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.c.checkpointKey(name))
		p.SRem(ctx, r.c.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (r *CheckpointRepo) List(ctx context.Context) ([]*domain.Checkpoint, error) {
	names, err := r.c.rdb.SMembers(ctx, r.c.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers failed: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	slices.Sort(names)

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = r.c.checkpointKey(n)
	}
	vals, err := r.c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget failed: %w", err)
	}

	out := make([]*domain.Checkpoint, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Index entry without a value; skip it.
			continue
		}
		var cp domain.Checkpoint
		if err := json.Unmarshal([]byte(s), &cp); err != nil {
			return nil, fmt.Errorf("decode checkpoint %s: %w", names[i], err)
		}
		out = append(out, &cp)
	}
	return out, nil
}
