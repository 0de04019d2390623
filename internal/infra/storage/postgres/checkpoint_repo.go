package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/storage"
)

const (
	upsertCheckpoint = `
INSERT INTO ledger_checkpoints (name, action, page_cursor, pages, items, done, updated_at)
VALUES (:name, :action, :page_cursor, :pages, :items, :done, :updated_at)
ON CONFLICT (name) DO UPDATE SET
    action      = EXCLUDED.action,
    page_cursor = EXCLUDED.page_cursor,
    pages       = EXCLUDED.pages,
    items       = EXCLUDED.items,
    done        = EXCLUDED.done,
    updated_at  = EXCLUDED.updated_at`

	insertCheckpoint = `
INSERT INTO ledger_checkpoints (name, action, page_cursor, pages, items, done, updated_at)
VALUES (:name, :action, :page_cursor, :pages, :items, :done, :updated_at)`

	selectCheckpoint = `
SELECT name, action, page_cursor, pages, items, done, updated_at
FROM ledger_checkpoints`
)

// CheckpointRepo implements storage.CheckpointRepository using PostgreSQL.
type CheckpointRepo struct {
	db *DB
}

// NewCheckpointRepo creates a new PostgreSQL checkpoint repository.
func NewCheckpointRepo(db *DB) *CheckpointRepo {
	return &CheckpointRepo{db: db}
}

// uniqueViolation is the SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// Create inserts a new checkpoint.
func (r *CheckpointRepo) Create(ctx context.Context, cp *domain.Checkpoint) error {
	row := *cp
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, insertCheckpoint, &row); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrCheckpointExists
		}
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	return nil
}

// isUniqueViolation recognises duplicate key errors from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// Save upserts a checkpoint by name.
func (r *CheckpointRepo) Save(ctx context.Context, cp *domain.Checkpoint) error {
	row := *cp
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, upsertCheckpoint, &row); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Get retrieves a checkpoint by name.
func (r *CheckpointRepo) Get(ctx context.Context, name string) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	err := r.db.GetContext(ctx, &cp, selectCheckpoint+` WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes a checkpoint.
func (r *CheckpointRepo) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ledger_checkpoints WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns every checkpoint ordered by name.
func (r *CheckpointRepo) List(ctx context.Context) ([]*domain.Checkpoint, error) {
	var rows []*domain.Checkpoint
	if err := r.db.SelectContext(ctx, &rows, selectCheckpoint+` ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return rows, nil
}
