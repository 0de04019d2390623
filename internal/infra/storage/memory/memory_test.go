package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/storage"
)

func TestCheckpointRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckpointRepo()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, storage.ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound, got %v", err)
	}

	cp := &domain.Checkpoint{Name: "b-export", Action: "list-accounts", Cursor: "c1", Pages: 1, Items: 5}
	if err := repo.Save(ctx, cp); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, &domain.Checkpoint{Name: "a-export", Action: "list-actions"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := repo.Create(ctx, &domain.Checkpoint{Name: "a-export"}); !errors.Is(err, storage.ErrCheckpointExists) {
		t.Errorf("expected ErrCheckpointExists, got %v", err)
	}
	if err := repo.Create(ctx, &domain.Checkpoint{Name: "c-export", Action: "list-tokens"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, "c-export"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Mutating the saved value must not leak into the store.
	cp.Cursor = "mutated"

	got, err := repo.Get(ctx, "b-export")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cursor != "c1" || got.Items != 5 {
		t.Errorf("unexpected checkpoint %+v", got)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "a-export" || list[1].Name != "b-export" {
		t.Errorf("expected sorted list, got %+v", list)
	}

	if err := repo.Delete(ctx, "b-export"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "b-export"); err != nil {
		t.Fatalf("delete of missing checkpoint should succeed: %v", err)
	}
	if _, err := repo.Get(ctx, "b-export"); !errors.Is(err, storage.ErrCheckpointNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}
