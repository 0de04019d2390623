package worker

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/ledger/internal/core/cursor"
	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/storage/memory"
)

func TestPruneOnce(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCheckpointRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []domain.Checkpoint{
		{Name: "old-done", Action: "list-actions", Done: true, UpdatedAt: now.Add(-48 * time.Hour)},
		{Name: "old-running", Action: "list-actions", Cursor: "c", Pages: 1, UpdatedAt: now.Add(-48 * time.Hour)},
		{Name: "fresh-done", Action: "list-actions", Done: true, UpdatedAt: now.Add(-time.Hour)},
	}
	for i := range seed {
		if err := repo.Save(ctx, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	manager := cursor.NewManager(repo)
	p := NewPruner(24*time.Hour, manager)
	p.now = func() time.Time { return now }

	pruned, err := p.PruneOnce(ctx)
	if err != nil {
		t.Fatalf("PruneOnce failed: %v", err)
	}
	if len(pruned) != 1 || pruned[0] != "old-done" {
		t.Errorf("expected only old-done pruned, got %v", pruned)
	}

	list, _ := manager.List(ctx)
	if len(list) != 2 {
		t.Errorf("expected 2 checkpoints left, got %d", len(list))
	}
}

func TestPruneOnce_Disabled(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCheckpointRepo()
	_ = repo.Save(ctx, &domain.Checkpoint{Name: "a", Done: true})

	p := NewPruner(0, cursor.NewManager(repo))
	pruned, err := p.PruneOnce(ctx)
	if err != nil || pruned != nil {
		t.Errorf("expected no-op, got %v, %v", pruned, err)
	}

	// Start returns immediately when retention is disabled.
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return with retention disabled")
	}
}
