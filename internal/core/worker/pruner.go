package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/ledger/internal/core/cursor"
)

// Pruner deletes finished checkpoints older than a retention period.
type Pruner struct {
	retention time.Duration
	manager   *cursor.Manager
	now       func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, manager *cursor.Manager) *Pruner {
	return &Pruner{
		retention: retention,
		manager:   manager,
		now:       time.Now,
	}
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check every 10% of the retention period, between 1 minute and 1 hour.
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

// PruneOnce deletes finished checkpoints last updated before the retention
// window and returns their names. Unfinished checkpoints are never pruned.
func (p *Pruner) PruneOnce(ctx context.Context) ([]string, error) {
	if p.retention <= 0 {
		return nil, nil
	}
	threshold := p.now().Add(-p.retention)

	list, err := p.manager.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	var pruned []string
	for _, cp := range list {
		if !cp.Done || !cp.UpdatedAt.Before(threshold) {
			continue
		}
		if err := p.manager.Delete(ctx, cp.Name); err != nil {
			return pruned, fmt.Errorf("delete checkpoint %s: %w", cp.Name, err)
		}
		pruned = append(pruned, cp.Name)
	}
	return pruned, nil
}

func (p *Pruner) prune(ctx context.Context) {
	pruned, err := p.PruneOnce(ctx)
	if err != nil {
		slog.Error("Failed to prune checkpoints", "error", err)
	}
	if len(pruned) > 0 {
		slog.Info("Pruned checkpoints", "count", len(pruned))
	}
}
