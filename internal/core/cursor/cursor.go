// Package cursor tracks how far each named list export has been consumed.
//
// # Purpose
//
// A checkpoint is a bookmark for a paginated ledger query:
//   - Cursor: the first page that has not been fully consumed
//   - Counters: pages and items consumed so far
//   - State: pending, running or done
//
// Checkpoints only move after every item of a page has been handed to the
// caller, so resuming from a checkpoint never skips data. Items of the page
// that was in flight when a run stopped are delivered again.
//
// # Quick Start
//
//	manager := cursor.NewManager(repo)
//
//	cp, _ := manager.Start(ctx, "accounts-export", "list-accounts")
//	if cp.Done {
//	    return nil
//	}
//
//	it := ledger.List[Account](client, "list-accounts", query.WithCursor(cp.Cursor),
//	    paging.WithPageConsumed(manager.Hook("accounts-export")))
//
// # Package Structure
//
//   - state.go   - checkpoint states and valid transitions
//   - manager.go - Manager: start, advance, reset and the iterator hook
//   - metrics.go - per-checkpoint throughput
package cursor

import (
	"time"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/storage"
)

// Checkpoint is re-exported from the domain package.
type Checkpoint = domain.Checkpoint

// NewManager creates a new checkpoint manager with the given repository.
func NewManager(repo storage.CheckpointRepository) *Manager {
	return &Manager{
		repo:       repo,
		now:        time.Now,
		collectors: make(map[string]*MetricsCollector),
	}
}

// NewMetricsCollector creates a new metrics collector with the given window size.
func NewMetricsCollector(windowSize int) *MetricsCollector {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &MetricsCollector{
		windowSize:  windowSize,
		pages:       make([]pageRecord, 0, windowSize),
		transitions: make([]Transition, 0, 10),
	}
}
