package cursor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/ledger/internal/infra/ledger/metrics"
	"github.com/vietddude/ledger/internal/infra/ledger/paging"
	"github.com/vietddude/ledger/internal/infra/storage"
)

var (
	// ErrCheckpointDone is returned when advancing a finished checkpoint.
	ErrCheckpointDone = errors.New("checkpoint is done")

	// ErrActionMismatch is returned when a checkpoint name is reused for a
	// different list action.
	ErrActionMismatch = errors.New("checkpoint belongs to a different action")

	// ErrEmptyName is returned for checkpoints without a name.
	ErrEmptyName = errors.New("checkpoint name is empty")
)

// Manager persists list progress and enforces the checkpoint state machine.
type Manager struct {
	repo          storage.CheckpointRepository
	backend       string
	now           func() time.Time
	mu            sync.RWMutex
	stateCallback func(string, Transition)
	collectors    map[string]*MetricsCollector
}

// SetBackend labels checkpoint save metrics with the storage backend name.
func (m *Manager) SetBackend(name string) {
	m.backend = name
}

// Get retrieves a checkpoint by name.
func (m *Manager) Get(ctx context.Context, name string) (*Checkpoint, error) {
	return m.repo.Get(ctx, name)
}

// List returns every stored checkpoint ordered by name.
func (m *Manager) List(ctx context.Context) ([]*Checkpoint, error) {
	return m.repo.List(ctx)
}

// Start loads the checkpoint for name, creating a pending one bound to action
// if none exists. A finished checkpoint is returned as is; callers decide
// whether to Reset it.
func (m *Manager) Start(ctx context.Context, name, action string) (*Checkpoint, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	cp, err := m.repo.Get(ctx, name)
	if errors.Is(err, storage.ErrCheckpointNotFound) {
		fresh := &Checkpoint{Name: name, Action: action, UpdatedAt: m.now()}
		err = m.repo.Create(ctx, fresh)
		switch {
		case err == nil:
			cp = fresh
		case errors.Is(err, storage.ErrCheckpointExists):
			// Another process created it first.
			cp, err = m.repo.Get(ctx, name)
		default:
			return nil, fmt.Errorf("failed to create checkpoint: %w", err)
		}
	}
	switch {
	case err != nil:
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	case cp.Action != action:
		return nil, fmt.Errorf("%w: %s is bound to %s, not %s", ErrActionMismatch, name, cp.Action, action)
	}

	m.mu.Lock()
	if _, ok := m.collectors[name]; !ok {
		m.collectors[name] = NewMetricsCollector(100)
	}
	m.mu.Unlock()

	return cp, nil
}

// Advance records that a page has been fully consumed. cursor resumes the
// query after that page; done marks the end of the sequence.
func (m *Manager) Advance(ctx context.Context, name, cursor string, items int, done bool) error {
	cp, err := m.repo.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get checkpoint: %w", err)
	}

	from := StateOf(cp)
	if from == StateDone {
		return fmt.Errorf("%w: %s", ErrCheckpointDone, name)
	}

	cp.Cursor = cursor
	if items > 0 {
		cp.Pages++
		cp.Items += int64(items)
	}
	cp.Done = done
	cp.UpdatedAt = m.now()

	to := StateOf(cp)
	if from != to && !CanTransition(from, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, from, to)
	}

	if err := m.save(ctx, cp); err != nil {
		return err
	}

	m.mu.Lock()
	collector, ok := m.collectors[name]
	if !ok {
		collector = NewMetricsCollector(100)
		m.collectors[name] = collector
	}
	collector.RecordPage(items, cp.UpdatedAt)
	m.mu.Unlock()

	if from != to {
		m.transition(name, NewTransition(from, to, fmt.Sprintf("page %d consumed", cp.Pages)))
	}
	return nil
}

// Hook adapts Advance to the iterator's page-consumed callback.
func (m *Manager) Hook(name string) func(ctx context.Context, p paging.Progress) error {
	return func(ctx context.Context, p paging.Progress) error {
		return m.Advance(ctx, name, p.Cursor, p.Items, p.Done)
	}
}

// Complete marks a checkpoint as finished without consuming another page.
func (m *Manager) Complete(ctx context.Context, name string) error {
	cp, err := m.repo.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get checkpoint: %w", err)
	}

	from := StateOf(cp)
	if from == StateDone {
		return nil
	}
	cp.Done = true
	cp.UpdatedAt = m.now()
	if err := m.save(ctx, cp); err != nil {
		return err
	}
	m.transition(name, NewTransition(from, StateDone, "completed"))
	return nil
}

// Reset rewinds a checkpoint to the start of its query, keeping its action.
func (m *Manager) Reset(ctx context.Context, name string) error {
	cp, err := m.repo.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get checkpoint: %w", err)
	}

	from := StateOf(cp)
	cp.Cursor = ""
	cp.Pages = 0
	cp.Items = 0
	cp.Done = false
	cp.UpdatedAt = m.now()

	if err := m.save(ctx, cp); err != nil {
		return err
	}
	if from != StatePending {
		m.transition(name, NewTransition(from, StatePending, "manual reset"))
	}
	return nil
}

// Delete removes a checkpoint and its metrics.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := m.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.mu.Lock()
	delete(m.collectors, name)
	m.mu.Unlock()
	return nil
}

// GetMetrics returns throughput metrics for a checkpoint.
func (m *Manager) GetMetrics(name string) Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if collector, ok := m.collectors[name]; ok {
		return collector.GetMetrics()
	}
	return Metrics{}
}

// SetStateChangeCallback registers a callback for state changes.
func (m *Manager) SetStateChangeCallback(fn func(name string, t Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateCallback = fn
}

func (m *Manager) save(ctx context.Context, cp *Checkpoint) error {
	if err := m.repo.Save(ctx, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	backend := m.backend
	if backend == "" {
		backend = "unknown"
	}
	metrics.CheckpointSaves.WithLabelValues(backend).Inc()
	return nil
}

func (m *Manager) transition(name string, t Transition) {
	m.mu.Lock()
	if collector, ok := m.collectors[name]; ok {
		collector.RecordTransition(t)
	}
	cb := m.stateCallback
	m.mu.Unlock()

	if cb != nil {
		cb(name, t)
	}
}
