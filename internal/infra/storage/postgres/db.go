package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/ledger/internal/infra/ledger/metrics"
)

// Checkpoint writes come from one iterator per run, so the pool stays small.
const (
	defaultMaxOpenConns = 4
	defaultMaxIdleConns = 1
	defaultConnLifetime = 30 * time.Minute
)

// Config holds the checkpoint database settings.
type Config struct {
	URL          string        `yaml:"url"`
	Driver       string        `yaml:"driver"` // pgx (default) or postgres (lib/pq)
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	c.MaxIdleConns = min(c.MaxIdleConns, c.MaxOpenConns)
	if c.ConnLifetime <= 0 {
		c.ConnLifetime = defaultConnLifetime
	}
	return c
}

// DB is the checkpoint database handle.
type DB struct {
	*sqlx.DB
	driver string
}

// NewDB connects to the checkpoint database and sizes its pool.
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	db, err := sqlx.ConnectContext(ctx, driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect checkpoint database (%s): %w", driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	return &DB{DB: db, driver: driver}, nil
}

// Driver returns the registered driver name in use.
func (db *DB) Driver() string {
	return db.driver
}

// WatchPool publishes pool statistics every interval until ctx ends.
func (db *DB) WatchPool(ctx context.Context, interval time.Duration) {
	db.recordPoolStats()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.recordPoolStats()
			}
		}
	}()
}

func (db *DB) recordPoolStats() {
	s := db.Stats()
	metrics.CheckpointDBConnections.WithLabelValues(db.driver, "in_use").Set(float64(s.InUse))
	metrics.CheckpointDBConnections.WithLabelValues(db.driver, "idle").Set(float64(s.Idle))
	metrics.CheckpointDBWaits.WithLabelValues(db.driver).Set(float64(s.WaitCount))
}
