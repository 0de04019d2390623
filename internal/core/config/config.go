package config

import (
	"time"

	redisclient "github.com/vietddude/ledger/internal/infra/redis"
	"github.com/vietddude/ledger/internal/infra/storage/postgres"
)

// Checkpoint storage backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Ledger     LedgerConfig     `yaml:"ledger"`
	Retry      RetryConfig      `yaml:"retry"`
	HTTP       HTTPConfig       `yaml:"http"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
}

// LedgerConfig identifies the ledger and how to reach it.
type LedgerConfig struct {
	APIURL     string `yaml:"api_url"`
	Name       string `yaml:"name"`
	Credential string `yaml:"credential"`
	URL        string `yaml:"url"` // skips discovery when set
}

// RetryConfig tunes the request executor.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `yaml:"burst"`
}

// CheckpointConfig selects where list progress is stored.
type CheckpointConfig struct {
	Backend   string             `yaml:"backend"`   // memory, redis, postgres
	Retention time.Duration      `yaml:"retention"` // prune finished checkpoints older than this, 0 = keep
	Redis     redisclient.Config `yaml:"redis"`
	Database  postgres.Config    `yaml:"database"`
}

// ServerConfig holds the metrics server settings.
type ServerConfig struct {
	Port int `yaml:"port"` // 0 disables the server
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
