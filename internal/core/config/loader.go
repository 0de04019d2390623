package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/ledger/internal/infra/ledger/retry"
)

// Environment variables that override file settings.
const (
	EnvCredential = "SEQCRED"
	EnvLedgerName = "LEDGER_NAME"
	EnvAPIAddr    = "SEQADDR"
)

// Load reads configuration from a YAML file. An empty path yields the
// defaults plus environment overrides.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv(EnvCredential); v != "" {
		cfg.Ledger.Credential = v
	}
	if v := os.Getenv(EnvLedgerName); v != "" {
		cfg.Ledger.Name = v
	}
	if v := os.Getenv(EnvAPIAddr); v != "" {
		cfg.Ledger.APIURL = "https://" + v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = retry.DefaultMaxRetries
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = retry.DefaultBaseDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = retry.DefaultMaxDelay
	}
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 60 * time.Second
	}
	if cfg.Checkpoint.Backend == "" {
		cfg.Checkpoint.Backend = BackendMemory
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks settings that have no sensible default.
func (c *AppConfig) Validate() error {
	switch c.Checkpoint.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Checkpoint.Redis.URL == "" {
			return fmt.Errorf("checkpoint.redis.url is required for the redis backend")
		}
	case BackendPostgres:
		if c.Checkpoint.Database.URL == "" {
			return fmt.Errorf("checkpoint.database.url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	return nil
}
