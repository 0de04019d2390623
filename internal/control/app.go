// Package control wires configuration into a ready-to-use ledger client,
// typed service, checkpoint manager and metrics server.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietddude/ledger/internal/api"
	"github.com/vietddude/ledger/internal/core/config"
	"github.com/vietddude/ledger/internal/core/cursor"
	"github.com/vietddude/ledger/internal/infra/ledger"
	"github.com/vietddude/ledger/internal/infra/ledger/metrics"
	"github.com/vietddude/ledger/internal/infra/ledger/retry"
)

// App holds the long-lived components built from configuration.
type App struct {
	cfg         *config.AppConfig
	Client      *ledger.Client
	Service     *api.Service
	Checkpoints *cursor.Manager

	store         *checkpointStore
	metricsServer *metrics.Server
	log           *slog.Logger
}

// ClientOptions translates configuration into client options.
func ClientOptions(cfg *config.AppConfig) []ledger.Option {
	return []ledger.Option{
		ledger.WithMaxRetries(cfg.Retry.MaxRetries),
		ledger.WithBackoff(retry.NewBackoff(
			retry.WithBaseDelay(cfg.Retry.BaseDelay),
			retry.WithMaxDelay(cfg.Retry.MaxDelay),
		)),
		ledger.WithHTTPTimeout(cfg.HTTP.Timeout),
		ledger.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.Burst),
	}
}

// NewApp builds the application. Extra options are applied after the
// configured ones.
func NewApp(ctx context.Context, cfg *config.AppConfig, opts ...ledger.Option) (*App, error) {
	log := slog.Default().With("component", "control")

	clientOpts := append(ClientOptions(cfg), ledger.WithLogger(slog.Default()))
	clientOpts = append(clientOpts, opts...)

	client, err := ledger.NewClient(ledger.Config{
		APIURL:     cfg.Ledger.APIURL,
		LedgerName: cfg.Ledger.Name,
		Credential: cfg.Ledger.Credential,
		LedgerURL:  cfg.Ledger.URL,
	}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	store, err := openCheckpointStore(ctx, cfg.Checkpoint)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	manager := cursor.NewManager(store.repo)
	manager.SetBackend(cfg.Checkpoint.Backend)
	manager.SetStateChangeCallback(func(name string, t cursor.Transition) {
		log.Debug("Checkpoint state changed", "name", name, "from", t.From, "to", t.To, "reason", t.Reason)
	})

	return &App{
		cfg:         cfg,
		Client:      client,
		Service:     api.NewService(client),
		Checkpoints: manager,
		store:       store,
		log:         log,
	}, nil
}

// StartMetrics serves /metrics and /health on port in the background.
// A non-positive port disables the server.
func (a *App) StartMetrics(port int) {
	if port <= 0 || a.metricsServer != nil {
		return
	}
	a.metricsServer = metrics.NewServer(a.Client.Health, port)
	go func() {
		a.log.Info("Metrics server listening", "port", port)
		if err := a.metricsServer.Start(); err != nil {
			a.log.Error("Metrics server failed", "error", err)
		}
	}()
}

// Close stops the metrics server and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.metricsServer != nil {
		if err := a.metricsServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics server: %w", err))
		}
	}
	if err := a.store.close(); err != nil {
		errs = append(errs, fmt.Errorf("close checkpoint store: %w", err))
	}
	if err := a.Client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close client: %w", err))
	}
	return errors.Join(errs...)
}
