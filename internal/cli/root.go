package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/ledger/internal/control"
	"github.com/vietddude/ledger/internal/core/config"
	"github.com/vietddude/ledger/internal/infra/ledger/retry"
)

var (
	cfgPath string
	envFile string
	isDebug bool

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Ledger API command line client",
	Long: `ledgerctl talks to a remote ledger over HTTP+JSON with automatic retries,
and streams paginated queries with resumable checkpoints.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (defaults and environment only when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	// A missing .env file is normal.
	_ = godotenv.Load(envFile)

	loaded, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	stylelog.InitDefault(&tint.Options{
		Level:      logLevel(cfg.Logging.Level, isDebug),
		TimeFormat: time.RFC3339,
	})
	return nil
}

func logLevel(level string, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// withApp builds the application for one command and closes it afterwards.
func withApp(ctx context.Context, fn func(app *control.App) error) error {
	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Close(shutdownCtx); err != nil {
			slog.Warn("Error during shutdown", "error", err)
		}
	}()
	return fn(app)
}

// printError writes err with the structured fields of any ledger error it wraps.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var apiErr *retry.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	fmt.Fprintf(w, "  code:       %s\n", apiErr.Code)
	fmt.Fprintf(w, "  message:    %s\n", apiErr.Message)
	if apiErr.Detail != "" {
		fmt.Fprintf(w, "  detail:     %s\n", apiErr.Detail)
	}
	if apiErr.RequestID != "" {
		fmt.Fprintf(w, "  request id: %s\n", apiErr.RequestID)
	}
	for i, nested := range apiErr.Nested {
		if nested == nil {
			continue
		}
		fmt.Fprintf(w, "  action %d:   %s %s\n", i, nested.Code, nested.Message)
	}
}
