package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/ledger/internal/core/config"
	"github.com/vietddude/ledger/internal/infra/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	dbURL := flag.String("database-url", "", "Postgres URL; overrides checkpoint.database.url")
	flag.Parse()

	_ = godotenv.Load()
	stylelog.InitDefault(&tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	})

	dbCfg := postgres.Config{URL: *dbURL}
	if dbCfg.URL == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
		dbCfg = cfg.Checkpoint.Database
	}
	if dbCfg.URL == "" {
		slog.Error("No database URL configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.NewDB(ctx, dbCfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	fmt.Println("Checkpoint schema is up to date")
}
