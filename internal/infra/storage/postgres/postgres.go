package postgres

import (
	"context"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

func driverName(name string) (string, error) {
	switch name {
	case "", DriverPgx:
		return DriverPgx, nil
	case DriverPq, "pq":
		return DriverPq, nil
	default:
		return "", fmt.Errorf("unsupported postgres driver %q", name)
	}
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	// Goose needs the *sql.DB that sqlx wraps.
	if err := goose.UpContext(ctx, db.DB.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
