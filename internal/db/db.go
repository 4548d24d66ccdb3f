// Package db provides database connectivity and migration logic for contentgen.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// pragmas are applied by the driver to every new connection.
const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens the settings database at path, creating its directory first,
// and brings the schema up to date. All access goes through one connection.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	version, err := upgrade(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Int64("schema_version", version).Msg("settings database ready")
	return conn, nil
}

// upgrade applies pending migrations and returns the resulting schema version.
func upgrade(conn *sql.DB) (int64, error) {
	ctx := context.Background()
	scripts, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, scripts)
	if err != nil {
		return 0, fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("migrate settings schema: %w", err)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
