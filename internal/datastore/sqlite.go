package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/apiscaffold/internal/config"
	_ "modernc.org/sqlite"
)

const sqliteScheme = "sqlite://"

type sqliteProber struct {
	db   *sql.DB
	path string
	echo bool
}

func newSQLite(s *config.Settings) (*sqliteProber, error) {
	path := sqlitePath(s.DatabaseURL)

	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(s.MaxConns())
	db.SetMaxIdleConns(s.PoolSize)

	return &sqliteProber{db: db, path: path, echo: s.SQLEcho}, nil
}

// sqlitePath maps sqlite://relative/path, sqlite:///absolute/path and
// file: URIs onto what the driver accepts.
func sqlitePath(dsn string) string {
	if rest, ok := strings.CutPrefix(dsn, sqliteScheme); ok {
		return rest
	}
	return dsn
}

func (p *sqliteProber) Name() string { return "sqlite" }

func (p *sqliteProber) Ping(ctx context.Context) error {
	const query = "SELECT 1"
	if p.echo {
		log.Info().Str("sql", query).Str("path", p.path).Msg("sql echo")
	}

	var one int
	if err := p.db.QueryRowContext(ctx, query).Scan(&one); err != nil {
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return nil
}

func (p *sqliteProber) Close() error {
	return p.db.Close()
}
