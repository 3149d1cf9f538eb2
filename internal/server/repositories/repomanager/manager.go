// Package repomanager vends repositories for the configured database dialect
// and runs the matching goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/podmate/internal/dbx"
	"github.com/dmitrijs2005/podmate/internal/filex"
	"github.com/dmitrijs2005/podmate/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// IsPostgresDSN reports whether dsn addresses PostgreSQL rather than a
// SQLite file.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to dsn and returns the handle together with the manager for
// its dialect. SQLite paths get their parent directory created and a busy
// timeout; the pool is limited to one connection so writes serialise.
func Open(dsn string) (*sql.DB, RepositoryManager, error) {
	if IsPostgresDSN(dsn) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		m, err := NewPostgresRepositoryManager(db)
		return db, m, err
	}

	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if _, err := filex.EnsureParentDir(dsn); err != nil {
			return nil, nil, err
		}
		dsn = "file:" + dsn + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	m, err := NewSQLiteRepositoryManager(db)
	return db, m, err
}
