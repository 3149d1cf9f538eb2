package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/podmate/internal/dbx"
	"github.com/dmitrijs2005/podmate/internal/server/migrations"
	"github.com/dmitrijs2005/podmate/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, migrations.SQLiteDir)
}

func NewSQLiteRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &SQLiteRepositoryManager{}, nil
}
