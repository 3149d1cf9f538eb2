package repomanager

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/podmate/internal/server/migrations"
	"github.com/dmitrijs2005/podmate/internal/server/models"
	"github.com/dmitrijs2005/podmate/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostgresDSN(t *testing.T) {
	tests := map[string]bool{
		"postgres://u:p@localhost:5432/podmate":   true,
		"postgresql://u:p@localhost:5432/podmate": true,
		"data/podmate.db":                         false,
		"file:podmate.db?cache=shared":            false,
		":memory:":                                false,
	}
	for dsn, want := range tests {
		assert.Equal(t, want, IsPostgresDSN(dsn), dsn)
	}
}

func TestOpen_SQLiteCreatesDirAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "podmate.db")

	db, m, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, ok := m.(*SQLiteRepositoryManager)
	require.True(t, ok)

	require.NoError(t, m.RunMigrations(context.Background(), db))

	repo := m.Users(db)
	_, ok = repo.(*users.SQLiteRepository)
	require.True(t, ok)

	_, err = repo.Create(context.Background(), &models.User{UserName: "alice", Salt: []byte("s"), Verifier: []byte("v")})
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestOpen_SQLiteMigrationsIdempotent(t *testing.T) {
	db, m, err := Open(filepath.Join(t.TempDir(), "podmate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, m.RunMigrations(context.Background(), db))
	require.NoError(t, m.RunMigrations(context.Background(), db))
}

func TestOpen_Postgres(t *testing.T) {
	db, m, err := Open("postgres://u:p@127.0.0.1:1/podmate?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, ok := m.(*PostgresRepositoryManager)
	assert.True(t, ok)
}

func TestSQLiteManager_RunMigrationsUsesSQLiteDir(t *testing.T) {
	var gotDir string
	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	})

	m := &SQLiteRepositoryManager{}
	require.NoError(t, m.RunMigrations(context.Background(), newDB(t)))
	assert.Equal(t, migrations.SQLiteDir, gotDir)
}
