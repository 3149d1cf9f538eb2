package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/cryptox"
	"github.com/dmitrijs2005/podmate/internal/dbx"
	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/models"
	"github.com/dmitrijs2005/podmate/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/podmate/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	created   *models.User

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.created = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	out := *u
	out.ID = "u1"
	out.CreatedAt = time.Now()
	return &out, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }

func newStore(t *testing.T, repo *fakeUsersRepo) *CredentialStore {
	t.Helper()
	db, _ := newSQLMockDB(t)
	return NewCredentialStore(db, &fakeRepoManager{u: repo}, logging.Discard())
}

func storedUser(t *testing.T, name, password string) *models.User {
	t.Helper()
	salt := cryptox.NewSalt()
	return &models.User{ID: "u1", UserName: name, Salt: salt, Verifier: cryptox.HashPassword([]byte(password), salt)}
}

// --- tests ---

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"ok", "alice", "secret1", false},
		{"empty username", "", "secret1", true},
		{"empty password", "alice", "", true},
		{"short username", "al", "secret1", true},
		{"short password", "alice", "12345", true},
		{"boundary", "abc", "123456", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrorValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func newTxStore(t *testing.T, repo *fakeUsersRepo) (*CredentialStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	return NewCredentialStore(db, &fakeRepoManager{u: repo}, logging.Discard()), mock
}

func TestRegister_Success(t *testing.T) {
	repo := &fakeUsersRepo{}
	s, mock := newTxStore(t, repo)
	mock.ExpectBegin()
	mock.ExpectCommit()

	acct, err := s.Register(context.Background(), "  alice ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", acct.ID)
	assert.Equal(t, "alice", acct.UserName)

	require.NotNil(t, repo.created)
	assert.Equal(t, "alice", repo.created.UserName)
	assert.Len(t, repo.created.Salt, cryptox.SaltSize)
	assert.NotEqual(t, []byte("secret1"), repo.created.Verifier)
	assert.True(t, cryptox.VerifyPassword([]byte("secret1"), repo.created.Salt, repo.created.Verifier))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Errors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		repo := &fakeUsersRepo{}
		s, mock := newTxStore(t, repo)
		_, err := s.Register(context.Background(), "al", "secret1")
		assert.ErrorIs(t, err, common.ErrorValidation)
		assert.Nil(t, repo.created, "repository must not be touched")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		s, mock := newTxStore(t, &fakeUsersRepo{createErr: common.ErrorAlreadyExists})
		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := s.Register(context.Background(), "alice", "secret1")
		assert.ErrorIs(t, err, common.ErrDuplicateUser)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("internal", func(t *testing.T) {
		s, mock := newTxStore(t, &fakeUsersRepo{createErr: errBoom{}})
		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := s.Register(context.Background(), "alice", "secret1")
		assert.ErrorIs(t, err, common.ErrorInternal)
		assert.Contains(t, err.Error(), "boom")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin fails", func(t *testing.T) {
		repo := &fakeUsersRepo{}
		s, mock := newTxStore(t, repo)
		mock.ExpectBegin().WillReturnError(errBoom{})
		_, err := s.Register(context.Background(), "alice", "secret1")
		assert.ErrorIs(t, err, common.ErrorInternal)
		assert.Nil(t, repo.created)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit fails", func(t *testing.T) {
		s, mock := newTxStore(t, &fakeUsersRepo{})
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errBoom{})
		_, err := s.Register(context.Background(), "alice", "secret1")
		assert.ErrorIs(t, err, common.ErrorInternal)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVerify_Flows(t *testing.T) {
	u := storedUser(t, "alice", "secret1")

	t.Run("ok", func(t *testing.T) {
		acct, err := newStore(t, &fakeUsersRepo{getOut: u}).Verify(context.Background(), "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", acct.UserName)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := newStore(t, &fakeUsersRepo{getOut: u}).Verify(context.Background(), "alice", "wrong!")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := newStore(t, &fakeUsersRepo{getErr: common.ErrorNotFound}).Verify(context.Background(), "bob", "secret1")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("repo failure", func(t *testing.T) {
		_, err := newStore(t, &fakeUsersRepo{getErr: errBoom{}}).Verify(context.Background(), "alice", "secret1")
		assert.ErrorIs(t, err, common.ErrorInternal)
	})
}

func openSQLite(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	db, rm, err := repomanager.Open(filepath.Join(t.TempDir(), "data", "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, rm.RunMigrations(context.Background(), db))
	return db, rm
}

func TestCredentialStore_SQLite(t *testing.T) {
	db, rm := openSQLite(t)
	s := NewCredentialStore(db, rm, logging.Discard())
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = s.Register(ctx, "alice", "other-password")
	require.ErrorIs(t, err, common.ErrDuplicateUser)

	// the first registration is unaffected by the rejected duplicate
	_, err = s.Verify(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, err = s.Verify(ctx, "alice", "other-password")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestCredentialStore_ConcurrentRegistration(t *testing.T) {
	db, rm := openSQLite(t)
	s := NewCredentialStore(db, rm, logging.Discard())

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Register(context.Background(), "carol", "secret1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, common.ErrDuplicateUser):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dups)
}
