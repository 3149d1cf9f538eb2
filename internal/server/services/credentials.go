// Package services holds PodMate's account logic: the credential store that
// registers and verifies users, and the authenticator that turns a verified
// login into a session.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/cryptox"
	"github.com/dmitrijs2005/podmate/internal/dbx"
	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/models"
	"github.com/dmitrijs2005/podmate/internal/server/repositories/repomanager"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// Account is a user as seen outside the credential store; it never carries
// the salt or the password verifier.
type Account struct {
	ID        string
	UserName  string
	CreatedAt time.Time
}

// CredentialStore registers users and checks their passwords. Passwords are
// stored as argon2id verifiers under a per-user random salt.
type CredentialStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCredentialStore(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CredentialStore {
	return &CredentialStore{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "credentials"),
	}
}

// ValidateCredentials applies the registration rules: both fields present,
// username at least 3 characters, password at least 6.
func ValidateCredentials(username, password string) error {
	switch {
	case username == "" || password == "":
		return fmt.Errorf("%w: please fill in all fields", common.ErrorValidation)
	case utf8.RuneCountInString(username) < MinUsernameLength:
		return fmt.Errorf("%w: username must be at least %d characters", common.ErrorValidation, MinUsernameLength)
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	return nil
}

// Register creates a user. A taken username fails with
// common.ErrDuplicateUser and leaves the existing record untouched.
func (s *CredentialStore) Register(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if err := ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	salt := cryptox.NewSalt()
	user := &models.User{
		UserName: username,
		Salt:     salt,
		Verifier: cryptox.HashPassword(pw, salt),
	}

	var u *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		u, err = s.repomanager.Users(tx).Create(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrDuplicateUser
		}
		s.logger.Error(ctx, "create user failed", "error", err)
		return nil, fmt.Errorf("%w: creating user: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "user registered", "user", u.UserName)
	return toAccount(u), nil
}

// Verify succeeds iff password hashes to the stored verifier for username.
// Unknown users cost the same hashing work as known ones.
func (s *CredentialStore) Verify(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.VerifyPassword(pw, s.getRandomSalt(), nil)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "lookup user failed", "error", err)
		return nil, fmt.Errorf("%w: looking up user: %v", common.ErrorInternal, err)
	}

	if !cryptox.VerifyPassword(pw, user.Salt, user.Verifier) {
		return nil, common.ErrInvalidCredentials
	}

	return toAccount(user), nil
}

func (s *CredentialStore) getRandomSalt() []byte { return cryptox.NewSalt() }

func toAccount(u *models.User) *Account {
	return &Account{ID: u.ID, UserName: u.UserName, CreatedAt: u.CreatedAt}
}
