package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/auth"
	"github.com/dmitrijs2005/podmate/internal/server/session"
)

// TokenValidity caps how long a session cookie is accepted, independent of
// the idle timeout enforced by the session manager.
const TokenValidity = 12 * time.Hour

type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*Account, error)
}

// Authenticator establishes sessions for verified users and resolves the
// signed session token presented on later requests.
type Authenticator struct {
	credentials CredentialVerifier
	sessions    *session.Manager
	jwtSecret   []byte
	logger      logging.Logger
}

func NewAuthenticator(c CredentialVerifier, sessions *session.Manager, secretKey string, logger logging.Logger) *Authenticator {
	return &Authenticator{
		credentials: c,
		sessions:    sessions,
		jwtSecret:   []byte(secretKey),
		logger:      logger.With("module", "authenticator"),
	}
}

// Login verifies the credentials and, on success, creates a session bound
// to the user and returns it with its signed token. On failure nothing is
// created and existing sessions are left alone.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*session.Session, string, error) {
	acct, err := a.credentials.Verify(ctx, username, password)
	if err != nil {
		a.logger.Warn(ctx, "login failed", "user", username, "error", err)
		return nil, "", err
	}

	s := a.sessions.Create(ctx, session.Identity{UserID: acct.ID, UserName: acct.UserName})

	token, err := auth.GenerateSessionToken(s.ID(), acct.ID, a.jwtSecret, TokenValidity)
	if err != nil {
		a.sessions.Destroy(ctx, s.ID())
		return nil, "", common.ErrorInternal
	}

	return s, token, nil
}

// Resolve returns the live session for token.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, common.ErrNoSession
	}
	claims, err := auth.ParseSessionToken(token, a.jwtSecret)
	if err != nil {
		return nil, err
	}

	s, err := a.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}

	if u, ok := s.User(); !ok || u.UserID != claims.UserID {
		return nil, common.ErrInvalidToken
	}
	return s, nil
}

// Logout ends the session behind token, if any.
func (a *Authenticator) Logout(ctx context.Context, token string) {
	claims, err := auth.ParseSessionToken(token, a.jwtSecret)
	if err != nil {
		return
	}
	a.sessions.Destroy(ctx, claims.SessionID)
}
