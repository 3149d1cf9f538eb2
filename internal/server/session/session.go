// Package session keeps the per-visit state of a signed-in user: who they
// are, the provider API key they supplied, the podcasts they generated and
// their research assistant conversation. Nothing here is persisted and no
// session can reach another session's data.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/server/models"
)

// KeyValidator checks a provider API key. llm.Client satisfies it.
type KeyValidator interface {
	Probe(ctx context.Context, apiKey string) error
}

// Identity is the part of a user that is safe to hand to handlers.
type Identity struct {
	UserID   string
	UserName string
}

type Session struct {
	id        string
	createdAt time.Time
	validator KeyValidator

	mu        sync.Mutex
	user      *Identity
	apiKey    string
	keyValid  bool
	artifacts []models.Artifact
	turns     []models.Turn
	lastSeen  time.Time
}

func newSession(id string, validator KeyValidator, now time.Time) *Session {
	return &Session{id: id, validator: validator, createdAt: now, lastSeen: now}
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) User() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return Identity{}, false
	}
	return *s.user, true
}

func (s *Session) SetUser(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &id
}

// SetAPIKey stores key for this session. The key is validated on first use
// (or by an explicit call to APIKey).
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != s.apiKey {
		s.keyValid = false
	}
	s.apiKey = key
}

func (s *Session) HasAPIKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey != ""
}

func (s *Session) APIKeyValidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey != "" && s.keyValid
}

// APIKey returns the session's provider key, probing the provider the first
// time a given key is used. It fails with common.ErrInvalidAPIKey when no
// key is set or the provider rejects it.
func (s *Session) APIKey(ctx context.Context) (string, error) {
	s.mu.Lock()
	key, valid := s.apiKey, s.keyValid
	s.mu.Unlock()

	if key == "" {
		return "", fmt.Errorf("%w: no API key set", common.ErrInvalidAPIKey)
	}
	if valid {
		return key, nil
	}

	if err := s.validator.Probe(ctx, key); err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.apiKey == key {
		s.keyValid = true
	}
	s.mu.Unlock()

	return key, nil
}

func (s *Session) AppendArtifact(a models.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, a)
}

// Artifacts returns the session's artifacts in generation order.
func (s *Session) Artifacts() []models.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Artifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

func (s *Session) Artifact(id string) (models.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.artifacts {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Artifact{}, common.ErrorNotFound
}

func (s *Session) AppendTurn(t models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// clear drops everything the session holds.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.apiKey = ""
	s.keyValid = false
	s.artifacts = nil
	s.turns = nil
}

// IsNoSession reports whether err means the visitor has no live session.
func IsNoSession(err error) bool {
	return errors.Is(err, common.ErrNoSession)
}
