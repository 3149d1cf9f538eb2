package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/google/uuid"
)

// CloseHook runs after a session is removed, before its data is cleared.
type CloseHook func(ctx context.Context, s *Session)

// Manager owns all live sessions. Sessions idle for longer than ttl are
// treated as ended.
type Manager struct {
	validator KeyValidator
	ttl       time.Duration
	logger    logging.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	hooks    []CloseHook
}

func NewManager(validator KeyValidator, ttl time.Duration, logger logging.Logger) *Manager {
	return &Manager{
		validator: validator,
		ttl:       ttl,
		logger:    logger.With("module", "session"),
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// OnClose registers a hook run whenever a session ends.
func (m *Manager) OnClose(h CloseHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// Create starts a new session bound to user.
func (m *Manager) Create(ctx context.Context, user Identity) *Session {
	s := newSession(uuid.NewString(), m.validator, m.now())
	s.SetUser(user)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info(ctx, "session created", "session_id", s.id, "user", user.UserName)
	return s
}

// Get returns the live session with id and extends its idle deadline.
// Unknown and expired sessions yield common.ErrNoSession.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, common.ErrNoSession
	}

	now := m.now()
	if m.ttl > 0 && s.idleSince(now) > m.ttl {
		m.Destroy(ctx, id)
		return nil, common.ErrNoSession
	}

	s.touch(now)
	return s, nil
}

// Destroy ends the session with id. It reports whether one existed.
func (m *Manager) Destroy(ctx context.Context, id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	hooks := append([]CloseHook(nil), m.hooks...)
	m.mu.Unlock()

	if !ok {
		return false
	}

	for _, h := range hooks {
		h(ctx, s)
	}
	s.clear()

	m.logger.Info(ctx, "session closed", "session_id", id)
	return true
}

// Sweep destroys every session idle for longer than the TTL and returns how
// many were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range expired {
		if m.Destroy(ctx, id) {
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is done, then closes
// the remaining ones.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				m.logger.Info(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) closeAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Destroy(ctx, id)
	}
}
