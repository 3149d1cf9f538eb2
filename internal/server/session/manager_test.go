package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedManager(ttl time.Duration) (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(&fakeValidator{}, ttl, logging.Discard())
	m.now = clock.Now
	return m, clock
}

func TestManager_GetUnknown(t *testing.T) {
	m, _ := newClockedManager(time.Minute)
	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.True(t, IsNoSession(err))
}

func TestManager_GetExtendsDeadline(t *testing.T) {
	m, clock := newClockedManager(10 * time.Minute)
	ctx := context.Background()
	s := m.Create(ctx, Identity{UserName: "alice"})

	clock.Advance(8 * time.Minute)
	_, err := m.Get(ctx, s.ID())
	require.NoError(t, err)

	clock.Advance(8 * time.Minute)
	got, err := m.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestManager_GetExpired(t *testing.T) {
	m, clock := newClockedManager(10 * time.Minute)
	ctx := context.Background()
	s := m.Create(ctx, Identity{UserName: "alice"})

	clock.Advance(11 * time.Minute)
	_, err := m.Get(ctx, s.ID())
	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.Equal(t, 0, m.Len())
}

func TestManager_DestroyRunsHooksAndClears(t *testing.T) {
	m, _ := newClockedManager(time.Minute)
	ctx := context.Background()

	var seen []string
	m.OnClose(func(ctx context.Context, s *Session) {
		seen = append(seen, s.ID())
		assert.Len(t, s.Artifacts(), 1, "hooks see the data before it is cleared")
	})

	s := m.Create(ctx, Identity{UserName: "alice"})
	s.SetAPIKey("gsk_secret_value")
	s.AppendArtifact(models.Artifact{ID: "a1"})

	assert.True(t, m.Destroy(ctx, s.ID()))
	assert.False(t, m.Destroy(ctx, s.ID()))

	assert.Equal(t, []string{s.ID()}, seen)
	assert.False(t, s.HasAPIKey())
	assert.Empty(t, s.Artifacts())
	_, ok := s.User()
	assert.False(t, ok)

	_, err := m.Get(ctx, s.ID())
	assert.ErrorIs(t, err, common.ErrNoSession)
}

func TestManager_Sweep(t *testing.T) {
	m, clock := newClockedManager(10 * time.Minute)
	ctx := context.Background()

	old := m.Create(ctx, Identity{UserName: "old"})
	clock.Advance(6 * time.Minute)
	fresh := m.Create(ctx, Identity{UserName: "fresh"})
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, m.Sweep(ctx))
	_, err := m.Get(ctx, old.ID())
	assert.ErrorIs(t, err, common.ErrNoSession)
	_, err = m.Get(ctx, fresh.ID())
	assert.NoError(t, err)
}

func TestManager_SweepDisabledWithoutTTL(t *testing.T) {
	m, clock := newClockedManager(0)
	ctx := context.Background()
	m.Create(ctx, Identity{UserName: "alice"})
	clock.Advance(24 * time.Hour)
	assert.Equal(t, 0, m.Sweep(ctx))
	assert.Equal(t, 1, m.Len())
}

func TestManager_RunClosesAllOnShutdown(t *testing.T) {
	m, _ := newClockedManager(time.Minute)
	m.Create(context.Background(), Identity{UserName: "a"})
	m.Create(context.Background(), Identity{UserName: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, 0, m.Len())
}

func TestManager_CreateDistinctIDs(t *testing.T) {
	m, _ := newClockedManager(time.Minute)
	a := m.Create(context.Background(), Identity{UserName: "alice"})
	b := m.Create(context.Background(), Identity{UserName: "alice"})
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, m.Len())
}
