package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

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

type testEnv struct {
	engine *Engine
	store  *repository.MemoryStore
	ads    *repository.MemoryAdCooldownStore
	clock  *fakeClock
	events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithRules(t, domain.DefaultRewardRules())
}

func newTestEnvWithRules(t *testing.T, rules domain.RewardRules) *testEnv {
	t.Helper()
	logger.SetForTest(zap.NewNop())

	env := &testEnv{
		store:  repository.NewMemoryStore(),
		ads:    repository.NewMemoryAdCooldownStore(),
		clock:  &fakeClock{now: t0},
		events: &events.Recorder{},
	}
	env.engine = NewEngine(MemoryStores(env.store, env.ads), rules, env.events, env.clock.Now)
	return env
}

// seed stores p as is, including streak and referral fields.
func (e *testEnv) seed(t *testing.T, p *domain.UserProfile) *domain.UserProfile {
	t.Helper()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = e.clock.Now()
	}
	stored, created, err := e.store.CreateProfileIfAbsent(context.Background(), p)
	require.NoError(t, err)
	require.True(t, created)
	return stored
}

func (e *testEnv) newUser(t *testing.T, userID int64) *domain.UserProfile {
	t.Helper()
	p, _, err := e.engine.Profiles.EnsureProfile(context.Background(), userID, "user")
	require.NoError(t, err)
	return p
}

func (e *testEnv) profile(t *testing.T, userID int64) *domain.UserProfile {
	t.Helper()
	p, err := e.store.GetProfile(context.Background(), userID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) countEvents(typ string) int {
	n := 0
	for _, ev := range e.events.Events() {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (e *testEnv) eventsFor(typ string, userID int64) []events.Event {
	var res []events.Event
	for _, ev := range e.events.Events() {
		if ev.Type == typ && ev.UserID == userID {
			res = append(res, ev)
		}
	}
	return res
}

func timePtr(t time.Time) *time.Time { return &t }
