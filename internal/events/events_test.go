package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus_DeliversToSubscribers(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(ctx, Channel, func(e Event) { got <- e }))

	require.NoError(t, bus.Publish(ctx, Channel, Event{Type: EventSessionStarted, UserID: 7}))

	select {
	case e := <-got:
		assert.Equal(t, EventSessionStarted, e.Type)
		assert.Equal(t, int64(7), e.UserID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestLocalBus_OtherStreamIgnored(t *testing.T) {
	bus := NewLocalBus()
	ctx := context.Background()

	called := false
	require.NoError(t, bus.Subscribe(ctx, "other", func(Event) { called = true }))
	require.NoError(t, bus.Publish(ctx, Channel, Event{Type: EventAdBonusGranted}))
	assert.False(t, called)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_ = r.Publish(context.Background(), Channel, Event{Type: EventAdBonusGranted})
	_ = r.Publish(context.Background(), Channel, Event{Type: EventAdOnCooldown})
	assert.Equal(t, []string{EventAdBonusGranted, EventAdOnCooldown}, r.Types())
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisPubSubIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan Event, 1)
	require.NoError(t, NewRedisSubscriber(client).Subscribe(ctx, "engine:test", func(e Event) { got <- e }))
	require.NoError(t, NewRedisPublisher(client).Publish(ctx, "engine:test", Event{
		Type:    EventReferralSuccess,
		UserID:  42,
		Payload: map[string]any{"referrer_bonus": 1.0},
	}))

	select {
	case e := <-got:
		assert.Equal(t, EventReferralSuccess, e.Type)
		assert.Equal(t, int64(42), e.UserID)
		assert.Equal(t, 1.0, e.Payload["referrer_bonus"])
	case <-ctx.Done():
		t.Fatal("event not received")
	}
}
