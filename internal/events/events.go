package events

import (
	"context"
	"sync"
)

// Channel carries every engine event
const Channel = "engine:events"

// Event types
const (
	EventSessionStarted   = "session_started"
	EventSessionComplete  = "session_complete_unclaimed"
	EventSessionClaimed   = "session_claimed"
	EventSessionStopped   = "session_stopped"
	EventReferralSuccess  = "referral_success"
	EventReferralError    = "referral_error"
	EventAchievementClaim = "achievement_claimed"
	EventAdBonusGranted   = "ad_bonus_granted"
	EventAdOnCooldown     = "ad_on_cooldown"
	EventStreakUpdated    = "streak_updated"
	EventMiningRateUpdate = "mining_rate_updated"
	EventSocialSubmitted  = "social_submitted"
	EventSocialReviewed   = "social_reviewed"
	EventPurchaseReviewed = "purchase_reviewed"
)

type Event struct {
	Type    string         `json:"type"`
	UserID  int64          `json:"user_id"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// LocalBus delivers events in process when Redis is not configured.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(Event)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string][]func(Event))}
}

func (b *LocalBus) Publish(_ context.Context, stream string, event Event) error {
	b.mu.RLock()
	hs := append([]func(Event){}, b.handlers[stream]...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(event)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	b.mu.Lock()
	b.handlers[stream] = append(b.handlers[stream], handler)
	idx := len(b.handlers[stream]) - 1
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if hs := b.handlers[stream]; idx < len(hs) {
			hs[idx] = func(Event) {}
		}
	}()
	return nil
}

// Recorder keeps published events, for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, _ string, event Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the type of every recorded event in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
