package service

import (
	"context"
	"errors"
	"time"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores groups every persistence dependency of the engine.
type Stores struct {
	Profiles     ProfileStore
	Sessions     SessionStore
	Achievements AchievementStore
	Referrals    ReferralStore
	Purchases    PurchaseStore
	Ledger       LedgerStore
	Audit        AuditStore
	Stats        StatsStore
	AdCooldown   AdCooldownStore
}

// MemoryStores backs every store with one MemoryStore.
func MemoryStores(m *repository.MemoryStore, ads AdCooldownStore) Stores {
	if ads == nil {
		ads = repository.NewMemoryAdCooldownStore()
	}
	return Stores{
		Profiles:     m,
		Sessions:     m,
		Achievements: m,
		Referrals:    m,
		Purchases:    m,
		Ledger:       m,
		Audit:        m,
		Stats:        m,
		AdCooldown:   ads,
	}
}

// PostgresStores backs the durable stores with Postgres. Ad cooldowns live in
// Redis or memory and are passed in.
func PostgresStores(db *pgxpool.Pool, ads AdCooldownStore) Stores {
	if ads == nil {
		ads = repository.NewMemoryAdCooldownStore()
	}
	return Stores{
		Profiles:     repository.NewProfileRepository(db),
		Sessions:     repository.NewSessionRepository(db),
		Achievements: repository.NewAchievementRepository(db),
		Referrals:    repository.NewReferralRepository(db),
		Purchases:    repository.NewPurchaseRepository(db),
		Ledger:       repository.NewTransactionRepository(db),
		Audit:        repository.NewAuditRepository(db),
		Stats:        repository.NewAdminRepository(db),
		AdCooldown:   ads,
	}
}

// Engine holds the reward components, all sharing one rule set and one clock.
type Engine struct {
	Profiles     *ProfileService
	Streaks      *StreakTracker
	Sessions     *SessionManager
	Ads          *AdBonusGate
	MiningRate   *MiningRateCalculator
	Presale      *PresaleService
	Referrals    *ReferralLedger
	Achievements *AchievementEngine
	Audit        *AuditService
	Admin        *AdminService
}

func NewEngine(st Stores, rules domain.RewardRules, pub events.Publisher, clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	audit := NewAuditService(st.Audit)
	b := base{rules: rules, now: clock, pub: pub, audit: audit}

	streaks := &StreakTracker{base: b, profiles: st.Profiles}
	rate := &MiningRateCalculator{base: b, profiles: st.Profiles, purchases: st.Purchases}
	presale := &PresaleService{base: b, profiles: st.Profiles, purchases: st.Purchases, rate: rate}

	return &Engine{
		Profiles:     &ProfileService{base: b, profiles: st.Profiles, ledger: st.Ledger, streaks: streaks},
		Streaks:      streaks,
		Sessions:     &SessionManager{base: b, profiles: st.Profiles, sessions: st.Sessions},
		Ads:          &AdBonusGate{base: b, profiles: st.Profiles, cooldowns: st.AdCooldown},
		MiningRate:   rate,
		Presale:      presale,
		Referrals:    &ReferralLedger{base: b, profiles: st.Profiles, referrals: st.Referrals},
		Achievements: &AchievementEngine{base: b, profiles: st.Profiles, achievements: st.Achievements},
		Audit:        audit,
		Admin:        &AdminService{base: b, achievements: st.Achievements, purchases: st.Purchases, stats: st.Stats, presale: presale},
	}
}

// Rules returns the reward constants the engine runs with.
func (e *Engine) Rules() domain.RewardRules {
	return e.Sessions.rules
}

type base struct {
	rules domain.RewardRules
	now   Clock
	pub   events.Publisher
	audit *AuditService
}

// dayOf returns midnight of t's calendar day in the engine zone.
func (b *base) dayOf(t time.Time) time.Time {
	loc := b.rules.Streak.Location
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (b *base) emit(ctx context.Context, userID int64, typ string, payload map[string]any) {
	if b.pub == nil {
		return
	}
	if err := b.pub.Publish(ctx, events.Channel, events.Event{Type: typ, UserID: userID, Payload: payload}); err != nil {
		logger.Warn("failed to publish event", "type", typ, "user_id", userID, "error", err)
	}
}

// fail classifies err for operation op. Validation errors pass unchanged and are
// counted; anything else becomes a retryable RemoteWriteError.
func (b *base) fail(op string, err error) error {
	if v, ok := domain.IsValidation(err); ok {
		ClaimsRejected.WithLabelValues(op, string(v.Kind)).Inc()
		return err
	}
	if errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}
	RemoteWriteFailures.WithLabelValues(op).Inc()
	logger.Warn("store operation failed", "operation", op, "error", err)
	return domain.RemoteWrite(op, err)
}
