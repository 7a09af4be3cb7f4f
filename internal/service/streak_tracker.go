package service

import (
	"context"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
)

// StreakTracker applies the daily login streak. A lost compare-and-set means a
// concurrent login already moved last_login_date; the profile is re-read and
// evaluated again.
type StreakTracker struct {
	base
	profiles ProfileStore
}

const streakAttempts = 3

// Track evaluates one login for p and persists the result. The returned profile
// reflects the stored state.
func (t *StreakTracker) Track(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, domain.StreakUpdate, error) {
	for attempt := 0; attempt < streakAttempts; attempt++ {
		now := t.now()
		upd := domain.EvaluateStreak(p, now, t.rules.Streak)

		ok, err := t.profiles.ApplyStreak(ctx, p.UserID, p.LastLoginDate, upd)
		if err != nil {
			return nil, domain.StreakUpdate{}, t.fail("streak", err)
		}
		if ok {
			updated := *p
			upd.Apply(&updated)
			t.afterStreak(ctx, &updated, upd)
			return &updated, upd, nil
		}

		logger.Debug("streak compare-and-set lost, reloading", "user_id", p.UserID, "attempt", attempt+1)
		p, err = t.profiles.GetProfile(ctx, p.UserID)
		if err != nil {
			return nil, domain.StreakUpdate{}, t.fail("streak", err)
		}
	}
	// another login on the same instant keeps winning; its result already counts
	return p, domain.StreakUpdate{CurrentStreak: p.CurrentStreak, LongestStreak: p.LongestStreak, StreakBonusClaimed: p.StreakBonusClaimed}, nil
}

func (t *StreakTracker) afterStreak(ctx context.Context, p *domain.UserProfile, upd domain.StreakUpdate) {
	if !upd.Changed() {
		return
	}
	payload := map[string]any{
		"current_streak": upd.CurrentStreak,
		"longest_streak": upd.LongestStreak,
		"bonus":          upd.Bonus,
	}
	t.emit(ctx, p.UserID, events.EventStreakUpdated, payload)

	if upd.Bonus > 0 {
		observeCredit(domain.SourceStreakBonus, upd.Bonus)
		t.audit.LogCredit(ctx, p.UserID, domain.AuditActionStreakBonus, domain.AuditCategoryStreak, upd.Bonus,
			map[string]interface{}{"streak": upd.CurrentStreak})
		logger.Info("streak bonus granted", "user_id", p.UserID, "streak", upd.CurrentStreak, "bonus", upd.Bonus)
	}
}
