package service

import (
	"context"
	"time"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
)

// AdBonusGate grants the ad reward at most once per cooldown window. The cooldown
// is always derived from the stored last-watch stamp.
type AdBonusGate struct {
	base
	profiles  ProfileStore
	cooldowns AdCooldownStore
}

// AdGrant - result of a granted ad watch
type AdGrant struct {
	Reward  float64             `json:"reward"`
	Status  domain.AdStatus     `json:"status"`
	Profile *domain.UserProfile `json:"profile,omitempty"`
}

func (g *AdBonusGate) Status(ctx context.Context, userID int64) (domain.AdStatus, error) {
	last, err := g.cooldowns.LastWatch(ctx, userID)
	if err != nil {
		return domain.AdStatus{}, g.fail("ad_status", err)
	}
	return domain.DeriveAdStatus(g.now(), last, g.rules.Ad), nil
}

// Watch records a completed ad and credits the reward. During the cooldown it
// returns a cooldown ValidationError carrying the time left.
func (g *AdBonusGate) Watch(ctx context.Context, userID int64) (*AdGrant, error) {
	now := g.now()

	granted, last, err := g.cooldowns.TryRecordWatch(ctx, userID, now, g.rules.Ad.Cooldown)
	if err == nil && !granted && domain.CanWatchAd(now, last, g.rules.Ad.Cooldown) {
		// the store still holds a stamp our clock says is expired (TTL vs clock skew):
		// drop exactly that stamp and try once more
		logger.Warn("stale ad watch stamp, replacing", "user_id", userID, "stamp", last, "now", now)
		if err = g.cooldowns.ReleaseWatch(ctx, userID, last); err == nil {
			granted, last, err = g.cooldowns.TryRecordWatch(ctx, userID, now, g.rules.Ad.Cooldown)
		}
	}
	if err != nil {
		return nil, g.fail("ad_watch", err)
	}

	if !granted {
		remaining := domain.AdCooldownRemaining(now, last, g.rules.Ad.Cooldown)
		if remaining < time.Second {
			remaining = time.Second
		}
		g.emit(ctx, userID, events.EventAdOnCooldown, map[string]any{"remaining_seconds": int64((remaining + time.Second - 1) / time.Second)})
		return nil, g.fail("ad_watch", domain.CooldownError(remaining))
	}

	p, err := g.profiles.Credit(ctx, userID, domain.Credit{
		Source:      domain.SourceAdBonus,
		Amount:      g.rules.Ad.Reward,
		AddLifetime: true,
		AddToday:    true,
		Day:         g.dayOf(now),
	}, now)
	if err != nil {
		if rerr := g.cooldowns.ReleaseWatch(ctx, userID, last); rerr != nil {
			logger.Error("failed to release ad watch after credit failure", "user_id", userID, "error", rerr)
		}
		return nil, g.fail("ad_watch", err)
	}

	observeCredit(domain.SourceAdBonus, g.rules.Ad.Reward)
	g.emit(ctx, userID, events.EventAdBonusGranted, map[string]any{
		"reward":      g.rules.Ad.Reward,
		"total_coins": p.TotalCoins,
	})
	g.audit.LogCredit(ctx, userID, domain.AuditActionAdBonus, domain.AuditCategoryAds, g.rules.Ad.Reward, nil)

	return &AdGrant{
		Reward:  g.rules.Ad.Reward,
		Status:  domain.DeriveAdStatus(now, last, g.rules.Ad),
		Profile: p,
	}, nil
}
