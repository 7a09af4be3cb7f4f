package service

import (
	"context"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
)

// MiningRateCalculator derives coinsPerSecond from completed presale purchases.
type MiningRateCalculator struct {
	base
	profiles  ProfileStore
	purchases PurchaseStore
}

// MiningRateStatus - auto rate plus the manual daily rate
type MiningRateStatus struct {
	domain.AutoMiningRate
	CoinsPerSecond     float64 `json:"coins_per_second"`
	DailyMiningRate    float64 `json:"daily_mining_rate"`
	TotalRatePerSecond float64 `json:"total_rate_per_second"`
}

func (c *MiningRateCalculator) Calculate(totalSpentUSD float64) domain.AutoMiningRate {
	return domain.CalculateAutoMiningRate(totalSpentUSD, c.rules.MiningRate)
}

func (c *MiningRateCalculator) Status(ctx context.Context, userID int64) (*MiningRateStatus, error) {
	p, err := c.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, c.fail("mining_rate", err)
	}
	total, err := c.purchases.SumCompletedUSD(ctx, userID)
	if err != nil {
		return nil, c.fail("mining_rate", err)
	}
	return &MiningRateStatus{
		AutoMiningRate:     c.Calculate(total),
		CoinsPerSecond:     p.CoinsPerSecond,
		DailyMiningRate:    p.DailyMiningRate,
		TotalRatePerSecond: domain.TotalMiningRate(p),
	}, nil
}

// Recompute writes the rate for the current purchase total to the profile.
// Running it twice on the same purchases stores the same value.
func (c *MiningRateCalculator) Recompute(ctx context.Context, userID int64) (domain.AutoMiningRate, error) {
	total, err := c.purchases.SumCompletedUSD(ctx, userID)
	if err != nil {
		return domain.AutoMiningRate{}, c.fail("mining_rate_recompute", err)
	}
	rate := c.Calculate(total)

	if err := c.profiles.SetCoinsPerSecond(ctx, userID, rate.Rate); err != nil {
		return domain.AutoMiningRate{}, c.fail("mining_rate_recompute", err)
	}

	c.emit(ctx, userID, events.EventMiningRateUpdate, map[string]any{
		"rate":          rate.Rate,
		"total_spent":   rate.TotalSpentUSD,
		"limit_reached": rate.LimitReached,
	})
	logger.Info("mining rate updated", "user_id", userID, "rate", rate.Rate, "total_spent_usd", total)
	return rate, nil
}
