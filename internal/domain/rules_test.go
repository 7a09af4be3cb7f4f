package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDaysBetween(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST starts on 2026-03-08 in New York
	before := time.Date(2026, 3, 7, 23, 0, 0, 0, ny)
	after := time.Date(2026, 3, 8, 23, 0, 0, 0, ny)
	assert.Equal(t, 1, CalendarDaysBetween(before, after, ny))

	a := time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)
	b := time.Date(2026, 1, 1, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, 0, CalendarDaysBetween(a, b, nil))
	assert.Equal(t, 31, CalendarDaysBetween(a, b.AddDate(0, 1, 0), time.UTC))
	assert.Equal(t, -1, CalendarDaysBetween(b, a.AddDate(0, 0, -1), time.UTC))
}

func TestEvaluateStreak_Property(t *testing.T) {
	rules := DefaultRewardRules().Streak
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

	for streak := 0; streak < 12; streak++ {
		for gap := 0; gap < 4; gap++ {
			last := now.AddDate(0, 0, -gap)
			p := &UserProfile{CurrentStreak: streak, LongestStreak: streak, LastLoginDate: &last, StreakBonusClaimed: 0}
			upd := EvaluateStreak(p, now, rules)

			switch gap {
			case 0:
				assert.Equal(t, streak, upd.CurrentStreak)
			case 1:
				assert.Equal(t, streak+1, upd.CurrentStreak)
			default:
				assert.Equal(t, 1, upd.CurrentStreak)
			}
			assert.GreaterOrEqual(t, upd.LongestStreak, upd.CurrentStreak)

			if gap == 1 && streak+1 == 7 {
				assert.Equal(t, 5.0, upd.Bonus)
				assert.Equal(t, 1, upd.StreakBonusClaimed)
			} else {
				assert.Equal(t, 0.0, upd.Bonus, fmt.Sprintf("streak %d gap %d", streak, gap))
			}
		}
	}
}

func TestStreakUpdate_Apply(t *testing.T) {
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	p := &UserProfile{TotalCoins: 1}
	upd := StreakUpdate{DiffDays: 1, CurrentStreak: 7, LongestStreak: 7, StreakBonusClaimed: 1, Bonus: 5, LastLoginDate: now}
	upd.Apply(p)

	assert.Equal(t, 6.0, p.TotalCoins)
	assert.Equal(t, 7, p.CurrentStreak)
	require.NotNil(t, p.LastLoginDate)
	assert.True(t, p.LastLoginDate.Equal(now))
	assert.True(t, upd.Changed())
}

func TestAdCooldown(t *testing.T) {
	rules := DefaultRewardRules().Ad
	last := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

	assert.True(t, CanWatchAd(last, time.Time{}, rules.Cooldown), "never watched")
	assert.False(t, CanWatchAd(last, last, rules.Cooldown))
	assert.False(t, CanWatchAd(last.Add(299*time.Second), last, rules.Cooldown))
	assert.True(t, CanWatchAd(last.Add(300*time.Second), last, rules.Cooldown))

	assert.Equal(t, rules.Cooldown, AdCooldownRemaining(last.Add(-time.Hour), last, rules.Cooldown), "future stamp")

	st := DeriveAdStatus(last.Add(100500*time.Millisecond), last, rules)
	assert.False(t, st.CanWatch)
	assert.Equal(t, int64(200), st.RemainingSeconds)
	assert.Equal(t, 0.5, st.Reward)
	require.NotNil(t, st.LastWatchedAt)
}

func TestCalculateAutoMiningRate(t *testing.T) {
	rules := DefaultRewardRules().MiningRate

	r := CalculateAutoMiningRate(2500, rules)
	assert.InDelta(t, 2.5, r.Rate, 1e-9)
	assert.False(t, r.RateCapReached)
	assert.InDelta(t, 47500.0, r.RemainingPurchaseUSD, 1e-9)

	r = CalculateAutoMiningRate(10000, rules)
	assert.Equal(t, 10.0, r.Rate)
	assert.True(t, r.RateCapReached)
	assert.False(t, r.LimitReached)

	r = CalculateAutoMiningRate(75000, rules)
	assert.Equal(t, 10.0, r.Rate)
	assert.Equal(t, 10000.0, r.EffectiveSpendUSD)
	assert.True(t, r.LimitReached)

	assert.Equal(t, 0.0, CalculateAutoMiningRate(100, MiningRateRules{}).Rate)
}

func TestSumCompletedUSD(t *testing.T) {
	list := []*PresalePurchase{
		{AmountUSD: 100, Status: PurchaseStatusCompleted},
		{AmountUSD: 50, Status: PurchaseStatusPending},
		{AmountUSD: 25, Status: PurchaseStatusCompleted},
	}
	assert.Equal(t, 125.0, SumCompletedUSD(list))
}

func TestEvaluateAchievement(t *testing.T) {
	coins := &Achievement{ID: "c", Type: AchievementCoins, Target: 100, Reward: 1}
	social := &Achievement{ID: "s", Type: AchievementSocial, Target: 1, Reward: 1}
	p := &UserProfile{TotalCoins: 250}

	st := EvaluateAchievement(coins, p, false, false)
	assert.True(t, st.IsUnlocked)
	assert.Equal(t, 100, st.ProgressPercent)
	assert.True(t, st.CanClaim())

	st = EvaluateAchievement(coins, p, false, true)
	assert.False(t, st.CanClaim())

	assert.False(t, EvaluateAchievement(social, p, false, false).IsUnlocked)
	assert.True(t, EvaluateAchievement(social, p, true, false).IsUnlocked)
}

func TestNormalizeReferralCode(t *testing.T) {
	cases := map[string]string{
		"ABC123":                   "ABC123",
		" abc123 ":                 "ABC123",
		"ekehi://referral/xyz789":  "XYZ789",
		"ekehi://referral/XYZ789/": "XYZ789",
		"":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeReferralCode(in), in)
	}
	assert.Equal(t, "ekehi://referral/ABC123", ReferralLink("ekehi", "ABC123"))
}

func TestErrors(t *testing.T) {
	err := CooldownError(90 * time.Second)
	assert.ErrorIs(t, err, ErrAdCooldownActive)
	v, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, v.RetryAfter)
	assert.Contains(t, err.Error(), "90s")

	assert.NotErrorIs(t, ErrSelfReferral, ErrInvalidCode)

	cause := errors.New("connection refused")
	rw := RemoteWrite("session_claim", cause)
	assert.ErrorIs(t, rw, ErrRemoteWrite)
	assert.ErrorIs(t, rw, cause)
	assert.Same(t, ErrAlreadyReferred, RemoteWrite("x", ErrAlreadyReferred))
	assert.Equal(t, ErrProfileNotFound, RemoteWrite("x", ErrProfileNotFound))
	assert.Nil(t, RemoteWrite("x", nil))
}
