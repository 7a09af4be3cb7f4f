package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"ekehi_engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func TestGenerateReferralCode(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Z]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := GenerateReferralCode()
		assert.Regexp(t, re, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestMemoryStore_CreateProfileIfAbsent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p, created, err := s.CreateProfileIfAbsent(ctx, &domain.UserProfile{UserID: 1, Username: "a", CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, p.ReferralCode)

	again, created, err := s.CreateProfileIfAbsent(ctx, &domain.UserProfile{UserID: 1, Username: "b", CreatedAt: now})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a", again.Username)

	byCode, err := s.GetProfileByReferralCode(ctx, p.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byCode.UserID)

	// returned copies do not alias the stored record
	again.TotalCoins = 1000
	stored, err := s.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stored.TotalCoins)
}

func TestMemoryStore_ApplyStreakCompareAndSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _, err := s.CreateProfileIfAbsent(ctx, &domain.UserProfile{UserID: 1, CreatedAt: now})
	require.NoError(t, err)

	upd := domain.StreakUpdate{DiffDays: 1, CurrentStreak: 1, LongestStreak: 1, LastLoginDate: now}
	ok, err := s.ApplyStreak(ctx, 1, nil, upd)
	require.NoError(t, err)
	assert.True(t, ok)

	// stale expectation
	ok, err = s.ApplyStreak(ctx, 1, nil, upd)
	require.NoError(t, err)
	assert.False(t, ok)

	next := now.Add(24 * time.Hour)
	ok, err = s.ApplyStreak(ctx, 1, &now, domain.StreakUpdate{DiffDays: 1, CurrentStreak: 2, LongestStreak: 2, Bonus: 5, LastLoginDate: next})
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := s.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, 5.0, p.TotalCoins)

	txs, err := s.ListTransactions(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.SourceStreakBonus, txs[0].Type)
}

func TestMemoryStore_SessionClaimOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _, err := s.CreateProfileIfAbsent(ctx, &domain.UserProfile{UserID: 1, CreatedAt: now})
	require.NoError(t, err)

	sess := &domain.MiningSession{ID: "s1", UserID: 1, StartTime: now, Duration: time.Hour, Reward: 2}
	require.NoError(t, s.CreateSession(ctx, sess))
	assert.ErrorIs(t, s.CreateSession(ctx, &domain.MiningSession{ID: "s2", UserID: 1, StartTime: now, Duration: time.Hour}), domain.ErrSessionActive)

	deleted, err := s.DeleteActiveSession(ctx, 1, "s1", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, deleted, "finished sessions cannot be stopped")

	credit := domain.Credit{Source: domain.SourceSession, Amount: 2, AddToday: true}
	ok, p, err := s.ClaimSession(ctx, 1, "s1", credit, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2.0, p.TotalCoins)

	ok, _, err = s.ClaimSession(ctx, 1, "s1", credit, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	// the claimed row stays until the next start replaces it
	got, err := s.GetSession(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.FinalRewardClaimed)

	require.NoError(t, s.CreateSession(ctx, &domain.MiningSession{ID: "s2", UserID: 1, StartTime: now.Add(3 * time.Hour), Duration: time.Hour}))
	got, err = s.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "s2", got.ID)
	assert.False(t, got.FinalRewardClaimed)
}

func TestMemoryStore_ClaimAchievementOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _, err := s.CreateProfileIfAbsent(ctx, &domain.UserProfile{UserID: 1, CreatedAt: now})
	require.NoError(t, err)

	claim := &domain.UserAchievementClaim{ID: "c1", UserID: 1, AchievementID: "a", Reward: 3, ClaimedAt: now}
	credit := domain.Credit{Source: domain.SourceAchievement, Amount: 3, AddLifetime: true}

	ok, p, err := s.ClaimAchievement(ctx, claim, credit)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.0, p.LifetimeEarnings)

	ok, _, err = s.ClaimAchievement(ctx, &domain.UserAchievementClaim{ID: "c2", UserID: 1, AchievementID: "a", ClaimedAt: now}, credit)
	require.NoError(t, err)
	assert.False(t, ok)

	claims, err := s.ListClaims(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestMemoryStore_ResetTodayEarnings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _, err := s.CreateProfileIfAbsent(ctx, &domain.UserProfile{UserID: 1, CreatedAt: now})
	require.NoError(t, err)
	_, err = s.Credit(ctx, 1, domain.Credit{Source: domain.SourceAdBonus, Amount: 1, AddToday: true}, now)
	require.NoError(t, err)

	n, err := s.ResetTodayEarnings(ctx, now.Truncate(24*time.Hour).Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, err := s.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.TodayEarnings)
	assert.Equal(t, 1.0, p.TotalCoins)
}

func TestMemoryStore_CreditRollsTodayOver(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _, err := s.CreateProfileIfAbsent(ctx, &domain.UserProfile{UserID: 1, CreatedAt: now})
	require.NoError(t, err)

	day1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	_, err = s.Credit(ctx, 1, domain.Credit{Source: domain.SourceAdBonus, Amount: 3, AddToday: true, Day: day1}, now)
	require.NoError(t, err)

	// first credit after midnight starts a new day before the reset runs
	p, err := s.Credit(ctx, 1, domain.Credit{Source: domain.SourceAdBonus, Amount: 1, AddToday: true, Day: day2}, day2.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.TodayEarnings)

	n, err := s.ResetTodayEarnings(ctx, day2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	p, err = s.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.TodayEarnings)
	assert.Equal(t, 4.0, p.TotalCoins)
}

func TestMemoryStore_SocialSubmissions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _, err := s.CreateProfileIfAbsent(ctx, &domain.UserProfile{UserID: 1, CreatedAt: now})
	require.NoError(t, err)

	sub, created, err := s.SubmitSocial(ctx, &domain.SocialSubmission{ID: "sub1", UserID: 1, AchievementID: "tg", SubmittedAt: now})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.SubmissionPending, sub.Status)
	assert.Equal(t, 1, sub.Attempts)

	_, created, err = s.SubmitSocial(ctx, &domain.SocialSubmission{ID: "sub2", UserID: 1, AchievementID: "tg", SubmittedAt: now})
	require.NoError(t, err)
	assert.False(t, created)

	review := domain.SubmissionReview{SubmissionID: "sub1", Status: domain.SubmissionRejected, Reason: "blurry", ReviewerID: 9, At: now}
	got, ok, err := s.ReviewSubmission(ctx, review)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "blurry", got.RejectionReason)

	_, ok, err = s.ReviewSubmission(ctx, review)
	require.NoError(t, err)
	assert.False(t, ok, "only pending submissions are reviewed")

	sub, created, err = s.SubmitSocial(ctx, &domain.SocialSubmission{ID: "sub3", UserID: 1, AchievementID: "tg", SubmittedAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "sub1", sub.ID)
	assert.Equal(t, 2, sub.Attempts)
	assert.Nil(t, sub.ReviewedBy)

	statuses, err := s.SocialStatuses(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.SubmissionStatus{"tg": domain.SubmissionPending}, statuses)

	_, _, err = s.SubmitSocial(ctx, &domain.SocialSubmission{ID: "x", UserID: 404, AchievementID: "tg"})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestMemoryAdCooldownStore(t *testing.T) {
	s := NewMemoryAdCooldownStore()
	ctx := context.Background()

	ok, stamp, err := s.TryRecordWatch(ctx, 1, now, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, last, err := s.TryRecordWatch(ctx, 1, now.Add(time.Minute), 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, last.Equal(stamp))

	// a different stamp is not released
	require.NoError(t, s.ReleaseWatch(ctx, 1, now.Add(time.Second)))
	got, err := s.LastWatch(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Equal(stamp))

	require.NoError(t, s.ReleaseWatch(ctx, 1, stamp))
	got, err = s.LastWatch(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
