package service

import (
	"context"
	"errors"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/logger"
)

// ProfileService loads and creates profiles and serves the read-only views
// (leaderboard, ledger history).
type ProfileService struct {
	base
	profiles ProfileStore
	ledger   LedgerStore
	streaks  *StreakTracker
}

// LoginResult - profile after the login streak was applied
type LoginResult struct {
	Profile *domain.UserProfile `json:"profile"`
	Streak  domain.StreakUpdate `json:"streak"`
	Created bool                `json:"created"`
}

// EnsureProfile returns the stored profile, creating it with defaults if absent.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID int64, username string) (*domain.UserProfile, bool, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, false, s.fail("profile_load", err)
	}

	fresh := domain.NewUserProfile(userID, username, s.rules.Profile, s.now())
	p, created, err := s.profiles.CreateProfileIfAbsent(ctx, fresh)
	if err != nil {
		return nil, false, s.fail("profile_create", err)
	}
	if created {
		logger.Info("profile created", "user_id", userID, "referral_code", p.ReferralCode)
	}
	return p, created, nil
}

// Login loads (or creates) the profile and runs the streak tracker on it.
func (s *ProfileService) Login(ctx context.Context, userID int64, username string) (*LoginResult, error) {
	p, created, err := s.EnsureProfile(ctx, userID, username)
	if err != nil {
		return nil, err
	}

	p, upd, err := s.streaks.Track(ctx, p)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Profile: p, Streak: upd, Created: created}, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, s.fail("profile_load", err)
	}
	return p, nil
}

// Leaderboard returns the top users by total coins
func (s *ProfileService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	list, err := s.profiles.TopByCoins(ctx, limit)
	if err != nil {
		return nil, s.fail("leaderboard", err)
	}
	return list, nil
}

func (s *ProfileService) Rank(ctx context.Context, userID int64) (int, error) {
	rank, err := s.profiles.RankByCoins(ctx, userID)
	if err != nil {
		return 0, s.fail("leaderboard_rank", err)
	}
	return rank, nil
}

// History returns the caller's credit ledger, newest first
func (s *ProfileService) History(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.ledger.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, s.fail("history", err)
	}
	return list, nil
}

// ResetTodayEarnings zeroes todayEarnings for every profile last reset before the
// current engine day.
func (s *ProfileService) ResetTodayEarnings(ctx context.Context) (int64, error) {
	day := s.dayOf(s.now())

	n, err := s.profiles.ResetTodayEarnings(ctx, day)
	if err != nil {
		return 0, s.fail("reset_today_earnings", err)
	}
	if n > 0 {
		logger.Info("today earnings reset", "profiles", n, "day", day.Format("2006-01-02"))
	}
	return n, nil
}
