package service

import (
	"context"
	"time"

	"ekehi_engine/internal/domain"
)

// ProfileStore is the durable user profile record.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error)
	// CreateProfileIfAbsent stores p (assigning a referral code) unless a profile
	// already exists. It returns the stored profile and whether it was created now.
	CreateProfileIfAbsent(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, bool, error)
	GetProfileByReferralCode(ctx context.Context, code string) (*domain.UserProfile, error)
	// Credit applies c and writes the ledger row atomically.
	Credit(ctx context.Context, userID int64, c domain.Credit, at time.Time) (*domain.UserProfile, error)
	// ApplyStreak writes upd only if last_login_date still equals expectedLast.
	ApplyStreak(ctx context.Context, userID int64, expectedLast *time.Time, upd domain.StreakUpdate) (bool, error)
	SetCoinsPerSecond(ctx context.Context, userID int64, rate float64) error
	TopByCoins(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	RankByCoins(ctx context.Context, userID int64) (int, error)
	ResetTodayEarnings(ctx context.Context, day time.Time) (int64, error)
}

type SessionStore interface {
	// GetSession returns nil, nil when the user has no session.
	GetSession(ctx context.Context, userID int64) (*domain.MiningSession, error)
	// CreateSession fails with domain.ErrSessionActive when an unclaimed session exists.
	CreateSession(ctx context.Context, s *domain.MiningSession) error
	// ClaimSession flips final_reward_claimed and credits the profile in one step.
	// The claimed row stays until the next CreateSession. false means another claim already won.
	ClaimSession(ctx context.Context, userID int64, sessionID string, c domain.Credit, at time.Time) (bool, *domain.UserProfile, error)
	// DeleteActiveSession removes an unclaimed session that has not reached its end at now.
	DeleteActiveSession(ctx context.Context, userID int64, sessionID string, now time.Time) (bool, error)
}

type AchievementStore interface {
	ListAchievements(ctx context.Context) ([]*domain.Achievement, error)
	GetAchievement(ctx context.Context, id string) (*domain.Achievement, error)
	ListClaims(ctx context.Context, userID int64) ([]*domain.UserAchievementClaim, error)
	// SocialStatuses maps achievement id to the user's submission status.
	SocialStatuses(ctx context.Context, userID int64) (map[string]domain.SubmissionStatus, error)
	// SubmitSocial stores sub as pending. A rejected submission is reopened with
	// attempts+1; any other existing one is returned unchanged with false.
	SubmitSocial(ctx context.Context, sub *domain.SocialSubmission) (*domain.SocialSubmission, bool, error)
	// ListSubmissions returns newest first; empty status means all.
	ListSubmissions(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.SocialSubmission, error)
	// ReviewSubmission moves a pending submission to r.Status. false means it was
	// no longer pending; the current row is returned.
	ReviewSubmission(ctx context.Context, r domain.SubmissionReview) (*domain.SocialSubmission, bool, error)
	// ClaimAchievement inserts the claim record and credits in one step.
	// false means the (user, achievement) record already existed.
	ClaimAchievement(ctx context.Context, claim *domain.UserAchievementClaim, c domain.Credit) (bool, *domain.UserProfile, error)
}

type ReferralStore interface {
	// ApplyReferral performs both sides of a referral atomically. Guards lost to a
	// concurrent writer surface as domain.ErrAlreadyReferred or domain.ErrReferralCapReached.
	ApplyReferral(ctx context.Context, g domain.ReferralGrant) error
	ListReferrals(ctx context.Context, referrerID int64) ([]*domain.Referral, error)
	ReferralStats(ctx context.Context, referrerID int64) (*domain.ReferralStats, error)
}

type PurchaseStore interface {
	CreatePurchase(ctx context.Context, p *domain.PresalePurchase) error
	// CompletePurchase moves a pending purchase to completed. false means it was
	// no longer pending; the current row is returned.
	CompletePurchase(ctx context.Context, userID int64, id, txHash string, at time.Time) (*domain.PresalePurchase, bool, error)
	RejectPurchase(ctx context.Context, id, reason string) (*domain.PresalePurchase, bool, error)
	GetPurchase(ctx context.Context, id string) (*domain.PresalePurchase, error)
	ListPurchasesByStatus(ctx context.Context, status domain.PurchaseStatus, limit int) ([]*domain.PresalePurchase, error)
	ListPurchases(ctx context.Context, userID int64) ([]*domain.PresalePurchase, error)
	SumCompletedUSD(ctx context.Context, userID int64) (float64, error)
}

// StatsStore aggregates the operator dashboard. day is the start of today in the engine zone.
type StatsStore interface {
	EngineStats(ctx context.Context, day time.Time) (*domain.EngineStats, error)
}

type LedgerStore interface {
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
}

type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
}

// AdCooldownStore keeps the last ad watch time per user.
type AdCooldownStore interface {
	// LastWatch returns the zero time when the user never watched or the stamp expired.
	LastWatch(ctx context.Context, userID int64) (time.Time, error)
	// TryRecordWatch stores now unless a watch within cooldown exists. It returns the
	// stored stamp either way.
	TryRecordWatch(ctx context.Context, userID int64, now time.Time, cooldown time.Duration) (bool, time.Time, error)
	// ReleaseWatch drops the stamp if it still equals at.
	ReleaseWatch(ctx context.Context, userID int64, at time.Time) error
}

// Clock returns the current time. Services take it so tests can move time.
type Clock func() time.Time
