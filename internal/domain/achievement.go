package domain

import "time"

// AchievementType - which profile stat drives the achievement
type AchievementType string

const (
	AchievementCoins     AchievementType = "coins"
	AchievementStreak    AchievementType = "streak"
	AchievementReferrals AchievementType = "referrals"
	AchievementSocial    AchievementType = "social"
)

// Achievement - catalog entry, defined outside the engine
type Achievement struct {
	ID          string          `db:"achievement_id" json:"achievementId"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Type        AchievementType `db:"type" json:"type"`
	Target      float64         `db:"target" json:"target"`
	Reward      float64         `db:"reward" json:"reward"`
	Rarity      string          `db:"rarity" json:"rarity"`
	IsActive    bool            `db:"is_active" json:"isActive"`
	SortOrder   int             `db:"sort_order" json:"sortOrder"`
}

// UserAchievementClaim - append-only; its existence is the idempotency guard
type UserAchievementClaim struct {
	ID            string    `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	AchievementID string    `db:"achievement_id" json:"achievementId"`
	Reward        float64   `db:"reward" json:"reward"`
	ClaimedAt     time.Time `db:"claimed_at" json:"claimedAt"`
}

// AchievementStatus - catalog entry with the user's progress
type AchievementStatus struct {
	Achievement
	Progress        float64 `json:"progress"`
	ProgressPercent int     `json:"progressPercent"`
	IsUnlocked      bool    `json:"isUnlocked"`
	IsClaimed       bool    `json:"isClaimed"`

	// Submission is the review state of a social achievement's proof, empty when none
	Submission SubmissionStatus `json:"submission,omitempty"`
}

// CanClaim проверяет, можно ли забрать награду
func (s AchievementStatus) CanClaim() bool {
	return s.IsUnlocked && !s.IsClaimed
}

// AchievementProgress returns the stat value for the achievement type.
// Social achievements have no stat; socialDone marks a verified submission.
func AchievementProgress(a *Achievement, p *UserProfile, socialDone bool) float64 {
	switch a.Type {
	case AchievementCoins:
		return p.TotalCoins
	case AchievementStreak:
		return float64(p.CurrentStreak)
	case AchievementReferrals:
		return float64(p.TotalReferrals)
	case AchievementSocial:
		if socialDone {
			return a.Target
		}
	}
	return 0
}

// EvaluateAchievement is a pure function of profile stats and the claim/completion flags.
func EvaluateAchievement(a *Achievement, p *UserProfile, socialDone, claimed bool) AchievementStatus {
	progress := AchievementProgress(a, p, socialDone)

	unlocked := progress >= a.Target
	if a.Type == AchievementSocial {
		unlocked = socialDone
	}

	percent := 100
	if a.Target > 0 {
		percent = int(progress * 100 / a.Target)
		if percent > 100 {
			percent = 100
		}
	}

	return AchievementStatus{
		Achievement:     *a,
		Progress:        progress,
		ProgressPercent: percent,
		IsUnlocked:      unlocked,
		IsClaimed:       claimed,
	}
}
