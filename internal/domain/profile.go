package domain

import "time"

// UserProfile - durable per-user record, the single shared mutable resource of the engine
type UserProfile struct {
	UserID             int64      `db:"user_id" json:"user_id"`
	Username           string     `db:"username" json:"username"`
	TotalCoins         float64    `db:"total_coins" json:"totalCoins"`
	CoinsPerSecond     float64    `db:"coins_per_second" json:"coinsPerSecond"`
	CurrentStreak      int        `db:"current_streak" json:"currentStreak"`
	LongestStreak      int        `db:"longest_streak" json:"longestStreak"`
	LastLoginDate      *time.Time `db:"last_login_date" json:"lastLoginDate,omitempty"`
	ReferralCode       string     `db:"referral_code" json:"referralCode"`
	ReferredBy         *int64     `db:"referred_by" json:"referredBy,omitempty"`
	TotalReferrals     int        `db:"total_referrals" json:"totalReferrals"`
	LifetimeEarnings   float64    `db:"lifetime_earnings" json:"lifetimeEarnings"`
	DailyMiningRate    float64    `db:"daily_mining_rate" json:"dailyMiningRate"`
	MaxDailyEarnings   float64    `db:"max_daily_earnings" json:"maxDailyEarnings"`
	TodayEarnings      float64    `db:"today_earnings" json:"todayEarnings"`
	StreakBonusClaimed int        `db:"streak_bonus_claimed" json:"streakBonusClaimed"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewUserProfile builds a fresh profile. LastLoginDate stays empty so the first
// login counts as day 1 of a streak.
func NewUserProfile(userID int64, username string, defaults ProfileDefaults, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:           userID,
		Username:         username,
		DailyMiningRate:  defaults.DailyMiningRate,
		MaxDailyEarnings: defaults.MaxDailyEarnings,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsReferred reports whether the referral slot is already used.
func (p *UserProfile) IsReferred() bool {
	return p.ReferredBy != nil && *p.ReferredBy != 0
}

// Credit sources
const (
	SourceSession     = "mining_session"
	SourceStreakBonus = "streak_bonus"
	SourceAdBonus     = "ad_bonus"
	SourceReferrer    = "referral_referrer"
	SourceReferee     = "referral_referee"
	SourceAchievement = "achievement"
)

// Credit describes a balance increase. TotalCoins always grows by Amount; the
// earnings counters only when the flags say so.
type Credit struct {
	Source      string
	Amount      float64
	AddLifetime bool
	AddToday    bool
	// Day is the engine calendar day (midnight in the engine zone) the amount
	// counts toward in todayEarnings. Zero means the UTC day of the credit.
	Day         time.Time
	Meta        map[string]any
}

// DayKey returns the todayEarnings day of a credit made at "at" as YYYY-MM-DD.
func (c Credit) DayKey(at time.Time) string {
	if c.Day.IsZero() {
		return at.UTC().Format("2006-01-02")
	}
	return c.Day.Format("2006-01-02")
}

// Apply adds the credit to an in-memory profile copy.
func (c Credit) Apply(p *UserProfile) {
	p.TotalCoins += c.Amount
	if c.AddLifetime {
		p.LifetimeEarnings += c.Amount
	}
	if c.AddToday {
		p.TodayEarnings += c.Amount
	}
}

// LeaderboardEntry - one row of the coins leaderboard
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	UserID         int64   `json:"user_id"`
	Username       string  `json:"username"`
	TotalCoins     float64 `json:"totalCoins"`
	CurrentStreak  int     `json:"currentStreak"`
	TotalReferrals int     `json:"totalReferrals"`
}
