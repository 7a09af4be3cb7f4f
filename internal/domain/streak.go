package domain

import "time"

// StreakUpdate - result of evaluating a login against the stored streak
type StreakUpdate struct {
	DiffDays           int       `json:"diff_days"`
	CurrentStreak      int       `json:"current_streak"`
	LongestStreak      int       `json:"longest_streak"`
	StreakBonusClaimed int       `json:"streak_bonus_claimed"`
	Bonus              float64   `json:"bonus"`
	LastLoginDate      time.Time `json:"last_login_date"`
}

// Changed reports whether the streak counters moved (lastLoginDate always moves).
func (u StreakUpdate) Changed() bool {
	return u.DiffDays != 0
}

// CalendarDaysBetween counts whole calendar days from a to b in loc.
// Dates are compared as civil dates, so DST shifts never produce a fractional day.
func CalendarDaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// EvaluateStreak applies one login at now to the profile's streak counters.
// A profile that never logged in is treated as if it logged in yesterday.
// A negative day delta (clock skew) is treated like a same-day login.
func EvaluateStreak(p *UserProfile, now time.Time, rules StreakRules) StreakUpdate {
	upd := StreakUpdate{
		CurrentStreak:      p.CurrentStreak,
		LongestStreak:      p.LongestStreak,
		StreakBonusClaimed: p.StreakBonusClaimed,
		LastLoginDate:      now,
	}

	diff := 1
	if p.LastLoginDate != nil {
		diff = CalendarDaysBetween(*p.LastLoginDate, now, rules.Location)
	}
	if diff < 0 {
		diff = 0
	}
	upd.DiffDays = diff

	switch {
	case diff == 0:
		// already counted today
	case diff == 1:
		upd.CurrentStreak++
		if upd.CurrentStreak > upd.LongestStreak {
			upd.LongestStreak = upd.CurrentStreak
		}
		if upd.CurrentStreak == rules.BonusDay && upd.StreakBonusClaimed < rules.MaxBonusGrants {
			upd.Bonus = rules.BonusAmount
			upd.StreakBonusClaimed++
		}
	default:
		upd.CurrentStreak = 1
		if upd.LongestStreak < 1 {
			upd.LongestStreak = 1
		}
	}

	return upd
}

// Apply copies the update into the profile.
func (u StreakUpdate) Apply(p *UserProfile) {
	p.CurrentStreak = u.CurrentStreak
	p.LongestStreak = u.LongestStreak
	p.StreakBonusClaimed = u.StreakBonusClaimed
	p.TotalCoins += u.Bonus
	last := u.LastLoginDate
	p.LastLoginDate = &last
}
