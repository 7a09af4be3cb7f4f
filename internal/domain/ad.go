package domain

import "time"

// AdStatus - cooldown view derived from the stored last-watch timestamp
type AdStatus struct {
	CanWatch         bool       `json:"can_watch"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	Reward           float64    `json:"reward"`
	LastWatchedAt    *time.Time `json:"last_watched_at,omitempty"`
}

// AdCooldownRemaining returns max(0, cooldown - (now - last)). A zero last means never watched.
func AdCooldownRemaining(now, last time.Time, cooldown time.Duration) time.Duration {
	if last.IsZero() {
		return 0
	}
	rem := cooldown - now.Sub(last)
	if rem < 0 {
		return 0
	}
	if rem > cooldown {
		// last watch lies in the future (clock skew): wait one full cooldown at most
		return cooldown
	}
	return rem
}

// CanWatchAd reports whether the cooldown since last has elapsed.
func CanWatchAd(now, last time.Time, cooldown time.Duration) bool {
	return AdCooldownRemaining(now, last, cooldown) == 0
}

// DeriveAdStatus builds the status view for the presentation layer.
func DeriveAdStatus(now, last time.Time, rules AdRules) AdStatus {
	rem := AdCooldownRemaining(now, last, rules.Cooldown)
	st := AdStatus{
		CanWatch:         rem == 0,
		RemainingSeconds: int64((rem + time.Second - 1) / time.Second),
		Reward:           rules.Reward,
	}
	if !last.IsZero() {
		l := last
		st.LastWatchedAt = &l
	}
	return st
}
