package domain

import (
	"strings"
	"time"
)

// Referral - one redeemed referral code
type Referral struct {
	ID            string    `db:"id" json:"id"`
	ReferrerID    int64     `db:"referrer_id" json:"referrer_id"`
	ReferredID    int64     `db:"referred_id" json:"referred_id"`
	ReferrerBonus float64   `db:"referrer_bonus" json:"referrer_bonus"`
	RefereeBonus  float64   `db:"referee_bonus" json:"referee_bonus"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ReferralStats - aggregate for the referrer
type ReferralStats struct {
	TotalReferrals int     `json:"total_referrals"`
	TotalEarned    float64 `json:"total_earned"`
	Cap            int     `json:"cap"`
}

// ReferralGrant - everything the store needs to apply a referral atomically
type ReferralGrant struct {
	ID            string
	ReferrerID    int64
	RefereeID     int64
	ReferrerBonus float64
	RefereeBonus  float64
	Cap           int
	At            time.Time
}

// ReferralLink formats <scheme>://referral/<code>.
func ReferralLink(scheme, code string) string {
	return scheme + "://referral/" + code
}

// NormalizeReferralCode accepts a bare code or a full referral link and returns the
// upper-cased code.
func NormalizeReferralCode(input string) string {
	code := strings.TrimSpace(input)
	if i := strings.Index(code, "://referral/"); i >= 0 {
		code = code[i+len("://referral/"):]
	}
	code = strings.Trim(code, "/ ")
	return strings.ToUpper(code)
}
