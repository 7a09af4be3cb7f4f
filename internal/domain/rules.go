package domain

import "time"

// RewardRules - single canonical set of reward constants used by every component
type RewardRules struct {
	Session    SessionRules
	Streak     StreakRules
	Ad         AdRules
	Referral   ReferralRules
	MiningRate MiningRateRules
	Presale    PresaleRules
	Profile    ProfileDefaults
}

type SessionRules struct {
	Duration time.Duration
	Reward   float64
}

type StreakRules struct {
	BonusDay       int
	BonusAmount    float64
	MaxBonusGrants int
	// Location defines the calendar day boundary.
	Location *time.Location
}

type AdRules struct {
	Cooldown time.Duration
	Reward   float64
}

type ReferralRules struct {
	ReferrerBonus float64
	RefereeBonus  float64
	Cap           int
	LinkScheme    string
}

type MiningRateRules struct {
	MaxMiningRatePurchaseUSD float64
	MaxGeneralPurchaseUSD    float64
	MaxMiningRate            float64
}

type PresaleRules struct {
	TokenPriceUSD  float64
	MinPurchaseUSD float64
}

type ProfileDefaults struct {
	DailyMiningRate  float64
	MaxDailyEarnings float64
}

// DefaultRewardRules returns the documented defaults (see DESIGN.md).
func DefaultRewardRules() RewardRules {
	return RewardRules{
		Session: SessionRules{
			Duration: 24 * time.Hour,
			Reward:   2.0,
		},
		Streak: StreakRules{
			BonusDay:       7,
			BonusAmount:    5,
			MaxBonusGrants: 1,
			Location:       time.UTC,
		},
		Ad: AdRules{
			Cooldown: 5 * time.Minute,
			Reward:   0.5,
		},
		Referral: ReferralRules{
			ReferrerBonus: 1.0,
			RefereeBonus:  2.0,
			Cap:           50,
			LinkScheme:    "ekehi",
		},
		MiningRate: MiningRateRules{
			MaxMiningRatePurchaseUSD: 10000,
			MaxGeneralPurchaseUSD:    50000,
			MaxMiningRate:            10,
		},
		Presale: PresaleRules{
			TokenPriceUSD:  0.1,
			MinPurchaseUSD: 10,
		},
		Profile: ProfileDefaults{
			DailyMiningRate:  2,
			MaxDailyEarnings: 10000,
		},
	}
}
