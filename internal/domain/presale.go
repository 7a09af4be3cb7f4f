package domain

import "time"

// PurchaseStatus - presale purchase processing status
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusRejected  PurchaseStatus = "rejected"
)

// PresalePurchase - only completed purchases count toward the auto mining rate
type PresalePurchase struct {
	ID              string         `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	AmountUSD       float64        `db:"amount_usd" json:"amountUsd"`
	TokensAmount    float64        `db:"tokens_amount" json:"tokensAmount"`
	TransactionHash string         `db:"transaction_hash" json:"transactionHash,omitempty"`
	Status          PurchaseStatus `db:"status" json:"status"`
	PaymentMethod   string         `db:"payment_method" json:"paymentMethod,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	CompletedAt     *time.Time     `db:"completed_at" json:"completedAt,omitempty"`
	RejectionReason string         `db:"rejection_reason" json:"rejectionReason,omitempty"`
}

// AutoMiningRate - passive rate derived from completed purchases
type AutoMiningRate struct {
	Rate                 float64 `json:"rate"`
	TotalSpentUSD        float64 `json:"total_spent_usd"`
	EffectiveSpendUSD    float64 `json:"effective_spend_usd"`
	RateCapReached       bool    `json:"rate_cap_reached"`
	LimitReached         bool    `json:"limit_reached"`
	RemainingPurchaseUSD float64 `json:"remaining_purchase_usd"`
	MaxMiningRate        float64 `json:"max_mining_rate"`
}

// SumCompletedUSD totals the amounts of completed purchases.
func SumCompletedUSD(purchases []*PresalePurchase) float64 {
	var total float64
	for _, p := range purchases {
		if p.Status == PurchaseStatusCompleted && p.AmountUSD > 0 {
			total += p.AmountUSD
		}
	}
	return total
}

// CalculateAutoMiningRate maps cumulative spend to coins per second.
// The result is a pure function of totalSpent and is safe to recompute at any time.
func CalculateAutoMiningRate(totalSpent float64, rules MiningRateRules) AutoMiningRate {
	if totalSpent < 0 {
		totalSpent = 0
	}
	res := AutoMiningRate{
		TotalSpentUSD: totalSpent,
		MaxMiningRate: rules.MaxMiningRate,
	}

	if rules.MaxMiningRatePurchaseUSD > 0 {
		effective := totalSpent
		if effective > rules.MaxMiningRatePurchaseUSD {
			effective = rules.MaxMiningRatePurchaseUSD
		}
		res.EffectiveSpendUSD = effective
		res.Rate = effective / rules.MaxMiningRatePurchaseUSD * rules.MaxMiningRate
	}
	if res.Rate < 0 {
		res.Rate = 0
	}
	if res.Rate > rules.MaxMiningRate {
		res.Rate = rules.MaxMiningRate
	}

	res.RateCapReached = totalSpent >= rules.MaxMiningRatePurchaseUSD
	res.LimitReached = totalSpent >= rules.MaxGeneralPurchaseUSD
	if !res.LimitReached {
		res.RemainingPurchaseUSD = rules.MaxGeneralPurchaseUSD - totalSpent
	}
	return res
}

// TotalMiningRate combines the manual daily rate (per day) with the passive rate
// (per second) into coins per second.
func TotalMiningRate(p *UserProfile) float64 {
	return p.DailyMiningRate/86400 + p.CoinsPerSecond
}
