package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RewardsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_rewards_credited_total",
			Help: "Number of reward credits applied",
		},
		[]string{"source"},
	)
	RewardAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_reward_amount_total",
			Help: "Sum of EKH credited",
		},
		[]string{"source"},
	)
	ClaimsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_claims_rejected_total",
			Help: "Operations rejected with a validation error",
		},
		[]string{"operation", "kind"},
	)
	IdempotentRepeats = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_idempotent_repeats_total",
			Help: "Repeated claims answered as no-op success",
		},
		[]string{"operation"},
	)
	RemoteWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_remote_write_failures_total",
			Help: "Store failures surfaced as retryable errors",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(RewardsCredited)
	prometheus.MustRegister(RewardAmount)
	prometheus.MustRegister(ClaimsRejected)
	prometheus.MustRegister(IdempotentRepeats)
	prometheus.MustRegister(RemoteWriteFailures)
}

func observeCredit(source string, amount float64) {
	RewardsCredited.WithLabelValues(source).Inc()
	RewardAmount.WithLabelValues(source).Add(amount)
}
