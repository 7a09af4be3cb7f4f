package service

import (
	"context"
	"testing"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiningRateCalculator_MonotonicAndCapped(t *testing.T) {
	env := newTestEnv(t)
	rules := env.engine.Rules().MiningRate

	prev := -1.0
	for spend := 0.0; spend <= 15000; spend += 125 {
		rate := env.engine.MiningRate.Calculate(spend).Rate
		assert.GreaterOrEqual(t, rate, prev, "spend %.0f", spend)
		assert.LessOrEqual(t, rate, rules.MaxMiningRate)
		if spend >= rules.MaxMiningRatePurchaseUSD {
			assert.Equal(t, rules.MaxMiningRate, rate, "spend %.0f", spend)
		}
		prev = rate
	}

	assert.InDelta(t, 5.0, env.engine.MiningRate.Calculate(5000).Rate, 1e-9)
	assert.Equal(t, 0.0, env.engine.MiningRate.Calculate(-10).Rate)
}

func TestPresaleService_PurchaseUpdatesRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	p, err := env.engine.Presale.CreatePurchase(ctx, 1, 100, "usdt", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusPending, p.Status)
	assert.InDelta(t, 1000.0, p.TokensAmount, 1e-9)

	st, err := env.engine.MiningRate.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Rate, "pending purchases do not count")

	done, err := env.engine.Presale.CompletePurchase(ctx, 1, p.ID, "0xabc")
	require.NoError(t, err)
	assert.False(t, done.AlreadyCompleted)
	assert.Equal(t, domain.PurchaseStatusCompleted, done.Purchase.Status)
	assert.Equal(t, "0xabc", done.Purchase.TransactionHash)
	assert.InDelta(t, 0.1, done.MiningRate.Rate, 1e-9)
	assert.InDelta(t, 0.1, env.profile(t, 1).CoinsPerSecond, 1e-9)
	assert.Equal(t, 1, env.countEvents(events.EventMiningRateUpdate))

	again, err := env.engine.Presale.CompletePurchase(ctx, 1, p.ID, "")
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.InDelta(t, 0.1, again.MiningRate.Rate, 1e-9)
	assert.InDelta(t, 0.1, env.profile(t, 1).CoinsPerSecond, 1e-9)

	st, err = env.engine.MiningRate.Status(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, st.CoinsPerSecond, 1e-9)
	assert.InDelta(t, 2.0/86400+0.1, st.TotalRatePerSecond, 1e-9)
	assert.InDelta(t, 49900.0, st.RemainingPurchaseUSD, 1e-9)
}

func TestPresaleService_BeyondLimits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)

	for _, amount := range []float64{30000, 30000} {
		p, err := env.engine.Presale.CreatePurchase(ctx, 1, amount, "card", "")
		require.NoError(t, err)
		_, err = env.engine.Presale.CompletePurchase(ctx, 1, p.ID, "")
		require.NoError(t, err)
	}

	st, err := env.engine.MiningRate.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10.0, st.Rate)
	assert.True(t, st.RateCapReached)
	assert.True(t, st.LimitReached)
	assert.Equal(t, 0.0, st.RemainingPurchaseUSD)
	assert.Equal(t, 60000.0, st.TotalSpentUSD)
}

func TestPresaleService_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 1)
	env.newUser(t, 2)

	for _, amount := range []float64{0, -5, 9.99} {
		_, err := env.engine.Presale.CreatePurchase(ctx, 1, amount, "card", "")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, "amount %v", amount)
	}

	_, err := env.engine.Presale.CreatePurchase(ctx, 404, 50, "card", "")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = env.engine.Presale.CompletePurchase(ctx, 1, "missing", "")
	assert.ErrorIs(t, err, domain.ErrPurchaseNotFound)

	p, err := env.engine.Presale.CreatePurchase(ctx, 1, 50, "card", "")
	require.NoError(t, err)
	_, err = env.engine.Presale.CompletePurchase(ctx, 2, p.ID, "")
	assert.ErrorIs(t, err, domain.ErrPurchaseNotFound, "purchase of another user")

	list, err := env.engine.Presale.ListPurchases(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.PurchaseStatusPending, list[0].Status)
}
