package integration

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	entries, err := os.ReadDir(migDir)
	require.NoError(t, err, "read migrations")

	var files []string
	for _, e := range entries {
		files = append(files, e.Name())
	}
	sort.Strings(files)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(migDir, name))
		require.NoError(t, err)
		_, err = db.Exec(context.Background(), string(b))
		require.NoError(t, err, "apply migration %s", name)
	}
}

type pgEnv struct {
	engine *service.Engine
	mu     sync.Mutex
	now    time.Time
}

func (e *pgEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *pgEnv) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

func newPGEnv(t *testing.T) *pgEnv {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	logger.SetForTest(zap.NewNop())

	db, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err, "connect db")
	t.Cleanup(db.Close)
	applyMigrations(t, db)

	env := &pgEnv{now: time.Now().UTC().Truncate(time.Second)}
	env.engine = service.NewEngine(service.PostgresStores(db, nil), domain.DefaultRewardRules(), &events.Recorder{}, env.clock)
	return env
}

// uniqueUserIDs keeps reruns against the same database apart.
func uniqueUserIDs(n int) []int64 {
	base := time.Now().UnixNano() / 1000
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = base + int64(i)
	}
	return ids
}

func TestPostgres_ReferralAndAchievement(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()
	ids := uniqueUserIDs(2)
	referrerID, refereeID := ids[0], ids[1]

	referrer, created, err := env.engine.Profiles.EnsureProfile(ctx, referrerID, "referrer")
	require.NoError(t, err)
	require.True(t, created)
	require.Len(t, referrer.ReferralCode, 8)
	_, _, err = env.engine.Profiles.EnsureProfile(ctx, refereeID, "referee")
	require.NoError(t, err)

	_, err = env.engine.Referrals.Claim(ctx, referrerID, referrer.ReferralCode)
	require.ErrorIs(t, err, domain.ErrSelfReferral)

	res, err := env.engine.Referrals.Claim(ctx, refereeID, referrer.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, referrerID, res.ReferrerID)

	_, err = env.engine.Referrals.Claim(ctx, refereeID, referrer.ReferralCode)
	require.ErrorIs(t, err, domain.ErrAlreadyReferred)

	a, err := env.engine.Profiles.GetProfile(ctx, referrerID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.TotalReferrals)
	assert.InDelta(t, 1.0, a.TotalCoins, 1e-9)

	b, err := env.engine.Profiles.GetProfile(ctx, refereeID)
	require.NoError(t, err)
	require.NotNil(t, b.ReferredBy)
	assert.Equal(t, referrerID, *b.ReferredBy)
	assert.InDelta(t, 2.0, b.TotalCoins, 1e-9)

	// referral_1 is seeded by 002_seed_achievements.sql
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		paid int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := env.engine.Achievements.Claim(ctx, referrerID, "referral_1")
			if !assert.NoError(t, err) {
				return
			}
			if !r.AlreadyClaimed {
				mu.Lock()
				paid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, paid)

	a, err = env.engine.Profiles.GetProfile(ctx, referrerID)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, a.TotalCoins, 1e-9)

	_, err = env.engine.Achievements.Claim(ctx, referrerID, "social_telegram")
	require.ErrorIs(t, err, domain.ErrAchievementLocked)
	sub, err := env.engine.Achievements.SubmitSocial(ctx, referrerID, "social_telegram", "https://t.me/ekehi", "")
	require.NoError(t, err)
	_, err = env.engine.Admin.RejectSubmission(ctx, 1, sub.ID, "no screenshot")
	require.NoError(t, err)
	_, err = env.engine.Achievements.Claim(ctx, referrerID, "social_telegram")
	require.ErrorIs(t, err, domain.ErrAchievementLocked)

	again, err := env.engine.Achievements.SubmitSocial(ctx, referrerID, "social_telegram", "https://t.me/ekehi", "shot.png")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
	assert.Equal(t, 2, again.Attempts)
	assert.Equal(t, domain.SubmissionPending, again.Status)

	verified, err := env.engine.Admin.VerifySubmission(ctx, 1, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, verified.ReviewedBy)
	assert.Equal(t, int64(1), *verified.ReviewedBy)
	_, err = env.engine.Admin.VerifySubmission(ctx, 1, sub.ID)
	require.ErrorIs(t, err, domain.ErrSubmissionReviewed)

	_, err = env.engine.Achievements.Claim(ctx, referrerID, "social_telegram")
	require.NoError(t, err)

	done, err := env.engine.Admin.ListSubmissions(ctx, domain.SubmissionVerified, 500)
	require.NoError(t, err)
	found := false
	for _, d := range done {
		found = found || d.ID == sub.ID
	}
	assert.True(t, found)

	_, err = env.engine.Admin.VerifySubmission(ctx, 1, "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrSubmissionNotFound)
}

func TestPostgres_SessionClaimedOnce(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()
	userID := uniqueUserIDs(1)[0]

	_, err := env.engine.Profiles.Login(ctx, userID, "miner")
	require.NoError(t, err)

	_, err = env.engine.Sessions.Start(ctx, userID)
	require.NoError(t, err)
	_, err = env.engine.Sessions.Start(ctx, userID)
	require.ErrorIs(t, err, domain.ErrSessionActive)

	env.advance(24 * time.Hour)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		paid int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := env.engine.Sessions.Claim(ctx, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && !r.AlreadyClaimed:
				paid++
			case err == nil:
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, paid)

	p, err := env.engine.Profiles.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, p.TotalCoins, 1e-9)

	st, err := env.engine.Sessions.State(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionClaimed, st.Phase)

	_, err = env.engine.Sessions.Start(ctx, userID)
	require.NoError(t, err)

	txs, err := env.engine.Profiles.History(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.SourceSession, txs[0].Type)
}

func TestPostgres_PurchaseUpdatesRate(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()
	userID := uniqueUserIDs(1)[0]

	_, _, err := env.engine.Profiles.EnsureProfile(ctx, userID, "buyer")
	require.NoError(t, err)

	p, err := env.engine.Presale.CreatePurchase(ctx, userID, 100, "usdt", "")
	require.NoError(t, err)

	done, err := env.engine.Presale.CompletePurchase(ctx, userID, p.ID, "0xabc")
	require.NoError(t, err)
	assert.False(t, done.AlreadyCompleted)
	assert.InDelta(t, 0.1, done.MiningRate.Rate, 1e-9)

	again, err := env.engine.Admin.ApprovePurchase(ctx, 1, p.ID, "")
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.Equal(t, "0xabc", again.Purchase.TransactionHash)

	prof, err := env.engine.Profiles.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, prof.CoinsPerSecond, 1e-9)

	other, err := env.engine.Presale.CreatePurchase(ctx, userID, 400, "card", "")
	require.NoError(t, err)
	rejected, err := env.engine.Admin.RejectPurchase(ctx, 1, other.ID, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusRejected, rejected.Status)
	assert.Equal(t, "chargeback", rejected.RejectionReason)
	_, err = env.engine.Admin.ApprovePurchase(ctx, 1, other.ID, "")
	require.ErrorIs(t, err, domain.ErrPurchaseNotPending)

	prof, err = env.engine.Profiles.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, prof.CoinsPerSecond, 1e-9)

	stats, err := env.engine.Admin.GetStats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalUsers, int64(1))
	assert.GreaterOrEqual(t, stats.CompletedPurchaseUSD, 100.0)

	logs, err := env.engine.Admin.UserAuditLogs(ctx, userID, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionPurchaseReject, logs[0].Action)
}
