package repository

import (
	"context"
	"time"

	"ekehi_engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const profileColumns = `user_id, username, total_coins, coins_per_second, current_streak, longest_streak,
	last_login_date, referral_code, referred_by, total_referrals, lifetime_earnings,
	daily_mining_rate, max_daily_earnings, today_earnings, streak_bonus_claimed, created_at, updated_at`

// ProfileRepository stores user profiles in Postgres
type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func scanProfile(row pgx.Row) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := row.Scan(
		&p.UserID,
		&p.Username,
		&p.TotalCoins,
		&p.CoinsPerSecond,
		&p.CurrentStreak,
		&p.LongestStreak,
		&p.LastLoginDate,
		&p.ReferralCode,
		&p.ReferredBy,
		&p.TotalReferrals,
		&p.LifetimeEarnings,
		&p.DailyMiningRate,
		&p.MaxDailyEarnings,
		&p.TodayEarnings,
		&p.StreakBonusClaimed,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, errors.Wrap(err, "scan profile")
	}
	return &p, nil
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	return scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID))
}

func (r *ProfileRepository) GetProfileByReferralCode(ctx context.Context, code string) (*domain.UserProfile, error) {
	return scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE referral_code = $1`, code))
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// CreateProfileIfAbsent inserts the profile with a fresh referral code.
// Try up to 5 times in case of code collision.
func (r *ProfileRepository) CreateProfileIfAbsent(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, bool, error) {
	var lastErr error
	for i := 0; i < 5; i++ {
		code := p.ReferralCode
		if code == "" || i > 0 {
			code = GenerateReferralCode()
		}

		created, err := scanProfile(r.db.QueryRow(ctx,
			`INSERT INTO user_profiles (user_id, username, referral_code, daily_mining_rate, max_daily_earnings,
			                            today_earnings_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6::date, $7, $7)
			 ON CONFLICT (user_id) DO NOTHING
			 RETURNING `+profileColumns,
			p.UserID, p.Username, code, p.DailyMiningRate, p.MaxDailyEarnings, p.CreatedAt.Format("2006-01-02"), p.CreatedAt,
		))
		switch {
		case err == nil:
			return created, true, nil
		case errors.Is(err, domain.ErrProfileNotFound):
			// conflict on user_id: somebody else created it first
			existing, gerr := r.GetProfile(ctx, p.UserID)
			return existing, false, gerr
		case isUniqueViolation(err, "user_profiles_referral_code_key"):
			lastErr = err
			continue
		default:
			return nil, false, err
		}
	}
	return nil, false, errors.Wrap(lastErr, "generate unique referral code")
}

// creditTx applies c to the profile row and appends the ledger row in tx.
// A today credit on a newer day than today_earnings_date rolls the counter over
// first, so the periodic reset never sees it as stale.
func creditTx(ctx context.Context, tx pgx.Tx, userID int64, c domain.Credit, at time.Time) (*domain.UserProfile, error) {
	p, err := scanProfile(tx.QueryRow(ctx,
		`UPDATE user_profiles
		 SET total_coins = total_coins + $2,
		     lifetime_earnings = lifetime_earnings + CASE WHEN $3::boolean THEN $2 ELSE 0 END,
		     today_earnings = CASE
		         WHEN NOT $4::boolean THEN today_earnings
		         WHEN today_earnings_date < $6::date THEN $2
		         ELSE today_earnings + $2
		     END,
		     today_earnings_date = CASE
		         WHEN $4::boolean THEN GREATEST(today_earnings_date, $6::date)
		         ELSE today_earnings_date
		     END,
		     updated_at = $5
		 WHERE user_id = $1
		 RETURNING `+profileColumns,
		userID, c.Amount, c.AddLifetime, c.AddToday, at, c.DayKey(at),
	))
	if err != nil {
		return nil, err
	}
	if err := insertTransaction(ctx, tx, domain.TransactionFromCredit(uuid.NewString(), userID, c, at)); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) Credit(ctx context.Context, userID int64, c domain.Credit, at time.Time) (*domain.UserProfile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin credit")
	}
	defer tx.Rollback(ctx)

	p, err := creditTx(ctx, tx, userID, c, at)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit credit")
	}
	return p, nil
}

// ApplyStreak writes the streak counters guarded by the previously read
// last_login_date. The bonus and its ledger row go in the same transaction.
func (r *ProfileRepository) ApplyStreak(ctx context.Context, userID int64, expectedLast *time.Time, upd domain.StreakUpdate) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, errors.Wrap(err, "begin streak")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE user_profiles
		 SET current_streak = $2,
		     longest_streak = $3,
		     streak_bonus_claimed = $4,
		     total_coins = total_coins + $5,
		     last_login_date = $6,
		     updated_at = $6
		 WHERE user_id = $1 AND last_login_date IS NOT DISTINCT FROM $7`,
		userID, upd.CurrentStreak, upd.LongestStreak, upd.StreakBonusClaimed, upd.Bonus, upd.LastLoginDate, expectedLast,
	)
	if err != nil {
		return false, errors.Wrap(err, "update streak")
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if upd.Bonus > 0 {
		c := domain.Credit{
			Source: domain.SourceStreakBonus,
			Amount: upd.Bonus,
			Meta:   map[string]any{"streak": upd.CurrentStreak},
		}
		if err := insertTransaction(ctx, tx, domain.TransactionFromCredit(uuid.NewString(), userID, c, upd.LastLoginDate)); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "commit streak")
	}
	return true, nil
}

func (r *ProfileRepository) SetCoinsPerSecond(ctx context.Context, userID int64, rate float64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE user_profiles SET coins_per_second = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, rate,
	)
	if err != nil {
		return errors.Wrap(err, "update coins per second")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// TopByCoins returns users ordered by total coins desc
func (r *ProfileRepository) TopByCoins(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, username, total_coins, current_streak, total_referrals
		FROM user_profiles
		ORDER BY total_coins DESC, user_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query leaderboard")
	}
	defer rows.Close()

	var res []domain.LeaderboardEntry
	for rows.Next() {
		e := domain.LeaderboardEntry{Rank: len(res) + 1}
		if err := rows.Scan(&e.UserID, &e.Username, &e.TotalCoins, &e.CurrentStreak, &e.TotalReferrals); err != nil {
			return nil, errors.Wrap(err, "scan leaderboard")
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r *ProfileRepository) RankByCoins(ctx context.Context, userID int64) (int, error) {
	var rank int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) + 1
		FROM user_profiles
		WHERE total_coins > (SELECT total_coins FROM user_profiles WHERE user_id = $1)`,
		userID,
	).Scan(&rank)
	if err != nil {
		return 0, errors.Wrap(err, "query rank")
	}
	if _, err := r.GetProfile(ctx, userID); err != nil {
		return 0, err
	}
	return rank, nil
}

// ResetTodayEarnings zeroes today_earnings for rows last reset before day (вызывать по cron)
func (r *ProfileRepository) ResetTodayEarnings(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE user_profiles
		 SET today_earnings = 0, today_earnings_date = $1::date
		 WHERE today_earnings_date < $1::date`,
		day.Format("2006-01-02"),
	)
	if err != nil {
		return 0, errors.Wrap(err, "reset today earnings")
	}
	return tag.RowsAffected(), nil
}
