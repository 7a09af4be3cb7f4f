package repository

import (
	"context"
	"time"

	"ekehi_engine/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// AdminRepository - агрегаты для панели оператора
type AdminRepository struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// EngineStats counts users, coins, submissions and purchases. day is the start of
// today; a user is active today when their last login is not before it.
func (r *AdminRepository) EngineStats(ctx context.Context, day time.Time) (*domain.EngineStats, error) {
	st := &domain.EngineStats{}

	// Users and coins in circulation
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE last_login_date >= $1),
		       COALESCE(SUM(total_coins), 0)::float8
		FROM user_profiles
	`, day).Scan(&st.TotalUsers, &st.ActiveUsersToday, &st.TotalCoins)
	if err != nil {
		return nil, errors.Wrap(err, "count users")
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM referrals`).Scan(&st.TotalReferrals); err != nil {
		return nil, errors.Wrap(err, "count referrals")
	}

	// Social submissions by status
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'verified'),
		       COUNT(*) FILTER (WHERE status = 'rejected')
		FROM social_submissions
	`).Scan(&st.TotalSubmissions, &st.PendingSubmissions, &st.VerifiedSubmissions, &st.RejectedSubmissions)
	if err != nil {
		return nil, errors.Wrap(err, "count submissions")
	}

	// Presale purchases
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COALESCE(SUM(amount_usd) FILTER (WHERE status = 'completed'), 0)::float8
		FROM presale_purchases
	`).Scan(&st.PendingPurchases, &st.CompletedPurchases, &st.CompletedPurchaseUSD)
	if err != nil {
		return nil, errors.Wrap(err, "count purchases")
	}

	return st, nil
}
