package repository

import (
	"context"
	"crypto/rand"
	"math/big"

	"ekehi_engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const (
	referralCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referralCodeLength   = 8
)

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GenerateReferralCode generates a random 8 character base36 code
func GenerateReferralCode() string {
	base := big.NewInt(int64(len(referralCodeAlphabet)))
	code := make([]byte, referralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			panic(err)
		}
		code[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(code)
}

// ApplyReferral links referee to referrer and pays both bonuses in one transaction.
// Both rows are locked in id order first so crossing referrals cannot deadlock.
func (r *ReferralRepository) ApplyReferral(ctx context.Context, g domain.ReferralGrant) error {
	if g.ReferrerID == g.RefereeID {
		return domain.ErrSelfReferral
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin referral")
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT user_id, referred_by, total_referrals
		 FROM user_profiles
		 WHERE user_id IN ($1, $2)
		 ORDER BY user_id
		 FOR UPDATE`,
		g.ReferrerID, g.RefereeID,
	)
	if err != nil {
		return errors.Wrap(err, "lock referral profiles")
	}
	var (
		referrerFound, refereeFound bool
		refereeReferredBy           *int64
		referrerCount               int
	)
	for rows.Next() {
		var (
			id         int64
			referredBy *int64
			count      int
		)
		if err := rows.Scan(&id, &referredBy, &count); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan referral profiles")
		}
		switch id {
		case g.ReferrerID:
			referrerFound = true
			referrerCount = count
		case g.RefereeID:
			refereeFound = true
			refereeReferredBy = referredBy
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "lock referral profiles")
	}

	switch {
	case !refereeFound:
		return domain.ErrProfileNotFound
	case !referrerFound:
		return domain.ErrInvalidCode
	case refereeReferredBy != nil:
		return domain.ErrAlreadyReferred
	case referrerCount >= g.Cap:
		return domain.ErrReferralCapReached
	}

	if _, err := tx.Exec(ctx,
		`UPDATE user_profiles SET referred_by = $1, updated_at = $3 WHERE user_id = $2 AND referred_by IS NULL`,
		g.ReferrerID, g.RefereeID, g.At,
	); err != nil {
		return errors.Wrap(err, "set referred_by")
	}
	if _, err := tx.Exec(ctx,
		`UPDATE user_profiles SET total_referrals = total_referrals + 1, updated_at = $2 WHERE user_id = $1`,
		g.ReferrerID, g.At,
	); err != nil {
		return errors.Wrap(err, "increment total_referrals")
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO referrals (id, referrer_id, referred_id, referrer_bonus, referee_bonus, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.ReferrerID, g.RefereeID, g.ReferrerBonus, g.RefereeBonus, g.At,
	); err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrAlreadyReferred
		}
		return errors.Wrap(err, "insert referral")
	}

	if g.ReferrerBonus > 0 {
		if _, err := creditTx(ctx, tx, g.ReferrerID, domain.Credit{
			Source: domain.SourceReferrer,
			Amount: g.ReferrerBonus,
			Meta:   map[string]any{"referee_id": g.RefereeID},
		}, g.At); err != nil {
			return err
		}
	}
	if g.RefereeBonus > 0 {
		if _, err := creditTx(ctx, tx, g.RefereeID, domain.Credit{
			Source: domain.SourceReferee,
			Amount: g.RefereeBonus,
			Meta:   map[string]any{"referrer_id": g.ReferrerID},
		}, g.At); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit referral")
}

// ListReferrals returns all referrals made by a user
func (r *ReferralRepository) ListReferrals(ctx context.Context, referrerID int64) ([]*domain.Referral, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, referrer_id, referred_id, referrer_bonus, referee_bonus, created_at
		 FROM referrals
		 WHERE referrer_id = $1
		 ORDER BY created_at DESC`,
		referrerID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query referrals")
	}
	defer rows.Close()

	var referrals []*domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.ReferrerBonus, &ref.RefereeBonus, &ref.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan referral")
		}
		referrals = append(referrals, &ref)
	}
	return referrals, rows.Err()
}

// ReferralStats returns referral statistics for a user
func (r *ReferralRepository) ReferralStats(ctx context.Context, referrerID int64) (*domain.ReferralStats, error) {
	stats := &domain.ReferralStats{}
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(referrer_bonus), 0)::float8
		 FROM referrals
		 WHERE referrer_id = $1`,
		referrerID,
	).Scan(&stats.TotalReferrals, &stats.TotalEarned)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "query referral stats")
	}
	return stats, nil
}
