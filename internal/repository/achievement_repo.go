package repository

import (
	"context"

	"ekehi_engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// AchievementRepository - каталог достижений и полученные награды
type AchievementRepository struct {
	db *pgxpool.Pool
}

func NewAchievementRepository(db *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{db: db}
}

const achievementColumns = `achievement_id, title, description, type, target, reward, rarity, is_active, sort_order`

func scanAchievement(row pgx.Row) (*domain.Achievement, error) {
	var a domain.Achievement
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Type, &a.Target, &a.Reward, &a.Rarity, &a.IsActive, &a.SortOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAchievementNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan achievement")
	}
	return &a, nil
}

// ListAchievements returns active achievements in display order
func (r *AchievementRepository) ListAchievements(ctx context.Context) ([]*domain.Achievement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+achievementColumns+`
		 FROM achievements
		 WHERE is_active = true
		 ORDER BY sort_order, achievement_id`)
	if err != nil {
		return nil, errors.Wrap(err, "query achievements")
	}
	defer rows.Close()

	var result []*domain.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *AchievementRepository) GetAchievement(ctx context.Context, id string) (*domain.Achievement, error) {
	return scanAchievement(r.db.QueryRow(ctx,
		`SELECT `+achievementColumns+` FROM achievements WHERE achievement_id = $1 AND is_active = true`, id))
}

func (r *AchievementRepository) ListClaims(ctx context.Context, userID int64) ([]*domain.UserAchievementClaim, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, achievement_id, reward, claimed_at
		 FROM user_achievements
		 WHERE user_id = $1
		 ORDER BY claimed_at`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query achievement claims")
	}
	defer rows.Close()

	var result []*domain.UserAchievementClaim
	for rows.Next() {
		var c domain.UserAchievementClaim
		if err := rows.Scan(&c.ID, &c.UserID, &c.AchievementID, &c.Reward, &c.ClaimedAt); err != nil {
			return nil, errors.Wrap(err, "scan achievement claim")
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}

const submissionColumns = `id, user_id, achievement_id, status, proof_url, proof_data, rejection_reason,
	attempts, submitted_at, reviewed_at, reviewed_by`

func scanSubmission(row pgx.Row) (*domain.SocialSubmission, error) {
	var sub domain.SocialSubmission
	err := row.Scan(&sub.ID, &sub.UserID, &sub.AchievementID, &sub.Status, &sub.ProofURL, &sub.ProofData,
		&sub.RejectionReason, &sub.Attempts, &sub.SubmittedAt, &sub.ReviewedAt, &sub.ReviewedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan social submission")
	}
	return &sub, nil
}

func (r *AchievementRepository) SocialStatuses(ctx context.Context, userID int64) (map[string]domain.SubmissionStatus, error) {
	rows, err := r.db.Query(ctx,
		`SELECT achievement_id, status FROM social_submissions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query social submissions")
	}
	defer rows.Close()

	res := make(map[string]domain.SubmissionStatus)
	for rows.Next() {
		var id string
		var status domain.SubmissionStatus
		if err := rows.Scan(&id, &status); err != nil {
			return nil, errors.Wrap(err, "scan social status")
		}
		res[id] = status
	}
	return res, rows.Err()
}

// SubmitSocial inserts a pending submission or reopens a rejected one.
// The (user_id, achievement_id) key keeps one row per task.
func (r *AchievementRepository) SubmitSocial(ctx context.Context, sub *domain.SocialSubmission) (*domain.SocialSubmission, bool, error) {
	stored, err := scanSubmission(r.db.QueryRow(ctx,
		`INSERT INTO social_submissions (id, user_id, achievement_id, status, proof_url, proof_data, attempts, submitted_at)
		 VALUES ($1, $2, $3, 'pending', $4, $5, 1, $6)
		 ON CONFLICT (user_id, achievement_id) DO UPDATE
		 SET status = 'pending',
		     proof_url = EXCLUDED.proof_url,
		     proof_data = EXCLUDED.proof_data,
		     rejection_reason = '',
		     attempts = social_submissions.attempts + 1,
		     submitted_at = EXCLUDED.submitted_at,
		     reviewed_at = NULL,
		     reviewed_by = NULL
		 WHERE social_submissions.status = 'rejected'
		 RETURNING `+submissionColumns,
		sub.ID, sub.UserID, sub.AchievementID, sub.ProofURL, sub.ProofData, sub.SubmittedAt,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, domain.ErrSubmissionNotFound) {
		return nil, false, err
	}

	existing, err := scanSubmission(r.db.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM social_submissions WHERE user_id = $1 AND achievement_id = $2`,
		sub.UserID, sub.AchievementID))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *AchievementRepository) GetSubmission(ctx context.Context, id string) (*domain.SocialSubmission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSubmissionNotFound
	}
	return scanSubmission(r.db.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM social_submissions WHERE id = $1`, id))
}

func (r *AchievementRepository) ListSubmissions(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.SocialSubmission, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+submissionColumns+`
		 FROM social_submissions
		 WHERE $1 = '' OR status = $1
		 ORDER BY submitted_at DESC, id
		 LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query social submissions")
	}
	defer rows.Close()

	var result []*domain.SocialSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

// ReviewSubmission - только pending можно проверить
func (r *AchievementRepository) ReviewSubmission(ctx context.Context, rv domain.SubmissionReview) (*domain.SocialSubmission, bool, error) {
	if _, err := uuid.Parse(rv.SubmissionID); err != nil {
		return nil, false, domain.ErrSubmissionNotFound
	}
	sub, err := scanSubmission(r.db.QueryRow(ctx,
		`UPDATE social_submissions
		 SET status = $2, rejection_reason = $3, reviewed_at = $4, reviewed_by = $5
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+submissionColumns,
		rv.SubmissionID, rv.Status, rv.Reason, rv.At, rv.ReviewerID,
	))
	if err == nil {
		return sub, true, nil
	}
	if !errors.Is(err, domain.ErrSubmissionNotFound) {
		return nil, false, err
	}

	existing, err := r.GetSubmission(ctx, rv.SubmissionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ClaimAchievement records the claim and credits the reward in one transaction.
// The unique (user_id, achievement_id) key rejects a second claim.
func (r *AchievementRepository) ClaimAchievement(ctx context.Context, claim *domain.UserAchievementClaim, c domain.Credit) (bool, *domain.UserProfile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, nil, errors.Wrap(err, "begin achievement claim")
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		`INSERT INTO user_achievements (id, user_id, achievement_id, reward, claimed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING
		 RETURNING id`,
		claim.ID, claim.UserID, claim.AchievementID, claim.Reward, claim.ClaimedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, errors.Wrap(err, "insert achievement claim")
	}

	p, err := creditTx(ctx, tx, claim.UserID, c, claim.ClaimedAt)
	if err != nil {
		return false, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, nil, errors.Wrap(err, "commit achievement claim")
	}
	return true, p, nil
}
