package repository

import (
	"context"
	"time"

	"ekehi_engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// SessionRepository stores the single mining session per user
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) GetSession(ctx context.Context, userID int64) (*domain.MiningSession, error) {
	var (
		s        domain.MiningSession
		duration int64
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, started_at, duration_seconds, reward, final_reward_claimed
		 FROM mining_sessions
		 WHERE user_id = $1`,
		userID,
	).Scan(&s.ID, &s.UserID, &s.StartTime, &duration, &s.Reward, &s.FinalRewardClaimed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get session")
	}
	s.Duration = time.Duration(duration) * time.Second
	return &s, nil
}

// CreateSession inserts the session. A leftover claimed row is replaced; an
// unclaimed one blocks the insert.
func (r *SessionRepository) CreateSession(ctx context.Context, s *domain.MiningSession) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO mining_sessions (id, user_id, started_at, duration_seconds, reward, final_reward_claimed)
		 VALUES ($1, $2, $3, $4, $5, false)
		 ON CONFLICT (user_id) DO UPDATE
		 SET id = EXCLUDED.id,
		     started_at = EXCLUDED.started_at,
		     duration_seconds = EXCLUDED.duration_seconds,
		     reward = EXCLUDED.reward,
		     final_reward_claimed = false
		 WHERE mining_sessions.final_reward_claimed`,
		s.ID, s.UserID, s.StartTime, int64(s.Duration/time.Second), s.Reward,
	)
	if err != nil {
		return errors.Wrap(err, "create session")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionActive
	}
	return nil
}

// ClaimSession sets the claimed flag with a conditional update, credits the
// reward and writes the ledger row in one transaction. The claimed row stays
// until the next CreateSession replaces it.
func (r *SessionRepository) ClaimSession(ctx context.Context, userID int64, sessionID string, c domain.Credit, at time.Time) (bool, *domain.UserProfile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, nil, errors.Wrap(err, "begin claim")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE mining_sessions
		 SET final_reward_claimed = true
		 WHERE id = $1 AND user_id = $2 AND NOT final_reward_claimed`,
		sessionID, userID,
	)
	if err != nil {
		return false, nil, errors.Wrap(err, "flag session claimed")
	}
	if tag.RowsAffected() == 0 {
		return false, nil, nil
	}

	p, err := creditTx(ctx, tx, userID, c, at)
	if err != nil {
		return false, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, nil, errors.Wrap(err, "commit claim")
	}
	return true, p, nil
}

func (r *SessionRepository) DeleteActiveSession(ctx context.Context, userID int64, sessionID string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM mining_sessions
		 WHERE id = $1 AND user_id = $2
		   AND NOT final_reward_claimed
		   AND started_at + make_interval(secs => duration_seconds) > $3`,
		sessionID, userID, now,
	)
	if err != nil {
		return false, errors.Wrap(err, "stop session")
	}
	return tag.RowsAffected() > 0, nil
}
