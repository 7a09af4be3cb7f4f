package repository

import (
	"context"
	"time"

	"ekehi_engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type PurchaseRepository struct {
	db *pgxpool.Pool
}

func NewPurchaseRepository(db *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseColumns = `id, user_id, amount_usd, tokens_amount, transaction_hash, status, payment_method, created_at, completed_at, rejection_reason`

func scanPurchase(row pgx.Row) (*domain.PresalePurchase, error) {
	var p domain.PresalePurchase
	err := row.Scan(&p.ID, &p.UserID, &p.AmountUSD, &p.TokensAmount, &p.TransactionHash, &p.Status,
		&p.PaymentMethod, &p.CreatedAt, &p.CompletedAt, &p.RejectionReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan purchase")
	}
	return &p, nil
}

// CreatePurchase creates a new pending purchase
func (r *PurchaseRepository) CreatePurchase(ctx context.Context, p *domain.PresalePurchase) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO presale_purchases (id, user_id, amount_usd, tokens_amount, transaction_hash, status, payment_method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.AmountUSD, p.TokensAmount, p.TransactionHash, p.Status, p.PaymentMethod, p.CreatedAt,
	)
	return errors.Wrap(err, "insert purchase")
}

// CompletePurchase moves pending -> completed; otherwise the current row is returned unchanged
func (r *PurchaseRepository) CompletePurchase(ctx context.Context, userID int64, id, txHash string, at time.Time) (*domain.PresalePurchase, bool, error) {
	p, err := scanPurchase(r.db.QueryRow(ctx,
		`UPDATE presale_purchases
		 SET status = 'completed',
		     completed_at = $3,
		     transaction_hash = CASE WHEN $4 = '' THEN transaction_hash ELSE $4 END
		 WHERE id = $1 AND user_id = $2 AND status = 'pending'
		 RETURNING `+purchaseColumns,
		id, userID, at, txHash,
	))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, domain.ErrPurchaseNotFound) {
		return nil, false, err
	}

	existing, err := scanPurchase(r.db.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM presale_purchases WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PurchaseRepository) GetPurchase(ctx context.Context, id string) (*domain.PresalePurchase, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrPurchaseNotFound
	}
	return scanPurchase(r.db.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM presale_purchases WHERE id = $1`, id))
}

// RejectPurchase moves pending -> rejected
func (r *PurchaseRepository) RejectPurchase(ctx context.Context, id, reason string) (*domain.PresalePurchase, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false, domain.ErrPurchaseNotFound
	}
	p, err := scanPurchase(r.db.QueryRow(ctx,
		`UPDATE presale_purchases
		 SET status = 'rejected', rejection_reason = $2
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+purchaseColumns,
		id, reason,
	))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, domain.ErrPurchaseNotFound) {
		return nil, false, err
	}

	existing, err := r.GetPurchase(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ListPurchasesByStatus - очередь на проверку, старые первыми
func (r *PurchaseRepository) ListPurchasesByStatus(ctx context.Context, status domain.PurchaseStatus, limit int) ([]*domain.PresalePurchase, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+purchaseColumns+`
		 FROM presale_purchases
		 WHERE status = $1
		 ORDER BY created_at
		 LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query purchases by status")
	}
	return collectPurchases(rows)
}

func collectPurchases(rows pgx.Rows) ([]*domain.PresalePurchase, error) {
	defer rows.Close()
	var result []*domain.PresalePurchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PurchaseRepository) ListPurchases(ctx context.Context, userID int64) ([]*domain.PresalePurchase, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+purchaseColumns+`
		 FROM presale_purchases
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query purchases")
	}
	return collectPurchases(rows)
}

func (r *PurchaseRepository) SumCompletedUSD(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_usd), 0)::float8
		 FROM presale_purchases
		 WHERE user_id = $1 AND status = 'completed'`,
		userID,
	).Scan(&total)
	return total, errors.Wrap(err, "sum purchases")
}
