package service

import (
	"context"

	"ekehi_engine/internal/domain"

	"github.com/google/uuid"
)

// PresaleService records presale purchases. Completing a purchase recomputes the
// auto mining rate.
type PresaleService struct {
	base
	profiles  ProfileStore
	purchases PurchaseStore
	rate      *MiningRateCalculator
}

// PurchaseCompletion - completed purchase with the rate it produced
type PurchaseCompletion struct {
	Purchase         *domain.PresalePurchase `json:"purchase"`
	MiningRate       domain.AutoMiningRate   `json:"mining_rate"`
	AlreadyCompleted bool                    `json:"already_completed"`
}

func (s *PresaleService) CreatePurchase(ctx context.Context, userID int64, amountUSD float64, paymentMethod, txHash string) (*domain.PresalePurchase, error) {
	if amountUSD <= 0 || amountUSD < s.rules.Presale.MinPurchaseUSD {
		return nil, s.fail("purchase_create", domain.ErrInvalidAmount)
	}
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, s.fail("purchase_create", err)
	}

	p := &domain.PresalePurchase{
		ID:              uuid.NewString(),
		UserID:          userID,
		AmountUSD:       amountUSD,
		TokensAmount:    amountUSD / s.rules.Presale.TokenPriceUSD,
		TransactionHash: txHash,
		Status:          domain.PurchaseStatusPending,
		PaymentMethod:   paymentMethod,
		CreatedAt:       s.now(),
	}
	if err := s.purchases.CreatePurchase(ctx, p); err != nil {
		return nil, s.fail("purchase_create", err)
	}

	s.audit.Log(ctx, userID, domain.AuditActionPurchaseCreate, domain.AuditCategoryPresale, map[string]interface{}{
		"purchase_id": p.ID,
		"amount_usd":  amountUSD,
	})
	return p, nil
}

// CompletePurchase confirms a payment. The rate is recomputed on every call, so a
// retry after a failed recompute converges.
func (s *PresaleService) CompletePurchase(ctx context.Context, userID int64, purchaseID, txHash string) (*PurchaseCompletion, error) {
	p, transitioned, err := s.purchases.CompletePurchase(ctx, userID, purchaseID, txHash, s.now())
	if err != nil {
		return nil, s.fail("purchase_complete", err)
	}
	if !transitioned {
		if p.Status != domain.PurchaseStatusCompleted {
			return nil, s.fail("purchase_complete", domain.ErrPurchaseNotPending)
		}
		IdempotentRepeats.WithLabelValues("purchase_complete").Inc()
	}

	rate, err := s.rate.Recompute(ctx, userID)
	if err != nil {
		return nil, err
	}

	if transitioned {
		s.audit.Log(ctx, userID, domain.AuditActionPurchaseComplete, domain.AuditCategoryPresale, map[string]interface{}{
			"purchase_id": p.ID,
			"amount_usd":  p.AmountUSD,
			"rate":        rate.Rate,
		})
	}
	return &PurchaseCompletion{Purchase: p, MiningRate: rate, AlreadyCompleted: !transitioned}, nil
}

func (s *PresaleService) ListPurchases(ctx context.Context, userID int64) ([]*domain.PresalePurchase, error) {
	list, err := s.purchases.ListPurchases(ctx, userID)
	if err != nil {
		return nil, s.fail("purchase_list", err)
	}
	return list, nil
}
