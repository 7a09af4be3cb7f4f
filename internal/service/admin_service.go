package service

import (
	"context"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
)

// AdminService provides operator statistics and review operations
type AdminService struct {
	base
	achievements AchievementStore
	purchases    PurchaseStore
	stats        StatsStore
	presale      *PresaleService
}

// Dashboard - engine counters plus the latest submissions
type Dashboard struct {
	*domain.EngineStats
	RecentActivity []*domain.SocialSubmission `json:"recentActivity"`
}

const recentActivityLimit = 10

// GetStats returns engine statistics
func (s *AdminService) GetStats(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	stats, err := s.stats.EngineStats(ctx, s.dayOf(now))
	if err != nil {
		return nil, s.fail("admin_stats", err)
	}
	stats.Timestamp = now

	recent, err := s.achievements.ListSubmissions(ctx, "", recentActivityLimit)
	if err != nil {
		return nil, s.fail("admin_stats", err)
	}
	if recent == nil {
		recent = []*domain.SocialSubmission{}
	}
	return &Dashboard{EngineStats: stats, RecentActivity: recent}, nil
}

// ListSubmissions returns submissions newest first. Empty status lists all of them.
func (s *AdminService) ListSubmissions(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.SocialSubmission, error) {
	if status != "" && !status.Valid() {
		return nil, s.fail("admin_submissions", domain.ErrInvalidStatus)
	}
	list, err := s.achievements.ListSubmissions(ctx, status, limit)
	if err != nil {
		return nil, s.fail("admin_submissions", err)
	}
	return list, nil
}

// VerifySubmission accepts a pending submission, which unlocks the achievement claim.
func (s *AdminService) VerifySubmission(ctx context.Context, adminID int64, submissionID string) (*domain.SocialSubmission, error) {
	return s.review(ctx, adminID, submissionID, domain.SubmissionVerified, "")
}

// RejectSubmission declines a pending submission. The user may submit again.
func (s *AdminService) RejectSubmission(ctx context.Context, adminID int64, submissionID, reason string) (*domain.SocialSubmission, error) {
	return s.review(ctx, adminID, submissionID, domain.SubmissionRejected, reason)
}

func (s *AdminService) review(ctx context.Context, adminID int64, submissionID string, status domain.SubmissionStatus, reason string) (*domain.SocialSubmission, error) {
	sub, ok, err := s.achievements.ReviewSubmission(ctx, domain.SubmissionReview{
		SubmissionID: submissionID,
		Status:       status,
		Reason:       reason,
		ReviewerID:   adminID,
		At:           s.now(),
	})
	if err != nil {
		return nil, s.fail("social_review", err)
	}
	if !ok {
		return nil, s.fail("social_review", domain.ErrSubmissionReviewed)
	}

	action := domain.AuditActionSocialVerify
	if status == domain.SubmissionRejected {
		action = domain.AuditActionSocialReject
	}
	s.audit.Log(ctx, sub.UserID, action, domain.AuditCategoryAdmin, map[string]interface{}{
		"submission_id":  sub.ID,
		"achievement_id": sub.AchievementID,
		"admin_id":       adminID,
		"reason":         reason,
	})
	s.emit(ctx, sub.UserID, events.EventSocialReviewed, map[string]any{
		"submission_id":  sub.ID,
		"achievement_id": sub.AchievementID,
		"status":         string(sub.Status),
		"reason":         reason,
	})
	logger.Info("social submission reviewed", "submission_id", sub.ID, "user_id", sub.UserID,
		"status", sub.Status, "admin_id", adminID)
	return sub, nil
}

// ListPendingPurchases returns the purchases waiting for payment confirmation, oldest first.
func (s *AdminService) ListPendingPurchases(ctx context.Context, limit int) ([]*domain.PresalePurchase, error) {
	list, err := s.purchases.ListPurchasesByStatus(ctx, domain.PurchaseStatusPending, limit)
	if err != nil {
		return nil, s.fail("admin_purchases", err)
	}
	return list, nil
}

// ApprovePurchase confirms the payment and recomputes the buyer's mining rate.
// Approving an already completed purchase returns it again.
func (s *AdminService) ApprovePurchase(ctx context.Context, adminID int64, purchaseID, txHash string) (*PurchaseCompletion, error) {
	p, err := s.purchases.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, s.fail("purchase_complete", err)
	}
	if txHash == "" {
		txHash = p.TransactionHash
	}
	res, err := s.presale.CompletePurchase(ctx, p.UserID, p.ID, txHash)
	if err != nil {
		return nil, err
	}
	if !res.AlreadyCompleted {
		s.emit(ctx, p.UserID, events.EventPurchaseReviewed, map[string]any{
			"purchase_id": p.ID,
			"status":      string(domain.PurchaseStatusCompleted),
			"rate":        res.MiningRate.Rate,
		})
		logger.Info("purchase approved", "purchase_id", p.ID, "user_id", p.UserID, "admin_id", adminID)
	}
	return res, nil
}

// RejectPurchase declines a pending purchase. Completed purchases cannot be rejected.
func (s *AdminService) RejectPurchase(ctx context.Context, adminID int64, purchaseID, reason string) (*domain.PresalePurchase, error) {
	p, ok, err := s.purchases.RejectPurchase(ctx, purchaseID, reason)
	if err != nil {
		return nil, s.fail("purchase_reject", err)
	}
	if !ok {
		return nil, s.fail("purchase_reject", domain.ErrPurchaseNotPending)
	}

	s.audit.Log(ctx, p.UserID, domain.AuditActionPurchaseReject, domain.AuditCategoryAdmin, map[string]interface{}{
		"purchase_id": p.ID,
		"admin_id":    adminID,
		"reason":      reason,
	})
	s.emit(ctx, p.UserID, events.EventPurchaseReviewed, map[string]any{
		"purchase_id": p.ID,
		"status":      string(p.Status),
		"reason":      reason,
	})
	logger.Info("purchase rejected", "purchase_id", p.ID, "user_id", p.UserID, "admin_id", adminID)
	return p, nil
}

// UserAuditLogs returns a user's audit trail, newest first.
func (s *AdminService) UserAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	logs, err := s.audit.GetUserAuditLogs(ctx, userID, limit)
	if err != nil {
		return nil, s.fail("admin_audit", err)
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	return logs, nil
}
