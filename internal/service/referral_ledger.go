package service

import (
	"context"
	"errors"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"

	"github.com/google/uuid"
)

// ReferralLedger redeems referral codes. Each user can be referred once and each
// referrer is capped.
type ReferralLedger struct {
	base
	profiles  ProfileStore
	referrals ReferralStore
}

// ReferralResult - amounts granted by a redeemed code
type ReferralResult struct {
	ReferrerID    int64               `json:"referrer_id"`
	ReferrerBonus float64             `json:"referrer_bonus"`
	RefereeBonus  float64             `json:"referee_bonus"`
	Profile       *domain.UserProfile `json:"profile,omitempty"`
}

// Code returns the user's referral code and its shareable link.
func (l *ReferralLedger) Code(ctx context.Context, userID int64) (string, string, error) {
	p, err := l.profiles.GetProfile(ctx, userID)
	if err != nil {
		return "", "", l.fail("referral_code", err)
	}
	return p.ReferralCode, domain.ReferralLink(l.rules.Referral.LinkScheme, p.ReferralCode), nil
}

// Claim redeems input (a bare code or a referral link) for refereeID.
func (l *ReferralLedger) Claim(ctx context.Context, refereeID int64, input string) (*ReferralResult, error) {
	res, err := l.claim(ctx, refereeID, input)
	if err != nil {
		if v, ok := domain.IsValidation(err); ok {
			l.emit(ctx, refereeID, events.EventReferralError, map[string]any{"kind": string(v.Kind)})
			l.audit.LogRejection(ctx, refereeID, domain.AuditActionReferralReject, domain.AuditCategoryReferral, v.Kind)
		}
		return nil, l.fail("referral_claim", err)
	}
	return res, nil
}

func (l *ReferralLedger) claim(ctx context.Context, refereeID int64, input string) (*ReferralResult, error) {
	code := domain.NormalizeReferralCode(input)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}

	referee, err := l.profiles.GetProfile(ctx, refereeID)
	if err != nil {
		return nil, err
	}

	referrer, err := l.profiles.GetProfileByReferralCode(ctx, code)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, domain.ErrInvalidCode
	}
	if err != nil {
		return nil, err
	}

	switch {
	case referrer.UserID == referee.UserID:
		return nil, domain.ErrSelfReferral
	case referee.IsReferred():
		return nil, domain.ErrAlreadyReferred
	case referrer.TotalReferrals >= l.rules.Referral.Cap:
		return nil, domain.ErrReferralCapReached
	}

	grant := domain.ReferralGrant{
		ID:            uuid.NewString(),
		ReferrerID:    referrer.UserID,
		RefereeID:     referee.UserID,
		ReferrerBonus: l.rules.Referral.ReferrerBonus,
		RefereeBonus:  l.rules.Referral.RefereeBonus,
		Cap:           l.rules.Referral.Cap,
		At:            l.now(),
	}
	if err := l.referrals.ApplyReferral(ctx, grant); err != nil {
		return nil, err
	}

	observeCredit(domain.SourceReferrer, grant.ReferrerBonus)
	observeCredit(domain.SourceReferee, grant.RefereeBonus)

	payload := map[string]any{
		"referrer_id":    grant.ReferrerID,
		"referee_id":     grant.RefereeID,
		"referrer_bonus": grant.ReferrerBonus,
		"referee_bonus":  grant.RefereeBonus,
	}
	l.emit(ctx, grant.RefereeID, events.EventReferralSuccess, payload)
	l.emit(ctx, grant.ReferrerID, events.EventReferralSuccess, payload)
	l.audit.LogCredit(ctx, grant.RefereeID, domain.AuditActionReferralApply, domain.AuditCategoryReferral, grant.RefereeBonus,
		map[string]interface{}{"referrer_id": grant.ReferrerID, "referrer_bonus": grant.ReferrerBonus})
	logger.Info("referral applied", "referrer_id", grant.ReferrerID, "referee_id", grant.RefereeID)

	updated, err := l.profiles.GetProfile(ctx, refereeID)
	if err != nil {
		// the referral is committed; a stale profile view is fine
		logger.Warn("failed to reload profile after referral", "user_id", refereeID, "error", err)
		updated = nil
	}

	return &ReferralResult{
		ReferrerID:    grant.ReferrerID,
		ReferrerBonus: grant.ReferrerBonus,
		RefereeBonus:  grant.RefereeBonus,
		Profile:       updated,
	}, nil
}

// Stats returns the referral count and total referrer bonus of userID.
func (l *ReferralLedger) Stats(ctx context.Context, userID int64) (*domain.ReferralStats, error) {
	stats, err := l.referrals.ReferralStats(ctx, userID)
	if err != nil {
		return nil, l.fail("referral_stats", err)
	}
	stats.Cap = l.rules.Referral.Cap
	return stats, nil
}

func (l *ReferralLedger) List(ctx context.Context, userID int64) ([]*domain.Referral, error) {
	list, err := l.referrals.ListReferrals(ctx, userID)
	if err != nil {
		return nil, l.fail("referral_list", err)
	}
	return list, nil
}
