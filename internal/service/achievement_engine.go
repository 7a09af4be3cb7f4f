package service

import (
	"context"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"

	"github.com/google/uuid"
)

// AchievementEngine evaluates achievements against profile stats and pays each
// one at most once per user.
type AchievementEngine struct {
	base
	profiles     ProfileStore
	achievements AchievementStore
}

// AchievementClaimResult - outcome of a claim; AlreadyClaimed marks an idempotent repeat
type AchievementClaimResult struct {
	AchievementID  string              `json:"achievement_id"`
	Reward         float64             `json:"reward"`
	AlreadyClaimed bool                `json:"already_claimed"`
	Profile        *domain.UserProfile `json:"profile,omitempty"`
}

func (e *AchievementEngine) claimedSet(ctx context.Context, userID int64) (map[string]bool, error) {
	claims, err := e.achievements.ListClaims(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(claims))
	for _, c := range claims {
		set[c.AchievementID] = true
	}
	return set, nil
}

// List returns every active achievement with the user's progress.
func (e *AchievementEngine) List(ctx context.Context, userID int64) ([]domain.AchievementStatus, error) {
	p, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, e.fail("achievement_list", err)
	}
	list, err := e.achievements.ListAchievements(ctx)
	if err != nil {
		return nil, e.fail("achievement_list", err)
	}
	social, err := e.achievements.SocialStatuses(ctx, userID)
	if err != nil {
		return nil, e.fail("achievement_list", err)
	}
	claimed, err := e.claimedSet(ctx, userID)
	if err != nil {
		return nil, e.fail("achievement_list", err)
	}

	res := make([]domain.AchievementStatus, 0, len(list))
	for _, a := range list {
		st := domain.EvaluateAchievement(a, p, social[a.ID] == domain.SubmissionVerified, claimed[a.ID])
		if a.Type == domain.AchievementSocial {
			st.Submission = social[a.ID]
		}
		res = append(res, st)
	}
	return res, nil
}

// Claim pays the achievement reward if it is unlocked. The claim record and the
// credit are written together; a second claim is a no-op success.
func (e *AchievementEngine) Claim(ctx context.Context, userID int64, achievementID string) (*AchievementClaimResult, error) {
	a, err := e.achievements.GetAchievement(ctx, achievementID)
	if err != nil {
		return nil, e.fail("achievement_claim", err)
	}
	p, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, e.fail("achievement_claim", err)
	}
	social, err := e.achievements.SocialStatuses(ctx, userID)
	if err != nil {
		return nil, e.fail("achievement_claim", err)
	}
	claimed, err := e.claimedSet(ctx, userID)
	if err != nil {
		return nil, e.fail("achievement_claim", err)
	}

	if claimed[a.ID] {
		IdempotentRepeats.WithLabelValues("achievement_claim").Inc()
		return &AchievementClaimResult{AchievementID: a.ID, AlreadyClaimed: true}, nil
	}

	st := domain.EvaluateAchievement(a, p, social[a.ID] == domain.SubmissionVerified, false)
	if !st.IsUnlocked {
		return nil, e.fail("achievement_claim", domain.ErrAchievementLocked)
	}

	now := e.now()
	claim := &domain.UserAchievementClaim{
		ID:            uuid.NewString(),
		UserID:        userID,
		AchievementID: a.ID,
		Reward:        a.Reward,
		ClaimedAt:     now,
	}
	ok, updated, err := e.achievements.ClaimAchievement(ctx, claim, domain.Credit{
		Source:      domain.SourceAchievement,
		Amount:      a.Reward,
		AddLifetime: true,
		AddToday:    true,
		Day:         e.dayOf(now),
		Meta:        map[string]any{"achievement_id": a.ID},
	})
	if err != nil {
		return nil, e.fail("achievement_claim", err)
	}
	if !ok {
		IdempotentRepeats.WithLabelValues("achievement_claim").Inc()
		return &AchievementClaimResult{AchievementID: a.ID, AlreadyClaimed: true}, nil
	}

	observeCredit(domain.SourceAchievement, a.Reward)
	e.emit(ctx, userID, events.EventAchievementClaim, map[string]any{
		"achievement_id": a.ID,
		"reward":         a.Reward,
		"total_coins":    updated.TotalCoins,
	})
	e.audit.LogCredit(ctx, userID, domain.AuditActionAchievementClaim, domain.AuditCategoryAchievement, a.Reward,
		map[string]interface{}{"achievement_id": a.ID})
	logger.Info("achievement claimed", "user_id", userID, "achievement_id", a.ID, "reward", a.Reward)

	return &AchievementClaimResult{AchievementID: a.ID, Reward: a.Reward, Profile: updated}, nil
}

// SubmitSocial records proof for a social achievement. The submission waits for
// an operator; only a verified one unlocks the claim. Resubmitting is allowed
// after a rejection, otherwise the existing submission is returned as is.
func (e *AchievementEngine) SubmitSocial(ctx context.Context, userID int64, achievementID, proofURL, proofData string) (*domain.SocialSubmission, error) {
	a, err := e.achievements.GetAchievement(ctx, achievementID)
	if err != nil {
		return nil, e.fail("social_submit", err)
	}
	if a.Type != domain.AchievementSocial {
		return nil, e.fail("social_submit", domain.ErrNotSocial)
	}
	if _, err := e.profiles.GetProfile(ctx, userID); err != nil {
		return nil, e.fail("social_submit", err)
	}

	sub, created, err := e.achievements.SubmitSocial(ctx, &domain.SocialSubmission{
		ID:            uuid.NewString(),
		UserID:        userID,
		AchievementID: a.ID,
		Status:        domain.SubmissionPending,
		ProofURL:      proofURL,
		ProofData:     proofData,
		SubmittedAt:   e.now(),
	})
	if err != nil {
		return nil, e.fail("social_submit", err)
	}
	if !created {
		IdempotentRepeats.WithLabelValues("social_submit").Inc()
		return sub, nil
	}

	e.emit(ctx, userID, events.EventSocialSubmitted, map[string]any{
		"achievement_id": a.ID,
		"submission_id":  sub.ID,
	})
	e.audit.Log(ctx, userID, domain.AuditActionSocialSubmit, domain.AuditCategoryAchievement,
		map[string]interface{}{"achievement_id": a.ID, "submission_id": sub.ID, "attempts": sub.Attempts})
	return sub, nil
}
