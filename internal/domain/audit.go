package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth        = "auth"
	AuditCategoryMining      = "mining"
	AuditCategoryStreak      = "streak"
	AuditCategoryReferral    = "referral"
	AuditCategoryAchievement = "achievement"
	AuditCategoryAds         = "ads"
	AuditCategoryPresale     = "presale"
	AuditCategoryAdmin       = "admin"
)

// Audit actions
const (
	AuditActionLogin = "login"

	AuditActionSessionStart = "session_start"
	AuditActionSessionClaim = "session_claim"
	AuditActionSessionStop  = "session_stop"

	AuditActionStreakBonus = "streak_bonus"

	AuditActionReferralApply  = "referral_apply"
	AuditActionReferralReject = "referral_reject"

	AuditActionAchievementClaim = "achievement_claim"
	AuditActionSocialSubmit     = "social_submit"
	AuditActionSocialVerify     = "social_verify"
	AuditActionSocialReject     = "social_reject"

	AuditActionAdBonus = "ad_bonus"

	AuditActionPurchaseCreate   = "purchase_create"
	AuditActionPurchaseComplete = "purchase_complete"
	AuditActionPurchaseReject   = "purchase_reject"
)
