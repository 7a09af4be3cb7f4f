package domain

import "time"

// SubmissionStatus - review state of a social task submission
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionVerified SubmissionStatus = "verified"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionVerified, SubmissionRejected:
		return true
	}
	return false
}

// SocialSubmission - a user's proof for a social achievement. One per
// (user, achievement); a rejected one may be resubmitted, a verified one is final.
type SocialSubmission struct {
	ID              string           `db:"id" json:"id"`
	UserID          int64            `db:"user_id" json:"userId"`
	AchievementID   string           `db:"achievement_id" json:"achievementId"`
	Status          SubmissionStatus `db:"status" json:"status"`
	ProofURL        string           `db:"proof_url" json:"proofUrl,omitempty"`
	ProofData       string           `db:"proof_data" json:"proofData,omitempty"`
	RejectionReason string           `db:"rejection_reason" json:"rejectionReason,omitempty"`
	Attempts        int              `db:"attempts" json:"verificationAttempts"`
	SubmittedAt     time.Time        `db:"submitted_at" json:"submittedAt"`
	ReviewedAt      *time.Time       `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewedBy      *int64           `db:"reviewed_by" json:"reviewedBy,omitempty"`
}

// SubmissionReview - operator decision on a pending submission
type SubmissionReview struct {
	SubmissionID string
	Status       SubmissionStatus
	Reason       string
	ReviewerID   int64
	At           time.Time
}

// EngineStats - operator dashboard counters
type EngineStats struct {
	TotalUsers           int64     `json:"totalUsers"`
	ActiveUsersToday     int64     `json:"activeUsersToday"`
	TotalCoins           float64   `json:"totalCoins"`
	TotalReferrals       int64     `json:"totalReferrals"`
	TotalSubmissions     int64     `json:"totalSubmissions"`
	PendingSubmissions   int64     `json:"pendingSubmissions"`
	VerifiedSubmissions  int64     `json:"verifiedSubmissions"`
	RejectedSubmissions  int64     `json:"rejectedSubmissions"`
	PendingPurchases     int64     `json:"pendingPurchases"`
	CompletedPurchases   int64     `json:"completedPurchases"`
	CompletedPurchaseUSD float64   `json:"completedPurchaseUsd"`
	Timestamp            time.Time `json:"timestamp"`
}
