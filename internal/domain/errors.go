package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind - machine readable reason of a rejected operation
type ErrorKind string

const (
	KindInvalidCode         ErrorKind = "invalid_code"
	KindSelfReferral        ErrorKind = "self_referral"
	KindAlreadyReferred     ErrorKind = "already_referred"
	KindReferralCapReached  ErrorKind = "referral_cap_reached"
	KindAdCooldownActive    ErrorKind = "ad_cooldown_active"
	KindSessionActive       ErrorKind = "session_active"
	KindSessionNotComplete  ErrorKind = "session_not_complete"
	KindSessionNotActive    ErrorKind = "session_not_active"
	KindNoSession           ErrorKind = "no_session"
	KindAchievementLocked   ErrorKind = "achievement_locked"
	KindAchievementNotFound ErrorKind = "achievement_not_found"
	KindNotSocial           ErrorKind = "achievement_not_social"
	KindInvalidAmount       ErrorKind = "invalid_amount"
	KindPurchaseNotFound    ErrorKind = "purchase_not_found"
	KindPurchaseNotPending  ErrorKind = "purchase_not_pending"
	KindSubmissionNotFound  ErrorKind = "submission_not_found"
	KindSubmissionReviewed  ErrorKind = "submission_already_reviewed"
	KindInvalidStatus       ErrorKind = "invalid_status"
)

// ValidationError is a locally recoverable rejection. It never changes durable state.
type ValidationError struct {
	Kind    ErrorKind
	Message string
	// RetryAfter is set for cooldown rejections.
	RetryAfter time.Duration
}

func (e *ValidationError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is matches any ValidationError of the same kind, so errors.Is(err, ErrSelfReferral)
// holds for copies carrying a different message or RetryAfter.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newValidation(kind ErrorKind, msg string) *ValidationError {
	return &ValidationError{Kind: kind, Message: msg}
}

var (
	ErrInvalidCode         = newValidation(KindInvalidCode, "invalid referral code")
	ErrSelfReferral        = newValidation(KindSelfReferral, "cannot use your own referral code")
	ErrAlreadyReferred     = newValidation(KindAlreadyReferred, "referral already applied")
	ErrReferralCapReached  = newValidation(KindReferralCapReached, "referrer has reached the referral limit")
	ErrAdCooldownActive    = newValidation(KindAdCooldownActive, "ad bonus is on cooldown")
	ErrSessionActive       = newValidation(KindSessionActive, "a mining session is already running")
	ErrSessionNotComplete  = newValidation(KindSessionNotComplete, "mining session is not complete yet")
	ErrSessionNotActive    = newValidation(KindSessionNotActive, "mining session is not active")
	ErrNoSession           = newValidation(KindNoSession, "no mining session")
	ErrAchievementLocked   = newValidation(KindAchievementLocked, "achievement is not unlocked")
	ErrAchievementNotFound = newValidation(KindAchievementNotFound, "achievement not found")
	ErrNotSocial           = newValidation(KindNotSocial, "only social achievements take submissions")
	ErrInvalidAmount       = newValidation(KindInvalidAmount, "invalid amount")
	ErrPurchaseNotFound    = newValidation(KindPurchaseNotFound, "purchase not found")
	ErrPurchaseNotPending  = newValidation(KindPurchaseNotPending, "purchase is not pending")
	ErrSubmissionNotFound  = newValidation(KindSubmissionNotFound, "submission not found")
	ErrSubmissionReviewed  = newValidation(KindSubmissionReviewed, "submission was already reviewed")
	ErrInvalidStatus       = newValidation(KindInvalidStatus, "invalid status")
)

// CooldownError returns ErrAdCooldownActive carrying the time left.
func CooldownError(remaining time.Duration) error {
	return &ValidationError{
		Kind:       KindAdCooldownActive,
		Message:    fmt.Sprintf("ad bonus available in %ds", int64(remaining.Round(time.Second)/time.Second)),
		RetryAfter: remaining,
	}
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrRemoteWrite     = errors.New("remote write failed")
)

// RemoteWriteError wraps a store failure. Local durable state is untouched and the
// caller may retry the whole operation.
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

func (e *RemoteWriteError) Is(target error) bool { return target == ErrRemoteWrite }

// RemoteWrite wraps err unless it is already a domain error that callers should see as is.
func RemoteWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := IsValidation(err); ok {
		return err
	}
	if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrRemoteWrite) {
		return err
	}
	return &RemoteWriteError{Op: op, Err: err}
}
