package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ekehi_engine/internal/domain"
	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Engine *service.Engine
}

func NewHandler(engine *service.Engine) *Handler {
	return &Handler{Engine: engine}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func mustUserID(c *gin.Context) (int64, bool) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return userID, true
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, req any) bool {
	if c.Request.ContentLength <= 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return false
	}
	return true
}

// queryLimit reads ?limit=, falling back to def and clamping to [1, hi].
func queryLimit(c *gin.Context, def, hi int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > hi {
		return hi
	}
	return n
}

// statusForKind maps a rejection to its HTTP status.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAchievementNotFound, domain.KindPurchaseNotFound, domain.KindSubmissionNotFound:
		return http.StatusNotFound
	case domain.KindSessionActive, domain.KindSessionNotComplete, domain.KindSessionNotActive,
		domain.KindNoSession, domain.KindAlreadyReferred, domain.KindReferralCapReached,
		domain.KindAdCooldownActive, domain.KindAchievementLocked,
		domain.KindPurchaseNotPending, domain.KindSubmissionReviewed:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// respondError writes the JSON error for err. Store failures are reported as
// retryable without leaking driver messages.
func respondError(c *gin.Context, err error) {
	if v, ok := domain.IsValidation(err); ok {
		body := gin.H{"error": string(v.Kind), "message": v.Message}
		if v.RetryAfter > 0 {
			secs := int64((v.RetryAfter + time.Second - 1) / time.Second)
			body["retry_after"] = secs
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
		}
		c.JSON(statusForKind(v.Kind), body)
		return
	}

	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile_not_found", "message": "profile not found"})
	case errors.Is(err, domain.ErrRemoteWrite):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "remote_write_failed",
			"message":   "storage is temporarily unavailable, try again",
			"retryable": true,
		})
	default:
		_ = c.Error(err)
		logger.Error("unexpected handler error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
