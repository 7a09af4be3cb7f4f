package handlers

import (
	"net/http"

	"ekehi_engine/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetReferralCode returns the caller's referral code
func (h *Handler) GetReferralCode(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	code, _, err := h.Engine.Referrals.Code(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}

// GetReferralLink returns the code together with the shareable deep link
func (h *Handler) GetReferralLink(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	code, link, err := h.Engine.Referrals.Code(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "link": link})
}

// GetReferralStats returns user's referral statistics
func (h *Handler) GetReferralStats(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stats, err := h.Engine.Referrals.Stats(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	referrals, err := h.Engine.Referrals.List(ctx, userID)
	if err != nil {
		referrals = []*domain.Referral{}
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"referrals": referrals,
	})
}

// ApplyReferralRequest - code or full referral link
type ApplyReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyReferralCode applies a referral code for the current user
func (h *Handler) ApplyReferralCode(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(domain.KindInvalidCode), "message": "code is required"})
		return
	}

	res, err := h.Engine.Referrals.Claim(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
