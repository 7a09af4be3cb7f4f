package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Profile is the public view of another user, without referral or earnings details.
func (h *Handler) Profile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ctx := c.Request.Context()
	p, err := h.Engine.Profiles.GetProfile(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	rank, err := h.Engine.Profiles.Rank(ctx, id)
	if err != nil {
		rank = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":        p.UserID,
		"username":       p.Username,
		"totalCoins":     p.TotalCoins,
		"currentStreak":  p.CurrentStreak,
		"longestStreak":  p.LongestStreak,
		"totalReferrals": p.TotalReferrals,
		"createdAt":      p.CreatedAt,
		"rank":           rank,
	})
}
