package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top users by total coins
func (h *Handler) GetLeaderboard(c *gin.Context) {
	top, err := h.Engine.Profiles.Leaderboard(c.Request.Context(), queryLimit(c, 100, 100))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// GetMyRank returns the current user's rank
func (h *Handler) GetMyRank(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	p, err := h.Engine.Profiles.GetProfile(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	rank, err := h.Engine.Profiles.Rank(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rank":       rank,
		"totalCoins": p.TotalCoins,
	})
}
