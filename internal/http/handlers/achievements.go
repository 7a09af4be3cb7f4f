package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListAchievements(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.Engine.Achievements.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": list})
}

func (h *Handler) ClaimAchievement(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	res, err := h.Engine.Achievements.Claim(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type SubmitSocialRequest struct {
	ProofURL  string `json:"proofUrl" binding:"omitempty,url,max=512"`
	ProofData string `json:"proofData" binding:"max=2048"`
}

// SubmitSocial sends proof of a social task (follow, join, share) for review.
func (h *Handler) SubmitSocial(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req SubmitSocialRequest
	if !bindOptional(c, &req) {
		return
	}

	sub, err := h.Engine.Achievements.SubmitSocial(c.Request.Context(), userID, c.Param("id"), req.ProofURL, req.ProofData)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, sub)
}
