package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Me loads (or creates) the caller's profile and runs the daily streak check.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	res, err := h.Engine.Profiles.Login(c.Request.Context(), userID, c.GetString("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.Engine.Audit.LogLogin(c.Request.Context(), userID, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"profile": res.Profile,
		"streak":  res.Streak,
		"created": res.Created,
	})
}

// History returns the caller's credit ledger, newest first.
func (h *Handler) History(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	txs, err := h.Engine.Profiles.History(c.Request.Context(), userID, queryLimit(c, 50, 200))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
