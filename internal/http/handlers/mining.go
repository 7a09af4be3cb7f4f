package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SessionState(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	st, err := h.Engine.Sessions.State(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) StartSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	st, err := h.Engine.Sessions.Start(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ClaimSession credits a completed session. A repeat after a lost race answers
// 200 with already_claimed=true.
func (h *Handler) ClaimSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	res, err := h.Engine.Sessions.Claim(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) StopSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	st, err := h.Engine.Sessions.Stop(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// MiningRate returns the auto mining rate derived from completed purchases.
func (h *Handler) MiningRate(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	st, err := h.Engine.MiningRate.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
