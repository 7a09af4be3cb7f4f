package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AdStatus(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	st, err := h.Engine.Ads.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// AdWatched is called by the client after the ad SDK reports completion.
func (h *Handler) AdWatched(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	grant, err := h.Engine.Ads.Watch(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}
