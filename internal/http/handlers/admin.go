package handlers

import (
	"net/http"
	"strconv"

	"ekehi_engine/internal/domain"

	"github.com/gin-gonic/gin"
)

// Admin endpoints sit behind middleware.RequireAdmin.

type ReviewRequest struct {
	Reason string `json:"reason" binding:"max=512"`
}

type ApprovePurchaseRequest struct {
	TransactionHash string `json:"transactionHash" binding:"max=128"`
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Engine.Admin.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminListSubmissions: ?status=pending|verified|rejected&limit=
func (h *Handler) AdminListSubmissions(c *gin.Context) {
	status := domain.SubmissionStatus(c.Query("status"))
	list, err := h.Engine.Admin.ListSubmissions(c.Request.Context(), status, queryLimit(c, 50, 200))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []*domain.SocialSubmission{}
	}
	c.JSON(http.StatusOK, gin.H{"submissions": list})
}

func (h *Handler) AdminVerifySubmission(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	sub, err := h.Engine.Admin.VerifySubmission(c.Request.Context(), adminID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) AdminRejectSubmission(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindOptional(c, &req) {
		return
	}
	sub, err := h.Engine.Admin.RejectSubmission(c.Request.Context(), adminID, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) AdminPendingPurchases(c *gin.Context) {
	list, err := h.Engine.Admin.ListPendingPurchases(c.Request.Context(), queryLimit(c, 50, 200))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []*domain.PresalePurchase{}
	}
	c.JSON(http.StatusOK, gin.H{"purchases": list})
}

// AdminCompletePurchase confirms a payment. Completing twice is a no-op.
func (h *Handler) AdminCompletePurchase(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ApprovePurchaseRequest
	if !bindOptional(c, &req) {
		return
	}
	res, err := h.Engine.Admin.ApprovePurchase(c.Request.Context(), adminID, c.Param("id"), req.TransactionHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) AdminRejectPurchase(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindOptional(c, &req) {
		return
	}
	p, err := h.Engine.Admin.RejectPurchase(c.Request.Context(), adminID, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) AdminUserAudit(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	logs, err := h.Engine.Admin.UserAuditLogs(c.Request.Context(), userID, queryLimit(c, 50, 500))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
