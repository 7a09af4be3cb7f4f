package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CreatePurchaseRequest struct {
	AmountUSD       float64 `json:"amountUsd"`
	PaymentMethod   string  `json:"paymentMethod" binding:"required,max=32"`
	TransactionHash string  `json:"transactionHash" binding:"max=128"`
}

func (h *Handler) ListPurchases(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.Engine.Presale.ListPurchases(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": list})
}

func (h *Handler) CreatePurchase(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	p, err := h.Engine.Presale.CreatePurchase(c.Request.Context(), userID, req.AmountUSD, req.PaymentMethod, req.TransactionHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
