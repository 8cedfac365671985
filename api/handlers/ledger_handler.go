package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/service"
)

const defaultHistoryLimit = 100

// LedgerHandler handles ledger transaction requests
type LedgerHandler struct {
	ledger service.LedgerService
	log    *logrus.Logger
}

// NewLedgerHandler creates a new LedgerHandler instance
func NewLedgerHandler(ledger service.LedgerService, log *logrus.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
		log:    log,
	}
}

// Append handles recording a stock movement against a lorry. The lorry comes
// from the route path, so it is set before the struct is validated.
func (h *LedgerHandler) Append(c *gin.Context) {
	var req service.AppendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.LorryID = c.Param("id")
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.ledger.Append(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// SoftCorrect handles correcting an earlier transaction by appending
func (h *LedgerHandler) SoftCorrect(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	var req service.SoftCorrectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.TransactionID = uint(id)
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.ledger.SoftCorrect(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// History handles listing a lorry's recent transactions
func (h *LedgerHandler) History(c *gin.Context) {
	limit := parseLimit(c, defaultHistoryLimit)
	txs, err := h.ledger.LorryHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "count": len(txs)})
}

// ItemTrail handles listing every movement of a serialized item
func (h *LedgerHandler) ItemTrail(c *gin.Context) {
	limit := parseLimit(c, defaultHistoryLimit)
	txs, err := h.ledger.ItemTrail(c.Request.Context(), c.Param("uid"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "count": len(txs)})
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
