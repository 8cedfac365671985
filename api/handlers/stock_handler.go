package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/service"
)

// StockHandler handles stock reconstruction requests
type StockHandler struct {
	stock service.StockService
	log   *logrus.Logger
}

// NewStockHandler creates a new StockHandler instance
func NewStockHandler(stock service.StockService, log *logrus.Logger) *StockHandler {
	return &StockHandler{
		stock: stock,
		log:   log,
	}
}

// parseAsOf reads the as_of query parameter, defaulting to today
func parseAsOf(c *gin.Context) (time.Time, bool) {
	raw := c.Query("as_of")
	if raw == "" {
		return time.Now(), true
	}
	asOf, err := model.ParseBusinessDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid as_of date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return asOf, true
}

// CurrentStock handles reconstructing a lorry's stock as of a business day
func (h *StockHandler) CurrentStock(c *gin.Context) {
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	lorryID := c.Param("id")
	uids, err := h.stock.CurrentStock(c.Request.Context(), lorryID, asOf)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lorry_id": lorryID,
		"as_of":    model.FormatBusinessDate(asOf),
		"uids":     uids,
		"count":    len(uids),
	})
}

// FleetReport handles the per-lorry stock summary across the fleet
func (h *StockHandler) FleetReport(c *gin.Context) {
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	report, err := h.stock.FleetReport(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of":   model.FormatBusinessDate(asOf),
		"lorries": report,
	})
}

// DuplicateUIDs handles the advisory report of items appearing on more than
// one lorry at once
func (h *StockHandler) DuplicateUIDs(c *gin.Context) {
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	duplicates, err := h.stock.DuplicateUIDs(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of":      model.FormatBusinessDate(asOf),
		"duplicates": duplicates,
		"count":      len(duplicates),
	})
}
