package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/service"
)

// HoldHandler handles driver hold requests
type HoldHandler struct {
	holds service.HoldService
	log   *logrus.Logger
}

// NewHoldHandler creates a new HoldHandler instance
func NewHoldHandler(holds service.HoldService, log *logrus.Logger) *HoldHandler {
	return &HoldHandler{
		holds: holds,
		log:   log,
	}
}

// CreateManual handles placing a manual hold on a driver
func (h *HoldHandler) CreateManual(c *gin.Context) {
	var req service.CreateHoldRequest
	if !bindAndValidate(c, &req) {
		return
	}

	hold, err := h.holds.CreateManual(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, hold)
}

type resolveHoldRequest struct {
	ResolvedBy      string `json:"resolved_by" validate:"required"`
	ResolutionNotes string `json:"resolution_notes" validate:"required"`
}

// Resolve handles lifting a hold
func (h *HoldHandler) Resolve(c *gin.Context) {
	var req resolveHoldRequest
	if !bindAndValidate(c, &req) {
		return
	}

	hold, err := h.holds.Resolve(c.Request.Context(), &service.ResolveHoldRequest{
		HoldID:          c.Param("id"),
		ResolvedBy:      req.ResolvedBy,
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, hold)
}

// Get handles fetching a single hold
func (h *HoldHandler) Get(c *gin.Context) {
	hold, err := h.holds.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, hold)
}

// ListForDriver handles listing a driver's holds
func (h *HoldHandler) ListForDriver(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	holds, err := h.holds.ListForDriver(c.Request.Context(), c.Param("id"), activeOnly)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holds": holds, "count": len(holds)})
}
