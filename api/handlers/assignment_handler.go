package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/service"
)

// AssignmentHandler handles driver to lorry assignment requests
type AssignmentHandler struct {
	assignments service.AssignmentService
	log         *logrus.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler instance
func NewAssignmentHandler(assignments service.AssignmentService, log *logrus.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		log:         log,
	}
}

type autoAssignRequest struct {
	Date    string `json:"date"`
	AdminID string `json:"admin_id" validate:"required"`
}

// AutoAssign handles the daily batch assignment run
func (h *AssignmentHandler) AutoAssign(c *gin.Context) {
	var req autoAssignRequest
	if !bindAndValidate(c, &req) {
		return
	}

	date := time.Now()
	if req.Date != "" {
		var err error
		date, err = model.ParseBusinessDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	results, err := h.assignments.AutoAssign(c.Request.Context(), date, req.AdminID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	assigned := 0
	for _, r := range results {
		if r.Assigned {
			assigned++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":     model.FormatBusinessDate(date),
		"results":  results,
		"assigned": assigned,
	})
}

type manualAssignRequest struct {
	DriverID   string `json:"driver_id" validate:"required"`
	LorryID    string `json:"lorry_id" validate:"required"`
	Date       string `json:"date"`
	AssignedBy string `json:"assigned_by" validate:"required"`
}

// Assign handles creating a single assignment by hand
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req manualAssignRequest
	if !bindAndValidate(c, &req) {
		return
	}

	date := time.Now()
	if req.Date != "" {
		var err error
		date, err = model.ParseBusinessDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	assignment, err := h.assignments.Assign(c.Request.Context(), &service.AssignRequest{
		DriverID:   req.DriverID,
		LorryID:    req.LorryID,
		Date:       date,
		AssignedBy: req.AssignedBy,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

type activateRequest struct {
	ShiftID string `json:"shift_id"`
}

// Activate handles marking an assignment as on shift
func (h *AssignmentHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	assignment, err := h.assignments.Activate(c.Request.Context(), c.Param("id"), req.ShiftID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// Complete handles closing an assignment at end of shift
func (h *AssignmentHandler) Complete(c *gin.Context) {
	assignment, err := h.assignments.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

type cancelRequest struct {
	CancelledBy string `json:"cancelled_by" validate:"required"`
}

// Cancel handles voiding an open assignment
func (h *AssignmentHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if !bindAndValidate(c, &req) {
		return
	}

	assignment, err := h.assignments.Cancel(c.Request.Context(), c.Param("id"), req.CancelledBy)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// ListByDate handles listing open assignments for a day
func (h *AssignmentHandler) ListByDate(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		var err error
		date, err = model.ParseBusinessDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	assignments, err := h.assignments.ListByDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":        model.FormatBusinessDate(date),
		"assignments": assignments,
	})
}

// GetForDriver handles fetching a driver's open assignment for a day
func (h *AssignmentHandler) GetForDriver(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		var err error
		date, err = model.ParseBusinessDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	assignment, err := h.assignments.GetForDriver(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}
