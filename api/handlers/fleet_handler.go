package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/service"
)

// FleetHandler handles lorry and driver registry requests
type FleetHandler struct {
	fleet service.FleetService
	log   *logrus.Logger
}

// NewFleetHandler creates a new FleetHandler instance
func NewFleetHandler(fleet service.FleetService, log *logrus.Logger) *FleetHandler {
	return &FleetHandler{
		fleet: fleet,
		log:   log,
	}
}

// CreateLorry handles registering a lorry
func (h *FleetHandler) CreateLorry(c *gin.Context) {
	var req service.CreateLorryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	lorry, err := h.fleet.CreateLorry(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, lorry)
}

// GetLorry handles fetching a lorry
func (h *FleetHandler) GetLorry(c *gin.Context) {
	lorry, err := h.fleet.GetLorry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lorry)
}

// ListLorries handles listing active lorries
func (h *FleetHandler) ListLorries(c *gin.Context) {
	lorries, err := h.fleet.ListLorries(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lorries": lorries, "count": len(lorries)})
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SetLorryActive handles retiring or reinstating a lorry
func (h *FleetHandler) SetLorryActive(c *gin.Context) {
	var req setActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	lorry, err := h.fleet.SetLorryActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lorry)
}

// CreateDriver handles registering a driver
func (h *FleetHandler) CreateDriver(c *gin.Context) {
	var req service.CreateDriverRequest
	if !bindAndValidate(c, &req) {
		return
	}

	driver, err := h.fleet.CreateDriver(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, driver)
}

// GetDriver handles fetching a driver
func (h *FleetHandler) GetDriver(c *gin.Context) {
	driver, err := h.fleet.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, driver)
}

// ListDrivers handles listing active drivers
func (h *FleetHandler) ListDrivers(c *gin.Context) {
	drivers, err := h.fleet.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drivers": drivers, "count": len(drivers)})
}

// SetDriverActive handles deactivating or reinstating a driver
func (h *FleetHandler) SetDriverActive(c *gin.Context) {
	var req setActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	driver, err := h.fleet.SetDriverActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, driver)
}

type scheduleRequest struct {
	Date string `json:"date" validate:"required"`
}

// ScheduleDriver handles marking a driver as working on a day
func (h *FleetHandler) ScheduleDriver(c *gin.Context) {
	var req scheduleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	date, err := model.ParseBusinessDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	if err := h.fleet.ScheduleDriver(c.Request.Context(), c.Param("id"), date); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// UnscheduleDriver handles removing a driver from a day's schedule
func (h *FleetHandler) UnscheduleDriver(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}
	date, err := model.ParseBusinessDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	if err := h.fleet.UnscheduleDriver(c.Request.Context(), c.Param("id"), date); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
