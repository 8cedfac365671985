package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/service"
)

// AccessHandler handles driver order-access gate requests
type AccessHandler struct {
	access service.AccessService
	log    *logrus.Logger
}

// NewAccessHandler creates a new AccessHandler instance
func NewAccessHandler(access service.AccessService, log *logrus.Logger) *AccessHandler {
	return &AccessHandler{
		access: access,
		log:    log,
	}
}

// CanAccessOrders handles the gate check for a driver
func (h *AccessHandler) CanAccessOrders(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		var err error
		date, err = model.ParseBusinessDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	decision, err := h.access.CanAccessOrders(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
