package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/service"
)

// VerificationHandler handles clock-in stock verification requests
type VerificationHandler struct {
	verifications service.VerificationService
	log           *logrus.Logger
}

// NewVerificationHandler creates a new VerificationHandler instance
func NewVerificationHandler(verifications service.VerificationService, log *logrus.Logger) *VerificationHandler {
	return &VerificationHandler{
		verifications: verifications,
		log:           log,
	}
}

type verifyRequest struct {
	ScannedUIDs []string `json:"scanned_uids"`
	ActorID     string   `json:"actor_id" validate:"required"`
}

// Verify handles a driver's stock scan for an assignment
func (h *VerificationHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.verifications.Verify(c.Request.Context(), &service.VerifyRequest{
		AssignmentID: c.Param("id"),
		ScannedUIDs:  req.ScannedUIDs,
		ActorID:      req.ActorID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetByAssignment handles fetching the verification for an assignment
func (h *VerificationHandler) GetByAssignment(c *gin.Context) {
	verification, err := h.verifications.GetByAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}
