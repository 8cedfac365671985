package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/service"
)

type stubLedgerService struct {
	appended *service.AppendRequest
}

func (s *stubLedgerService) Append(ctx context.Context, req *service.AppendRequest) (*model.Transaction, error) {
	s.appended = req
	return &model.Transaction{
		ID:      1,
		LorryID: req.LorryID,
		Action:  model.ActionType(req.Action),
		UID:     req.UID,
		ActorID: req.ActorID,
	}, nil
}

func (s *stubLedgerService) SoftCorrect(ctx context.Context, req *service.SoftCorrectRequest) (*model.Transaction, error) {
	return nil, nil
}

func (s *stubLedgerService) LorryHistory(ctx context.Context, lorryID string, limit int) ([]*model.Transaction, error) {
	return nil, nil
}

func (s *stubLedgerService) ItemTrail(ctx context.Context, uid string, limit int) ([]*model.Transaction, error) {
	return nil, nil
}

func newAppendRouter(stub *stubLedgerService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := gin.New()
	h := NewLedgerHandler(stub, log)
	r.POST("/api/v1/lorries/:id/transactions", h.Append)
	return r
}

func TestAppendTakesLorryFromPath(t *testing.T) {
	stub := &stubLedgerService{}
	r := newAppendRouter(stub)

	body := `{"action":"LOAD","uid":"BED-001","actor_id":"admin-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lorries/lorry-1/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, stub.appended)
	assert.Equal(t, "lorry-1", stub.appended.LorryID)
	assert.Equal(t, "LOAD", stub.appended.Action)
	assert.Equal(t, "BED-001", stub.appended.UID)
}

func TestAppendPathOverridesBodyLorry(t *testing.T) {
	stub := &stubLedgerService{}
	r := newAppendRouter(stub)

	body := `{"lorry_id":"lorry-9","action":"LOAD","uid":"BED-001","actor_id":"admin-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lorries/lorry-1/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, stub.appended)
	assert.Equal(t, "lorry-1", stub.appended.LorryID)
}

func TestAppendRejectsMissingFields(t *testing.T) {
	stub := &stubLedgerService{}
	r := newAppendRouter(stub)

	body := `{"action":"LOAD","uid":"BED-001"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lorries/lorry-1/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, stub.appended)
}
