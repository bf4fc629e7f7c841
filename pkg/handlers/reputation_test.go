package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/apperrors"
	"github.com/skillvault-io/skillvault-registry/pkg/config"
	"github.com/skillvault-io/skillvault-registry/pkg/models"
)

func newTestReputationHandler(mockService *mockReputationServiceForHandler) *ReputationHandler {
	cfg := &config.LeaderboardConfig{DefaultLimit: 25, MaxLimit: 100}
	return NewReputationHandler(mockService, cfg, zap.NewNop())
}

func TestReputationHandler_Create_Success(t *testing.T) {
	holderID := uuid.New()
	mockService := &mockReputationServiceForHandler{
		ledger: &models.ReputationLedger{ID: uuid.New(), HolderID: holderID, Level: 1},
	}
	handler := newTestReputationHandler(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/ledgers", nil)
	req = withActor(req, holderID)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestReputationHandler_Create_Duplicate(t *testing.T) {
	mockService := &mockReputationServiceForHandler{
		createErr: apperrors.ErrDuplicateKey,
	}
	handler := newTestReputationHandler(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/ledgers", nil)
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReputationHandler_Get_InvalidID(t *testing.T) {
	handler := newTestReputationHandler(&mockReputationServiceForHandler{})

	req := httptest.NewRequest(http.MethodGet, "/api/ledgers/bogus", nil)
	req.SetPathValue("lid", "bogus")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReputationHandler_Get_NotFound(t *testing.T) {
	mockService := &mockReputationServiceForHandler{
		getErr: apperrors.ErrNotFound,
	}
	handler := newTestReputationHandler(mockService)

	ledgerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/ledgers/"+ledgerID.String(), nil)
	req.SetPathValue("lid", ledgerID.String())
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReputationHandler_GetByHolder_Success(t *testing.T) {
	holderID := uuid.New()
	mockService := &mockReputationServiceForHandler{
		ledger: &models.ReputationLedger{ID: uuid.New(), HolderID: holderID, TotalPoints: 150, Level: 2},
	}
	handler := newTestReputationHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/holders/"+holderID.String()+"/ledger", nil)
	req.SetPathValue("hid", holderID.String())
	w := httptest.NewRecorder()

	handler.GetByHolder(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestReputationHandler_AddPoints_Success(t *testing.T) {
	ledgerID := uuid.New()
	mockService := &mockReputationServiceForHandler{
		entry: &models.PointEntry{ID: 1, LedgerID: ledgerID, Amount: 80, SourceLabel: "code review"},
	}
	handler := newTestReputationHandler(mockService)

	body, err := json.Marshal(AddPointsRequest{Amount: 80, SourceLabel: "code review", Category: "engineering"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/ledgers/"+ledgerID.String()+"/points", bytes.NewBuffer(body))
	req.SetPathValue("lid", ledgerID.String())
	req = withActor(req, uuid.New(), "admin")
	w := httptest.NewRecorder()

	handler.AddPoints(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestReputationHandler_AddPoints_InvalidBody(t *testing.T) {
	ledgerID := uuid.New()
	handler := newTestReputationHandler(&mockReputationServiceForHandler{})

	req := httptest.NewRequest(http.MethodPost, "/api/ledgers/"+ledgerID.String()+"/points", bytes.NewBufferString("{"))
	req.SetPathValue("lid", ledgerID.String())
	w := httptest.NewRecorder()

	handler.AddPoints(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReputationHandler_AwardBadge_Success(t *testing.T) {
	ledgerID := uuid.New()
	mockService := &mockReputationServiceForHandler{
		badge: &models.Badge{ID: 1, LedgerID: ledgerID, Name: "Mentor", Level: 2},
	}
	handler := newTestReputationHandler(mockService)

	body, err := json.Marshal(AwardBadgeRequest{Name: "Mentor", Level: 2})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/ledgers/"+ledgerID.String()+"/badges", bytes.NewBuffer(body))
	req.SetPathValue("lid", ledgerID.String())
	req = withActor(req, uuid.New(), "admin")
	w := httptest.NewRecorder()

	handler.AwardBadge(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestReputationHandler_AwardBadge_TierAboveLevel(t *testing.T) {
	ledgerID := uuid.New()
	mockService := &mockReputationServiceForHandler{
		awardErr: apperrors.ErrBadgeNotEarned,
	}
	handler := newTestReputationHandler(mockService)

	body, err := json.Marshal(AwardBadgeRequest{Name: "Mentor", Level: 9})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/ledgers/"+ledgerID.String()+"/badges", bytes.NewBuffer(body))
	req.SetPathValue("lid", ledgerID.String())
	req = withActor(req, uuid.New(), "admin")
	w := httptest.NewRecorder()

	handler.AwardBadge(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReputationHandler_Leaderboard_DefaultLimit(t *testing.T) {
	mockService := &mockReputationServiceForHandler{
		entries: []*models.LeaderboardEntry{
			{HolderID: uuid.New(), TotalPoints: 300, Level: 4, Rank: 1},
		},
	}
	handler := newTestReputationHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	w := httptest.NewRecorder()

	handler.Leaderboard(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, mockService.capturedLimit)
}

func TestReputationHandler_Leaderboard_ClampsToMaxLimit(t *testing.T) {
	mockService := &mockReputationServiceForHandler{}
	handler := newTestReputationHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=5000", nil)
	w := httptest.NewRecorder()

	handler.Leaderboard(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, mockService.capturedLimit)
}

func TestReputationHandler_Leaderboard_InvalidLimit(t *testing.T) {
	handler := newTestReputationHandler(&mockReputationServiceForHandler{})

	for _, raw := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit="+raw, nil)
		w := httptest.NewRecorder()

		handler.Leaderboard(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", raw)
	}
}
