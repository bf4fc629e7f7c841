package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/apperrors"
	"github.com/skillvault-io/skillvault-registry/pkg/models"
)

func TestChallengesHandler_Create_Success(t *testing.T) {
	now := time.Now().UTC()
	mockService := &mockChallengeServiceForHandler{
		challenge: &models.Challenge{
			ID:           uuid.New(),
			Name:         "Spring Sprint",
			StartsAt:     now,
			EndsAt:       now.Add(72 * time.Hour),
			RewardPoints: 40,
		},
	}
	handler := NewChallengesHandler(mockService, zap.NewNop())

	body, err := json.Marshal(CreateChallengeRequest{
		Name:         "Spring Sprint",
		StartsAt:     now,
		EndsAt:       now.Add(72 * time.Hour),
		RewardPoints: 40,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/challenges", bytes.NewBuffer(body))
	req = withActor(req, uuid.New(), "admin")
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestChallengesHandler_Create_InvalidBody(t *testing.T) {
	handler := NewChallengesHandler(&mockChallengeServiceForHandler{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/challenges", bytes.NewBufferString("{{"))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChallengesHandler_Get_Success(t *testing.T) {
	challengeID := uuid.New()
	mockService := &mockChallengeServiceForHandler{
		challenge: &models.Challenge{ID: challengeID, Name: "Spring Sprint"},
	}
	handler := NewChallengesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/challenges/"+challengeID.String(), nil)
	req.SetPathValue("cid", challengeID.String())
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChallengesHandler_Get_InvalidID(t *testing.T) {
	handler := NewChallengesHandler(&mockChallengeServiceForHandler{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/challenges/nope", nil)
	req.SetPathValue("cid", "nope")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChallengesHandler_Join_Success(t *testing.T) {
	challengeID := uuid.New()
	actor := uuid.New()
	mockService := &mockChallengeServiceForHandler{}
	handler := NewChallengesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/"+challengeID.String()+"/join", nil)
	req.SetPathValue("cid", challengeID.String())
	req = withActor(req, actor)
	w := httptest.NewRecorder()

	handler.Join(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, actor, mockService.joinedBy)
}

func TestChallengesHandler_Join_OutsideWindow(t *testing.T) {
	challengeID := uuid.New()
	mockService := &mockChallengeServiceForHandler{
		joinErr: apperrors.ErrChallengeNotActive,
	}
	handler := NewChallengesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/"+challengeID.String()+"/join", nil)
	req.SetPathValue("cid", challengeID.String())
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.Join(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestChallengesHandler_Join_Duplicate(t *testing.T) {
	challengeID := uuid.New()
	mockService := &mockChallengeServiceForHandler{
		joinErr: apperrors.ErrDuplicateKey,
	}
	handler := NewChallengesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/"+challengeID.String()+"/join", nil)
	req.SetPathValue("cid", challengeID.String())
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.Join(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChallengesHandler_Complete_Success(t *testing.T) {
	challengeID := uuid.New()
	actor := uuid.New()
	mockService := &mockChallengeServiceForHandler{
		completion: &models.ChallengeCompletion{
			ChallengeID: challengeID,
			HolderID:    actor,
			CompletedAt: time.Now().UTC(),
		},
	}
	handler := NewChallengesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/"+challengeID.String()+"/complete", nil)
	req.SetPathValue("cid", challengeID.String())
	req = withActor(req, actor)
	w := httptest.NewRecorder()

	handler.Complete(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestChallengesHandler_Complete_NotJoined(t *testing.T) {
	challengeID := uuid.New()
	mockService := &mockChallengeServiceForHandler{
		completeErr: apperrors.ErrNotFound,
	}
	handler := NewChallengesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/"+challengeID.String()+"/complete", nil)
	req.SetPathValue("cid", challengeID.String())
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.Complete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
