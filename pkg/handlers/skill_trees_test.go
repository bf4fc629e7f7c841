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
	"github.com/skillvault-io/skillvault-registry/pkg/models"
)

func TestSkillTreesHandler_Create_Success(t *testing.T) {
	ownerID := uuid.New()
	mockService := &mockSkillGraphServiceForHandler{
		tree: &models.SkillTree{ID: uuid.New(), OwnerID: ownerID},
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/skill-trees", nil)
	req = withActor(req, ownerID)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.NotNil(t, response.Data)
}

func TestSkillTreesHandler_Create_NoClaims(t *testing.T) {
	mockService := &mockSkillGraphServiceForHandler{}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/skill-trees", nil)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSkillTreesHandler_Create_Duplicate(t *testing.T) {
	mockService := &mockSkillGraphServiceForHandler{
		createErr: apperrors.ErrDuplicateKey,
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/skill-trees", nil)
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSkillTreesHandler_Get_Success(t *testing.T) {
	treeID := uuid.New()
	mockService := &mockSkillGraphServiceForHandler{
		tree: &models.SkillTree{ID: treeID, OwnerID: uuid.New()},
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/skill-trees/"+treeID.String(), nil)
	req.SetPathValue("tid", treeID.String())
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestSkillTreesHandler_Get_InvalidID(t *testing.T) {
	handler := NewSkillTreesHandler(&mockSkillGraphServiceForHandler{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/skill-trees/not-a-uuid", nil)
	req.SetPathValue("tid", "not-a-uuid")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSkillTreesHandler_Get_NotFound(t *testing.T) {
	mockService := &mockSkillGraphServiceForHandler{
		getErr: apperrors.ErrNotFound,
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	treeID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/skill-trees/"+treeID.String(), nil)
	req.SetPathValue("tid", treeID.String())
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSkillTreesHandler_GetByHolder_Success(t *testing.T) {
	holderID := uuid.New()
	mockService := &mockSkillGraphServiceForHandler{
		tree: &models.SkillTree{ID: uuid.New(), OwnerID: holderID},
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/holders/"+holderID.String()+"/skill-tree", nil)
	req.SetPathValue("hid", holderID.String())
	w := httptest.NewRecorder()

	handler.GetByHolder(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSkillTreesHandler_AddSkill_Success(t *testing.T) {
	treeID := uuid.New()
	mockService := &mockSkillGraphServiceForHandler{
		skill: &models.Skill{ID: uuid.New(), TreeID: treeID, Name: "Go"},
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	body, err := json.Marshal(AddSkillRequest{Name: "Go", MasteryThreshold: 50})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/skill-trees/"+treeID.String()+"/skills", bytes.NewBuffer(body))
	req.SetPathValue("tid", treeID.String())
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.AddSkill(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestSkillTreesHandler_AddSkill_InvalidBody(t *testing.T) {
	treeID := uuid.New()
	handler := NewSkillTreesHandler(&mockSkillGraphServiceForHandler{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/skill-trees/"+treeID.String()+"/skills", bytes.NewBufferString("not json"))
	req.SetPathValue("tid", treeID.String())
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.AddSkill(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSkillTreesHandler_AddSkill_NotOwner(t *testing.T) {
	treeID := uuid.New()
	mockService := &mockSkillGraphServiceForHandler{
		addErr: apperrors.ErrNotAuthorized,
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	body, err := json.Marshal(AddSkillRequest{Name: "Go", MasteryThreshold: 50})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/skill-trees/"+treeID.String()+"/skills", bytes.NewBuffer(body))
	req.SetPathValue("tid", treeID.String())
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.AddSkill(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSkillTreesHandler_Endorse_Success(t *testing.T) {
	treeID := uuid.New()
	mockService := &mockSkillGraphServiceForHandler{
		endorsement: &models.Endorsement{ID: 1, SkillID: uuid.New(), Weight: 5},
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	body, err := json.Marshal(EndorseSkillRequest{Weight: 5, Notes: "solid work"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/skill-trees/"+treeID.String()+"/skills/Go/endorsements", bytes.NewBuffer(body))
	req.SetPathValue("tid", treeID.String())
	req.SetPathValue("name", "Go")
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.Endorse(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSkillTreesHandler_Endorse_SelfEndorsement(t *testing.T) {
	treeID := uuid.New()
	mockService := &mockSkillGraphServiceForHandler{
		endorseErr: apperrors.ErrInvalidEndorsement,
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	body, err := json.Marshal(EndorseSkillRequest{Weight: 5})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/skill-trees/"+treeID.String()+"/skills/Go/endorsements", bytes.NewBuffer(body))
	req.SetPathValue("tid", treeID.String())
	req.SetPathValue("name", "Go")
	req = withActor(req, uuid.New())
	w := httptest.NewRecorder()

	handler.Endorse(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSkillTreesHandler_CheckPrerequisites_Met(t *testing.T) {
	treeID := uuid.New()
	handler := NewSkillTreesHandler(&mockSkillGraphServiceForHandler{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/skill-trees/"+treeID.String()+"/skills/Go/prerequisites/check", nil)
	req.SetPathValue("tid", treeID.String())
	req.SetPathValue("name", "Go")
	w := httptest.NewRecorder()

	handler.CheckPrerequisites(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
}

func TestSkillTreesHandler_CheckPrerequisites_Unmet(t *testing.T) {
	treeID := uuid.New()
	mockService := &mockSkillGraphServiceForHandler{
		checkErr: apperrors.ErrPrerequisitesNotMet,
	}
	handler := NewSkillTreesHandler(mockService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/skill-trees/"+treeID.String()+"/skills/Go/prerequisites/check", nil)
	req.SetPathValue("tid", treeID.String())
	req.SetPathValue("name", "Go")
	w := httptest.NewRecorder()

	handler.CheckPrerequisites(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
