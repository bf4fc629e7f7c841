package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/auth"
	"github.com/skillvault-io/skillvault-registry/pkg/services"
)

// CreateLearningPathRequest for POST /learning-paths
type CreateLearningPathRequest struct {
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	RequiredCredentials []string `json:"required_credentials,omitempty"`
	CompletionReward    int64    `json:"completion_reward"`
}

// AddMilestoneRequest for POST /learning-paths/{pid}/milestones
type AddMilestoneRequest struct {
	Number         int      `json:"number"`
	Description    string   `json:"description,omitempty"`
	RequiredSkills []string `json:"required_skills,omitempty"`
	RewardPoints   int64    `json:"reward_points"`
}

// LearningPathsHandler handles learning path HTTP requests.
type LearningPathsHandler struct {
	learningPathService services.LearningPathService
	logger              *zap.Logger
}

// NewLearningPathsHandler creates a new learning paths handler.
func NewLearningPathsHandler(learningPathService services.LearningPathService, logger *zap.Logger) *LearningPathsHandler {
	return &LearningPathsHandler{
		learningPathService: learningPathService,
		logger:              logger,
	}
}

// RegisterRoutes registers the learning path handler's routes on the given
// mux. Path and milestone creation are administrative; progress is a holder
// action.
func (h *LearningPathsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	requireAdmin := authMiddleware.RequireRole("admin")

	mux.HandleFunc("POST /api/learning-paths",
		requireAdmin(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET /api/learning-paths/{pid}",
		authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("POST /api/learning-paths/{pid}/milestones",
		requireAdmin(scopeMiddleware(h.AddMilestone)))
	mux.HandleFunc("POST /api/learning-paths/{pid}/milestones/{num}/progress",
		authMiddleware.RequireAuth(scopeMiddleware(h.Progress)))
}

// Create handles POST /api/learning-paths
func (h *LearningPathsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLearningPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	path, err := h.learningPathService.CreatePath(r.Context(), req.Name, req.Description, req.RequiredCredentials, req.CompletionReward)
	if err != nil {
		h.logger.Error("Failed to create learning path",
			zap.String("name", req.Name),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_learning_path_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: path}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/learning-paths/{pid}
func (h *LearningPathsHandler) Get(w http.ResponseWriter, r *http.Request) {
	pathID, ok := ParsePathID(w, r, h.logger)
	if !ok {
		return
	}

	path, err := h.learningPathService.GetPath(r.Context(), pathID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_learning_path_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: path}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddMilestone handles POST /api/learning-paths/{pid}/milestones
func (h *LearningPathsHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	pathID, ok := ParsePathID(w, r, h.logger)
	if !ok {
		return
	}

	var req AddMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	milestone, err := h.learningPathService.AddMilestone(r.Context(), pathID, req.Number, req.Description, req.RequiredSkills, req.RewardPoints)
	if err != nil {
		h.logger.Error("Failed to add milestone",
			zap.String("path_id", pathID.String()),
			zap.Int("number", req.Number),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "add_milestone_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: milestone}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Progress handles POST /api/learning-paths/{pid}/milestones/{num}/progress
// The authenticated holder is the one progressing.
func (h *LearningPathsHandler) Progress(w http.ResponseWriter, r *http.Request) {
	pathID, ok := ParsePathID(w, r, h.logger)
	if !ok {
		return
	}
	number, ok := ParseMilestoneNumber(w, r, h.logger)
	if !ok {
		return
	}

	actor, err := auth.RequireHolderIDFromContext(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "milestone_progress_failed")
		return
	}

	completion, err := h.learningPathService.Progress(r.Context(), pathID, number, actor, time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to record milestone progress",
			zap.String("path_id", pathID.String()),
			zap.Int("number", number),
			zap.String("holder_id", actor.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "milestone_progress_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: completion}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
