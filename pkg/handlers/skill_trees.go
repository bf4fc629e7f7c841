package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/auth"
	"github.com/skillvault-io/skillvault-registry/pkg/services"
)

// ScopeMiddleware attaches a per-request database connection to the context.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// AddSkillRequest for POST /skill-trees/{tid}/skills
type AddSkillRequest struct {
	Name             string   `json:"name"`
	MasteryThreshold int64    `json:"mastery_threshold"`
	Prerequisites    []string `json:"prerequisites,omitempty"`
}

// EndorseSkillRequest for POST /skill-trees/{tid}/skills/{name}/endorsements
type EndorseSkillRequest struct {
	Weight int    `json:"weight"`
	Notes  string `json:"notes,omitempty"`
}

// PrerequisiteCheckResponse for GET .../prerequisites/check
type PrerequisiteCheckResponse struct {
	Met    bool   `json:"met"`
	Detail string `json:"detail,omitempty"`
}

// SkillTreesHandler handles skill tree HTTP requests.
type SkillTreesHandler struct {
	skillGraphService services.SkillGraphService
	logger            *zap.Logger
}

// NewSkillTreesHandler creates a new skill trees handler.
func NewSkillTreesHandler(skillGraphService services.SkillGraphService, logger *zap.Logger) *SkillTreesHandler {
	return &SkillTreesHandler{
		skillGraphService: skillGraphService,
		logger:            logger,
	}
}

// RegisterRoutes registers the skill tree handler's routes on the given mux.
func (h *SkillTreesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	mux.HandleFunc("POST /api/skill-trees",
		authMiddleware.RequireAuth(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET /api/skill-trees/{tid}",
		authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("GET /api/holders/{hid}/skill-tree",
		authMiddleware.RequireAuth(scopeMiddleware(h.GetByHolder)))
	mux.HandleFunc("POST /api/skill-trees/{tid}/skills",
		authMiddleware.RequireAuth(scopeMiddleware(h.AddSkill)))
	mux.HandleFunc("POST /api/skill-trees/{tid}/skills/{name}/endorsements",
		authMiddleware.RequireAuth(scopeMiddleware(h.Endorse)))
	mux.HandleFunc("GET /api/skill-trees/{tid}/skills/{name}/prerequisites/check",
		authMiddleware.RequireAuth(scopeMiddleware(h.CheckPrerequisites)))
}

// Create handles POST /api/skill-trees
// The authenticated holder becomes the tree owner.
func (h *SkillTreesHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireHolderIDFromContext(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "create_skill_tree_failed")
		return
	}

	tree, err := h.skillGraphService.CreateTree(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to create skill tree",
			zap.String("owner_id", actor.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_skill_tree_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: tree}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/skill-trees/{tid}
func (h *SkillTreesHandler) Get(w http.ResponseWriter, r *http.Request) {
	treeID, ok := ParseTreeID(w, r, h.logger)
	if !ok {
		return
	}

	tree, err := h.skillGraphService.GetTree(r.Context(), treeID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_skill_tree_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: tree}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetByHolder handles GET /api/holders/{hid}/skill-tree
func (h *SkillTreesHandler) GetByHolder(w http.ResponseWriter, r *http.Request) {
	holderID, ok := ParseHolderID(w, r, h.logger)
	if !ok {
		return
	}

	tree, err := h.skillGraphService.GetTreeByOwner(r.Context(), holderID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_skill_tree_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: tree}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddSkill handles POST /api/skill-trees/{tid}/skills
func (h *SkillTreesHandler) AddSkill(w http.ResponseWriter, r *http.Request) {
	treeID, ok := ParseTreeID(w, r, h.logger)
	if !ok {
		return
	}

	actor, err := auth.RequireHolderIDFromContext(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "add_skill_failed")
		return
	}

	var req AddSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	skill, err := h.skillGraphService.AddSkill(r.Context(), treeID, actor, req.Name, req.MasteryThreshold, req.Prerequisites)
	if err != nil {
		h.logger.Error("Failed to add skill",
			zap.String("tree_id", treeID.String()),
			zap.String("name", req.Name),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "add_skill_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: skill}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Endorse handles POST /api/skill-trees/{tid}/skills/{name}/endorsements
func (h *SkillTreesHandler) Endorse(w http.ResponseWriter, r *http.Request) {
	treeID, ok := ParseTreeID(w, r, h.logger)
	if !ok {
		return
	}
	skillName := r.PathValue("name")

	actor, err := auth.RequireHolderIDFromContext(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "endorse_skill_failed")
		return
	}

	var req EndorseSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	endorsement, err := h.skillGraphService.EndorseSkill(r.Context(), treeID, skillName, actor, req.Weight, req.Notes, time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to endorse skill",
			zap.String("tree_id", treeID.String()),
			zap.String("name", skillName),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "endorse_skill_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: endorsement}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CheckPrerequisites handles GET /api/skill-trees/{tid}/skills/{name}/prerequisites/check
func (h *SkillTreesHandler) CheckPrerequisites(w http.ResponseWriter, r *http.Request) {
	treeID, ok := ParseTreeID(w, r, h.logger)
	if !ok {
		return
	}
	skillName := r.PathValue("name")

	err := h.skillGraphService.CheckPrerequisites(r.Context(), treeID, skillName)
	if err != nil {
		writeServiceError(w, h.logger, err, "check_prerequisites_failed")
		return
	}

	response := PrerequisiteCheckResponse{Met: true}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
