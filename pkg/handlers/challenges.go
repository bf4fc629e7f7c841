package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/auth"
	"github.com/skillvault-io/skillvault-registry/pkg/services"
)

// CreateChallengeRequest for POST /challenges
type CreateChallengeRequest struct {
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	StartsAt            time.Time `json:"starts_at"`
	EndsAt              time.Time `json:"ends_at"`
	RequiredCredentials []string  `json:"required_credentials,omitempty"`
	RewardPoints        int64     `json:"reward_points"`
}

// ChallengesHandler handles challenge HTTP requests.
type ChallengesHandler struct {
	challengeService services.ChallengeService
	logger           *zap.Logger
}

// NewChallengesHandler creates a new challenges handler.
func NewChallengesHandler(challengeService services.ChallengeService, logger *zap.Logger) *ChallengesHandler {
	return &ChallengesHandler{
		challengeService: challengeService,
		logger:           logger,
	}
}

// RegisterRoutes registers the challenge handler's routes on the given mux.
// Challenge creation is administrative; join and complete are holder actions.
func (h *ChallengesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	mux.HandleFunc("POST /api/challenges",
		authMiddleware.RequireRole("admin")(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET /api/challenges/{cid}",
		authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("POST /api/challenges/{cid}/join",
		authMiddleware.RequireAuth(scopeMiddleware(h.Join)))
	mux.HandleFunc("POST /api/challenges/{cid}/complete",
		authMiddleware.RequireAuth(scopeMiddleware(h.Complete)))
}

// Create handles POST /api/challenges
func (h *ChallengesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	challenge, err := h.challengeService.CreateChallenge(r.Context(), req.Name, req.Description, req.StartsAt, req.EndsAt, req.RequiredCredentials, req.RewardPoints)
	if err != nil {
		h.logger.Error("Failed to create challenge",
			zap.String("name", req.Name),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_challenge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: challenge}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/challenges/{cid}
func (h *ChallengesHandler) Get(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := ParseChallengeID(w, r, h.logger)
	if !ok {
		return
	}

	challenge, err := h.challengeService.GetChallenge(r.Context(), challengeID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_challenge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: challenge}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Join handles POST /api/challenges/{cid}/join
func (h *ChallengesHandler) Join(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := ParseChallengeID(w, r, h.logger)
	if !ok {
		return
	}

	actor, err := auth.RequireHolderIDFromContext(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "join_challenge_failed")
		return
	}

	if err := h.challengeService.Join(r.Context(), challengeID, actor, time.Now().UTC()); err != nil {
		h.logger.Error("Failed to join challenge",
			zap.String("challenge_id", challengeID.String()),
			zap.String("holder_id", actor.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "join_challenge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: "joined"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Complete handles POST /api/challenges/{cid}/complete
func (h *ChallengesHandler) Complete(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := ParseChallengeID(w, r, h.logger)
	if !ok {
		return
	}

	actor, err := auth.RequireHolderIDFromContext(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "complete_challenge_failed")
		return
	}

	completion, err := h.challengeService.Complete(r.Context(), challengeID, actor, time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to complete challenge",
			zap.String("challenge_id", challengeID.String()),
			zap.String("holder_id", actor.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "complete_challenge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: completion}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
