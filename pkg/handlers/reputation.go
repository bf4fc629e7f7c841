package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/auth"
	"github.com/skillvault-io/skillvault-registry/pkg/config"
	"github.com/skillvault-io/skillvault-registry/pkg/services"
)

// AddPointsRequest for POST /ledgers/{lid}/points
type AddPointsRequest struct {
	Amount      int64  `json:"amount"`
	SourceLabel string `json:"source_label"`
	Category    string `json:"category,omitempty"`
}

// AwardBadgeRequest for POST /ledgers/{lid}/badges
type AwardBadgeRequest struct {
	Name       string   `json:"name"`
	Category   string   `json:"category,omitempty"`
	Level      uint8    `json:"level"`
	Privileges []string `json:"privileges,omitempty"`
}

// ReputationHandler handles reputation ledger HTTP requests.
type ReputationHandler struct {
	reputationService services.ReputationService
	leaderboardCfg    *config.LeaderboardConfig
	logger            *zap.Logger
}

// NewReputationHandler creates a new reputation handler.
func NewReputationHandler(
	reputationService services.ReputationService,
	leaderboardCfg *config.LeaderboardConfig,
	logger *zap.Logger,
) *ReputationHandler {
	return &ReputationHandler{
		reputationService: reputationService,
		leaderboardCfg:    leaderboardCfg,
		logger:            logger,
	}
}

// RegisterRoutes registers the reputation handler's routes on the given mux.
// Point grants and badge awards are administrative.
func (h *ReputationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	requireAdmin := authMiddleware.RequireRole("admin")

	mux.HandleFunc("POST /api/ledgers",
		authMiddleware.RequireAuth(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET /api/ledgers/{lid}",
		authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("GET /api/holders/{hid}/ledger",
		authMiddleware.RequireAuth(scopeMiddleware(h.GetByHolder)))
	mux.HandleFunc("POST /api/ledgers/{lid}/points",
		requireAdmin(scopeMiddleware(h.AddPoints)))
	mux.HandleFunc("POST /api/ledgers/{lid}/badges",
		requireAdmin(scopeMiddleware(h.AwardBadge)))
	mux.HandleFunc("GET /api/leaderboard",
		authMiddleware.RequireAuth(scopeMiddleware(h.Leaderboard)))
}

// Create handles POST /api/ledgers
// The authenticated holder becomes the ledger owner.
func (h *ReputationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireHolderIDFromContext(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "create_ledger_failed")
		return
	}

	ledger, err := h.reputationService.CreateLedger(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to create reputation ledger",
			zap.String("holder_id", actor.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "create_ledger_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: ledger}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/ledgers/{lid}
func (h *ReputationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ledgerID, ok := ParseLedgerID(w, r, h.logger)
	if !ok {
		return
	}

	ledger, err := h.reputationService.GetLedger(r.Context(), ledgerID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_ledger_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: ledger}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetByHolder handles GET /api/holders/{hid}/ledger
func (h *ReputationHandler) GetByHolder(w http.ResponseWriter, r *http.Request) {
	holderID, ok := ParseHolderID(w, r, h.logger)
	if !ok {
		return
	}

	ledger, err := h.reputationService.GetLedgerByHolder(r.Context(), holderID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_ledger_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: ledger}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddPoints handles POST /api/ledgers/{lid}/points
func (h *ReputationHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	ledgerID, ok := ParseLedgerID(w, r, h.logger)
	if !ok {
		return
	}

	var req AddPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	entry, err := h.reputationService.AddPoints(r.Context(), ledgerID, req.Amount, req.SourceLabel, req.Category, time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to add points",
			zap.String("ledger_id", ledgerID.String()),
			zap.Int64("amount", req.Amount),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "add_points_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AwardBadge handles POST /api/ledgers/{lid}/badges
func (h *ReputationHandler) AwardBadge(w http.ResponseWriter, r *http.Request) {
	ledgerID, ok := ParseLedgerID(w, r, h.logger)
	if !ok {
		return
	}

	var req AwardBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	badge, err := h.reputationService.AwardBadge(r.Context(), ledgerID, req.Name, req.Category, req.Level, req.Privileges, time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to award badge",
			zap.String("ledger_id", ledgerID.String()),
			zap.String("name", req.Name),
			zap.Error(err))
		writeServiceError(w, h.logger, err, "award_badge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: badge}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Leaderboard handles GET /api/leaderboard?limit=N
// The limit defaults from config and is capped at the configured maximum.
func (h *ReputationHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := h.leaderboardCfg.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "Limit must be a positive integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		limit = parsed
	}
	if limit > h.leaderboardCfg.MaxLimit {
		limit = h.leaderboardCfg.MaxLimit
	}

	entries, err := h.reputationService.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read leaderboard", zap.Error(err))
		writeServiceError(w, h.logger, err, "leaderboard_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entries}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
