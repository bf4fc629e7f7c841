package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseTreeID extracts and validates the skill tree ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: tid
func ParseTreeID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "tid", "invalid_tree_id", "Invalid skill tree ID format", logger)
}

// ParseHolderID extracts and validates the holder ID from the request path.
// Expects path parameter: hid
func ParseHolderID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "hid", "invalid_holder_id", "Invalid holder ID format", logger)
}

// ParseLedgerID extracts and validates the reputation ledger ID from the
// request path.
// Expects path parameter: lid
func ParseLedgerID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "lid", "invalid_ledger_id", "Invalid ledger ID format", logger)
}

// ParsePathID extracts and validates the learning path ID from the request
// path.
// Expects path parameter: pid
func ParsePathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "pid", "invalid_path_id", "Invalid learning path ID format", logger)
}

// ParseChallengeID extracts and validates the challenge ID from the request
// path.
// Expects path parameter: cid
func ParseChallengeID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "cid", "invalid_challenge_id", "Invalid challenge ID format", logger)
}

// ParseMilestoneNumber extracts and validates the milestone number from the
// request path. Milestone numbers are positive integers.
// Expects path parameter: num
func ParseMilestoneNumber(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int, bool) {
	numStr := r.PathValue("num")
	num, err := strconv.Atoi(numStr)
	if err != nil || num <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_milestone_number", "Invalid milestone number"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return num, true
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
