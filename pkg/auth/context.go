package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GetHolderIDFromContext extracts the acting holder ID from JWT claims in
// the context. Returns uuid.Nil if not authenticated or the subject is not
// a valid UUID. Use this when uuid.Nil can be handled gracefully.
func GetHolderIDFromContext(ctx context.Context) uuid.UUID {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil
	}

	holderID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil
	}

	return holderID
}

// RequireHolderIDFromContext extracts the acting holder ID from context and
// returns an error if it is missing or invalid. Use this when the operation
// needs an actor.
func RequireHolderIDFromContext(ctx context.Context) (uuid.UUID, error) {
	holderID := GetHolderIDFromContext(ctx)
	if holderID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("holder ID not found in context")
	}
	return holderID, nil
}

// HasRoleInContext reports whether the authenticated account carries the
// given role. Returns false when unauthenticated.
func HasRoleInContext(ctx context.Context, role string) bool {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return false
	}
	return claims.HasRole(role)
}
