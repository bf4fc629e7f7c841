// Package repositories provides PostgreSQL data access for the registry's
// records. Repositories run on the request-scoped connection carried in the
// context, so statements issued inside a service-level transaction join it.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skillvault-io/skillvault-registry/pkg/apperrors"
)

const (
	pgUniqueViolation = "23505"
)

// mapInsertError converts PostgreSQL unique-violation errors to the domain
// ErrDuplicateKey. Every uniqueness invariant (skill names per tree,
// milestone numbers per path, one completion per holder) surfaces this way.
func mapInsertError(err error, what string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperrors.ErrDuplicateKey
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

// jsonbValue converts a string slice to a JSONB parameter.
// Returns nil for empty slices to store NULL in the database.
func jsonbValue(v []string) any {
	if len(v) == 0 {
		return nil
	}
	return v
}

// unmarshalStrings decodes a JSONB column into a string slice.
// NULL and the JSON literal null both decode to nil.
func unmarshalStrings(data []byte) ([]string, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return out, nil
}
