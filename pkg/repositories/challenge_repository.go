package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillvault-io/skillvault-registry/pkg/apperrors"
	"github.com/skillvault-io/skillvault-registry/pkg/database"
	"github.com/skillvault-io/skillvault-registry/pkg/models"
)

// ChallengeRepository provides data access for challenges and their
// participant and completion sets.
type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, challenge *models.Challenge) error
	GetChallenge(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error)
	AddParticipant(ctx context.Context, challengeID, holderID uuid.UUID, joinedAt time.Time) error
	HasParticipant(ctx context.Context, challengeID, holderID uuid.UUID) (bool, error)
	AddCompletion(ctx context.Context, completion *models.ChallengeCompletion) error
	ListParticipants(ctx context.Context, challengeID uuid.UUID) ([]uuid.UUID, error)
	ListCompletions(ctx context.Context, challengeID uuid.UUID) ([]*models.ChallengeCompletion, error)
}

type challengeRepository struct{}

// NewChallengeRepository creates a new ChallengeRepository.
func NewChallengeRepository() ChallengeRepository {
	return &challengeRepository{}
}

var _ ChallengeRepository = (*challengeRepository)(nil)

func (r *challengeRepository) CreateChallenge(ctx context.Context, challenge *models.Challenge) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO challenges (name, description, starts_at, ends_at, required_credentials, reward_points)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		challenge.Name,
		challenge.Description,
		challenge.StartsAt,
		challenge.EndsAt,
		jsonbValue(challenge.RequiredCredentials),
		challenge.RewardPoints,
	).Scan(&challenge.ID, &challenge.CreatedAt)
	return mapInsertError(err, "challenge")
}

func (r *challengeRepository) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, description, starts_at, ends_at, required_credentials, reward_points, created_at
		FROM challenges
		WHERE id = $1`

	var c models.Challenge
	var requiredCredentials []byte
	err := scope.Conn.QueryRow(ctx, query, challengeID).Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.StartsAt,
		&c.EndsAt,
		&requiredCredentials,
		&c.RewardPoints,
		&c.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query challenge: %w", err)
	}

	c.RequiredCredentials, err = unmarshalStrings(requiredCredentials)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *challengeRepository) AddParticipant(ctx context.Context, challengeID, holderID uuid.UUID, joinedAt time.Time) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO challenge_participants (challenge_id, holder_id, joined_at)
		VALUES ($1, $2, $3)`

	_, err := scope.Conn.Exec(ctx, query, challengeID, holderID, joinedAt)
	return mapInsertError(err, "challenge participant")
}

func (r *challengeRepository) HasParticipant(ctx context.Context, challengeID, holderID uuid.UUID) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM challenge_participants
			WHERE challenge_id = $1 AND holder_id = $2
		)`

	var exists bool
	if err := scope.Conn.QueryRow(ctx, query, challengeID, holderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to query challenge participant: %w", err)
	}

	return exists, nil
}

func (r *challengeRepository) AddCompletion(ctx context.Context, completion *models.ChallengeCompletion) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO challenge_completions (challenge_id, holder_id, completed_at)
		VALUES ($1, $2, $3)`

	_, err := scope.Conn.Exec(ctx, query,
		completion.ChallengeID,
		completion.HolderID,
		completion.CompletedAt,
	)
	return mapInsertError(err, "challenge completion")
}

func (r *challengeRepository) ListParticipants(ctx context.Context, challengeID uuid.UUID) ([]uuid.UUID, error) {
	return r.listHolders(ctx, challengeID,
		`SELECT holder_id FROM challenge_participants WHERE challenge_id = $1 ORDER BY joined_at, holder_id`,
		"challenge participants")
}

func (r *challengeRepository) ListCompletions(ctx context.Context, challengeID uuid.UUID) ([]*models.ChallengeCompletion, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT challenge_id, holder_id, completed_at
		FROM challenge_completions
		WHERE challenge_id = $1
		ORDER BY completed_at, holder_id`

	rows, err := scope.Conn.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenge completions: %w", err)
	}
	defer rows.Close()

	var completions []*models.ChallengeCompletion
	for rows.Next() {
		var c models.ChallengeCompletion
		if err := rows.Scan(&c.ChallengeID, &c.HolderID, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge completion: %w", err)
		}
		completions = append(completions, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenge completions: %w", err)
	}

	return completions, nil
}

func (r *challengeRepository) listHolders(ctx context.Context, challengeID uuid.UUID, query, what string) ([]uuid.UUID, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer rows.Close()

	var holders []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		holders = append(holders, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}

	return holders, nil
}
