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

// LearningPathRepository provides data access for learning paths, their
// milestones, participants, and completions.
type LearningPathRepository interface {
	CreatePath(ctx context.Context, path *models.LearningPath) error
	GetPath(ctx context.Context, pathID uuid.UUID) (*models.LearningPath, error)
	AddMilestone(ctx context.Context, milestone *models.Milestone) error
	GetMilestone(ctx context.Context, pathID uuid.UUID, number int) (*models.Milestone, error)
	ListMilestones(ctx context.Context, pathID uuid.UUID) ([]*models.Milestone, error)

	// EnsureParticipant records the holder as a path participant if not
	// already present.
	EnsureParticipant(ctx context.Context, pathID, holderID uuid.UUID, joinedAt time.Time) error

	AddCompletion(ctx context.Context, completion *models.MilestoneCompletion) error
	ListParticipants(ctx context.Context, pathID uuid.UUID) ([]uuid.UUID, error)
	ListCompletions(ctx context.Context, pathID uuid.UUID) ([]*models.MilestoneCompletion, error)
}

type learningPathRepository struct{}

// NewLearningPathRepository creates a new LearningPathRepository.
func NewLearningPathRepository() LearningPathRepository {
	return &learningPathRepository{}
}

var _ LearningPathRepository = (*learningPathRepository)(nil)

func (r *learningPathRepository) CreatePath(ctx context.Context, path *models.LearningPath) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO learning_paths (name, description, required_credentials, completion_reward)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		path.Name,
		path.Description,
		jsonbValue(path.RequiredCredentials),
		path.CompletionReward,
	).Scan(&path.ID, &path.CreatedAt, &path.UpdatedAt)
	return mapInsertError(err, "learning path")
}

func (r *learningPathRepository) GetPath(ctx context.Context, pathID uuid.UUID) (*models.LearningPath, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, description, required_credentials, completion_reward, created_at, updated_at
		FROM learning_paths
		WHERE id = $1`

	var path models.LearningPath
	var requiredCredentials []byte
	err := scope.Conn.QueryRow(ctx, query, pathID).Scan(
		&path.ID,
		&path.Name,
		&path.Description,
		&requiredCredentials,
		&path.CompletionReward,
		&path.CreatedAt,
		&path.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query learning path: %w", err)
	}

	path.RequiredCredentials, err = unmarshalStrings(requiredCredentials)
	if err != nil {
		return nil, err
	}

	return &path, nil
}

func (r *learningPathRepository) AddMilestone(ctx context.Context, milestone *models.Milestone) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO milestones (path_id, number, description, required_skills, reward_points)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := scope.Conn.QueryRow(ctx, query,
		milestone.PathID,
		milestone.Number,
		milestone.Description,
		jsonbValue(milestone.RequiredSkills),
		milestone.RewardPoints,
	).Scan(&milestone.CreatedAt)
	return mapInsertError(err, "milestone")
}

func (r *learningPathRepository) GetMilestone(ctx context.Context, pathID uuid.UUID, number int) (*models.Milestone, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT path_id, number, description, required_skills, reward_points, created_at
		FROM milestones
		WHERE path_id = $1 AND number = $2`

	row := scope.Conn.QueryRow(ctx, query, pathID, number)
	milestone, err := scanMilestone(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return milestone, nil
}

func (r *learningPathRepository) ListMilestones(ctx context.Context, pathID uuid.UUID) ([]*models.Milestone, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT path_id, number, description, required_skills, reward_points, created_at
		FROM milestones
		WHERE path_id = $1
		ORDER BY number`

	rows, err := scope.Conn.Query(ctx, query, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer rows.Close()

	var milestones []*models.Milestone
	for rows.Next() {
		milestone, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, milestone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating milestones: %w", err)
	}

	return milestones, nil
}

func (r *learningPathRepository) EnsureParticipant(ctx context.Context, pathID, holderID uuid.UUID, joinedAt time.Time) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO path_participants (path_id, holder_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (path_id, holder_id) DO NOTHING`

	if _, err := scope.Conn.Exec(ctx, query, pathID, holderID, joinedAt); err != nil {
		return fmt.Errorf("failed to record path participant: %w", err)
	}

	return nil
}

func (r *learningPathRepository) AddCompletion(ctx context.Context, completion *models.MilestoneCompletion) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO milestone_completions (path_id, number, holder_id, completed_at)
		VALUES ($1, $2, $3, $4)`

	_, err := scope.Conn.Exec(ctx, query,
		completion.PathID,
		completion.Number,
		completion.HolderID,
		completion.CompletedAt,
	)
	return mapInsertError(err, "milestone completion")
}

func (r *learningPathRepository) ListParticipants(ctx context.Context, pathID uuid.UUID) ([]uuid.UUID, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT holder_id
		FROM path_participants
		WHERE path_id = $1
		ORDER BY joined_at, holder_id`

	rows, err := scope.Conn.Query(ctx, query, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to query path participants: %w", err)
	}
	defer rows.Close()

	var participants []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan path participant: %w", err)
		}
		participants = append(participants, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating path participants: %w", err)
	}

	return participants, nil
}

func (r *learningPathRepository) ListCompletions(ctx context.Context, pathID uuid.UUID) ([]*models.MilestoneCompletion, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT path_id, number, holder_id, completed_at
		FROM milestone_completions
		WHERE path_id = $1
		ORDER BY number, completed_at`

	rows, err := scope.Conn.Query(ctx, query, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestone completions: %w", err)
	}
	defer rows.Close()

	var completions []*models.MilestoneCompletion
	for rows.Next() {
		var c models.MilestoneCompletion
		if err := rows.Scan(&c.PathID, &c.Number, &c.HolderID, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan milestone completion: %w", err)
		}
		completions = append(completions, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating milestone completions: %w", err)
	}

	return completions, nil
}

func scanMilestone(row pgx.Row) (*models.Milestone, error) {
	var m models.Milestone
	var requiredSkills []byte

	err := row.Scan(
		&m.PathID,
		&m.Number,
		&m.Description,
		&requiredSkills,
		&m.RewardPoints,
		&m.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan milestone: %w", err)
	}

	m.RequiredSkills, err = unmarshalStrings(requiredSkills)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
