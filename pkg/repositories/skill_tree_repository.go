package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillvault-io/skillvault-registry/pkg/apperrors"
	"github.com/skillvault-io/skillvault-registry/pkg/database"
	"github.com/skillvault-io/skillvault-registry/pkg/models"
)

// SkillTreeRepository provides data access for skill trees, skills, and
// endorsements.
type SkillTreeRepository interface {
	CreateTree(ctx context.Context, tree *models.SkillTree) error
	GetTree(ctx context.Context, treeID uuid.UUID) (*models.SkillTree, error)
	GetTreeByOwner(ctx context.Context, ownerID uuid.UUID) (*models.SkillTree, error)
	AddSkill(ctx context.Context, skill *models.Skill) error
	GetSkill(ctx context.Context, treeID uuid.UUID, name string) (*models.Skill, error)
	ListSkills(ctx context.Context, treeID uuid.UUID) ([]*models.Skill, error)
	AddEndorsement(ctx context.Context, endorsement *models.Endorsement) error
	ListEndorsements(ctx context.Context, skillID uuid.UUID) ([]*models.Endorsement, error)
}

type skillTreeRepository struct{}

// NewSkillTreeRepository creates a new SkillTreeRepository.
func NewSkillTreeRepository() SkillTreeRepository {
	return &skillTreeRepository{}
}

var _ SkillTreeRepository = (*skillTreeRepository)(nil)

func (r *skillTreeRepository) CreateTree(ctx context.Context, tree *models.SkillTree) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO skill_trees (owner_id)
		VALUES ($1)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query, tree.OwnerID).
		Scan(&tree.ID, &tree.CreatedAt, &tree.UpdatedAt)
	return mapInsertError(err, "skill tree")
}

func (r *skillTreeRepository) GetTree(ctx context.Context, treeID uuid.UUID) (*models.SkillTree, error) {
	return r.getTree(ctx, `WHERE id = $1`, treeID)
}

func (r *skillTreeRepository) GetTreeByOwner(ctx context.Context, ownerID uuid.UUID) (*models.SkillTree, error) {
	return r.getTree(ctx, `WHERE owner_id = $1`, ownerID)
}

func (r *skillTreeRepository) getTree(ctx context.Context, where string, arg any) (*models.SkillTree, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, owner_id, created_at, updated_at
		FROM skill_trees ` + where

	var tree models.SkillTree
	err := scope.Conn.QueryRow(ctx, query, arg).
		Scan(&tree.ID, &tree.OwnerID, &tree.CreatedAt, &tree.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query skill tree: %w", err)
	}

	return &tree, nil
}

func (r *skillTreeRepository) AddSkill(ctx context.Context, skill *models.Skill) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	// position continues the tree's insertion order
	query := `
		INSERT INTO skills (tree_id, name, level, experience, mastery_threshold, prerequisites, position)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM skills WHERE tree_id = $1))
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		skill.TreeID,
		skill.Name,
		skill.Level,
		skill.Experience,
		skill.MasteryThreshold,
		jsonbValue(skill.Prerequisites),
	).Scan(&skill.ID, &skill.CreatedAt)
	return mapInsertError(err, "skill")
}

func (r *skillTreeRepository) GetSkill(ctx context.Context, treeID uuid.UUID, name string) (*models.Skill, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, tree_id, name, level, experience, mastery_threshold, prerequisites, created_at
		FROM skills
		WHERE tree_id = $1 AND name = $2`

	row := scope.Conn.QueryRow(ctx, query, treeID, name)
	skill, err := scanSkill(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return skill, nil
}

func (r *skillTreeRepository) ListSkills(ctx context.Context, treeID uuid.UUID) ([]*models.Skill, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, tree_id, name, level, experience, mastery_threshold, prerequisites, created_at
		FROM skills
		WHERE tree_id = $1
		ORDER BY position`

	rows, err := scope.Conn.Query(ctx, query, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer rows.Close()

	var skills []*models.Skill
	for rows.Next() {
		skill, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skills: %w", err)
	}

	return skills, nil
}

func (r *skillTreeRepository) AddEndorsement(ctx context.Context, endorsement *models.Endorsement) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO endorsements (skill_id, endorser_id, weight, notes, endorsed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := scope.Conn.QueryRow(ctx, query,
		endorsement.SkillID,
		endorsement.EndorserID,
		endorsement.Weight,
		endorsement.Notes,
		endorsement.EndorsedAt,
	).Scan(&endorsement.ID)
	return mapInsertError(err, "endorsement")
}

func (r *skillTreeRepository) ListEndorsements(ctx context.Context, skillID uuid.UUID) ([]*models.Endorsement, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, skill_id, endorser_id, weight, notes, endorsed_at
		FROM endorsements
		WHERE skill_id = $1
		ORDER BY id`

	rows, err := scope.Conn.Query(ctx, query, skillID)
	if err != nil {
		return nil, fmt.Errorf("failed to query endorsements: %w", err)
	}
	defer rows.Close()

	var endorsements []*models.Endorsement
	for rows.Next() {
		var e models.Endorsement
		if err := rows.Scan(&e.ID, &e.SkillID, &e.EndorserID, &e.Weight, &e.Notes, &e.EndorsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan endorsement: %w", err)
		}
		endorsements = append(endorsements, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating endorsements: %w", err)
	}

	return endorsements, nil
}

func scanSkill(row pgx.Row) (*models.Skill, error) {
	var s models.Skill
	var prerequisites []byte

	err := row.Scan(
		&s.ID,
		&s.TreeID,
		&s.Name,
		&s.Level,
		&s.Experience,
		&s.MasteryThreshold,
		&prerequisites,
		&s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan skill: %w", err)
	}

	s.Prerequisites, err = unmarshalStrings(prerequisites)
	if err != nil {
		return nil, err
	}

	return &s, nil
}
