package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/apperrors"
	"github.com/skillvault-io/skillvault-registry/pkg/models"
	"github.com/skillvault-io/skillvault-registry/pkg/repositories"
)

// SkillGraphService defines the interface for skill tree operations.
type SkillGraphService interface {
	CreateTree(ctx context.Context, ownerID uuid.UUID) (*models.SkillTree, error)
	AddSkill(ctx context.Context, treeID, actor uuid.UUID, name string, masteryThreshold int64, prerequisites []string) (*models.Skill, error)
	EndorseSkill(ctx context.Context, treeID uuid.UUID, skillName string, actor uuid.UUID, weight int, notes string, now time.Time) (*models.Endorsement, error)
	GetTree(ctx context.Context, treeID uuid.UUID) (*models.SkillTree, error)
	GetTreeByOwner(ctx context.Context, ownerID uuid.UUID) (*models.SkillTree, error)

	// CheckPrerequisites reports whether every prerequisite of the named
	// skill exists in the tree and is mastered. Read-only: no mutating
	// operation consults prerequisites.
	CheckPrerequisites(ctx context.Context, treeID uuid.UUID, skillName string) error
}

// skillGraphService implements SkillGraphService.
type skillGraphService struct {
	repo   repositories.SkillTreeRepository
	logger *zap.Logger
}

// NewSkillGraphService creates a new skill graph service with dependencies.
func NewSkillGraphService(repo repositories.SkillTreeRepository, logger *zap.Logger) SkillGraphService {
	return &skillGraphService{
		repo:   repo,
		logger: logger,
	}
}

// CreateTree creates an empty skill tree owned by the given holder.
// A holder has at most one tree (ErrDuplicateKey on a second create).
func (s *skillGraphService) CreateTree(ctx context.Context, ownerID uuid.UUID) (*models.SkillTree, error) {
	tree := &models.SkillTree{OwnerID: ownerID}
	if err := s.repo.CreateTree(ctx, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// AddSkill inserts a new skill at level 0 with no experience and no
// endorsements. Only the tree owner may add skills; the prerequisite name
// list is stored but not validated against existing skills.
func (s *skillGraphService) AddSkill(ctx context.Context, treeID, actor uuid.UUID, name string, masteryThreshold int64, prerequisites []string) (*models.Skill, error) {
	if name == "" {
		return nil, fmt.Errorf("skill name is required")
	}
	if masteryThreshold < 0 {
		return nil, fmt.Errorf("mastery threshold must not be negative, got %d", masteryThreshold)
	}

	tree, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}
	if actor != tree.OwnerID {
		return nil, fmt.Errorf("only the tree owner may add skills: %w", apperrors.ErrNotAuthorized)
	}

	skill := &models.Skill{
		TreeID:           treeID,
		Name:             name,
		Level:            0,
		Experience:       0,
		MasteryThreshold: masteryThreshold,
		Prerequisites:    prerequisites,
	}
	if err := s.repo.AddSkill(ctx, skill); err != nil {
		return nil, err
	}

	return skill, nil
}

// EndorseSkill appends a third party's endorsement. The endorser must not be
// the tree owner. Skill level and experience are deliberately untouched:
// converting endorsement weight into levels is an administrative policy, not
// an automatic rule.
func (s *skillGraphService) EndorseSkill(ctx context.Context, treeID uuid.UUID, skillName string, actor uuid.UUID, weight int, notes string, now time.Time) (*models.Endorsement, error) {
	if weight <= 0 {
		return nil, fmt.Errorf("endorsement weight must be positive, got %d", weight)
	}

	tree, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}
	if actor == tree.OwnerID {
		return nil, apperrors.ErrInvalidEndorsement
	}

	skill, err := s.repo.GetSkill(ctx, treeID, skillName)
	if err != nil {
		return nil, err
	}

	endorsement := &models.Endorsement{
		SkillID:    skill.ID,
		EndorserID: actor,
		Weight:     weight,
		Notes:      notes,
		EndorsedAt: now,
	}
	if err := s.repo.AddEndorsement(ctx, endorsement); err != nil {
		return nil, err
	}

	return endorsement, nil
}

// GetTree returns a tree with its skills, endorsements, and derived mastery
// in insertion order.
func (s *skillGraphService) GetTree(ctx context.Context, treeID uuid.UUID) (*models.SkillTree, error) {
	tree, err := s.repo.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}
	return s.loadSkills(ctx, tree)
}

// GetTreeByOwner returns a holder's tree with skills and endorsements.
func (s *skillGraphService) GetTreeByOwner(ctx context.Context, ownerID uuid.UUID) (*models.SkillTree, error) {
	tree, err := s.repo.GetTreeByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.loadSkills(ctx, tree)
}

func (s *skillGraphService) loadSkills(ctx context.Context, tree *models.SkillTree) (*models.SkillTree, error) {
	skills, err := s.repo.ListSkills(ctx, tree.ID)
	if err != nil {
		return nil, err
	}

	for _, skill := range skills {
		endorsements, err := s.repo.ListEndorsements(ctx, skill.ID)
		if err != nil {
			return nil, err
		}
		skill.Endorsements = endorsements
		skill.ComputeMastery()
	}

	tree.Skills = skills
	return tree, nil
}

// CheckPrerequisites returns ErrPrerequisitesNotMet naming every
// prerequisite of the skill that is absent from the tree or not yet
// mastered (summed endorsement weight below its mastery threshold).
func (s *skillGraphService) CheckPrerequisites(ctx context.Context, treeID uuid.UUID, skillName string) error {
	skill, err := s.repo.GetSkill(ctx, treeID, skillName)
	if err != nil {
		return err
	}

	var unmet []string
	for _, name := range skill.Prerequisites {
		prereq, err := s.repo.GetSkill(ctx, treeID, name)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				unmet = append(unmet, name)
				continue
			}
			return err
		}

		endorsements, err := s.repo.ListEndorsements(ctx, prereq.ID)
		if err != nil {
			return err
		}
		prereq.Endorsements = endorsements
		prereq.ComputeMastery()
		if !prereq.Mastered {
			unmet = append(unmet, name)
		}
	}

	if len(unmet) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrPrerequisitesNotMet, strings.Join(unmet, ", "))
	}

	return nil
}

// Ensure skillGraphService implements SkillGraphService at compile time.
var _ SkillGraphService = (*skillGraphService)(nil)
