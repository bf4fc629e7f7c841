package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/database"
	"github.com/skillvault-io/skillvault-registry/pkg/models"
	"github.com/skillvault-io/skillvault-registry/pkg/repositories"
)

// LearningPathService defines the interface for learning path operations.
type LearningPathService interface {
	CreatePath(ctx context.Context, name, description string, requiredCredentials []string, completionReward int64) (*models.LearningPath, error)
	AddMilestone(ctx context.Context, pathID uuid.UUID, number int, description string, requiredSkills []string, rewardPoints int64) (*models.Milestone, error)

	// Progress records the actor completing a milestone and atomically
	// grants the milestone's reward points to the actor's reputation
	// ledger. The milestone lookup fails before any mutation, so a missing
	// milestone never touches the ledger.
	Progress(ctx context.Context, pathID uuid.UUID, milestoneNumber int, actor uuid.UUID, now time.Time) (*models.MilestoneCompletion, error)

	GetPath(ctx context.Context, pathID uuid.UUID) (*models.LearningPath, error)
}

// learningPathService implements LearningPathService.
type learningPathService struct {
	repo        repositories.LearningPathRepository
	reputation  repositories.ReputationRepository
	leaderboard *LeaderboardCache
	logger      *zap.Logger
}

// NewLearningPathService creates a new learning path service with dependencies.
func NewLearningPathService(
	repo repositories.LearningPathRepository,
	reputation repositories.ReputationRepository,
	leaderboard *LeaderboardCache,
	logger *zap.Logger,
) LearningPathService {
	return &learningPathService{
		repo:        repo,
		reputation:  reputation,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// CreatePath creates a shared learning path with no milestones and no
// participants.
func (s *learningPathService) CreatePath(ctx context.Context, name, description string, requiredCredentials []string, completionReward int64) (*models.LearningPath, error) {
	if name == "" {
		return nil, fmt.Errorf("learning path name is required")
	}
	if completionReward < 0 {
		return nil, fmt.Errorf("completion reward must not be negative, got %d", completionReward)
	}

	path := &models.LearningPath{
		Name:                name,
		Description:         description,
		RequiredCredentials: requiredCredentials,
		CompletionReward:    completionReward,
	}
	if err := s.repo.CreatePath(ctx, path); err != nil {
		return nil, err
	}

	return path, nil
}

// AddMilestone inserts a milestone at the given number.
// Fails with ErrDuplicateKey if the number is taken.
func (s *learningPathService) AddMilestone(ctx context.Context, pathID uuid.UUID, number int, description string, requiredSkills []string, rewardPoints int64) (*models.Milestone, error) {
	if number <= 0 {
		return nil, fmt.Errorf("milestone number must be positive, got %d", number)
	}
	if rewardPoints < 0 {
		return nil, fmt.Errorf("reward points must not be negative, got %d", rewardPoints)
	}

	// Path must exist before hanging milestones off it.
	if _, err := s.repo.GetPath(ctx, pathID); err != nil {
		return nil, err
	}

	milestone := &models.Milestone{
		PathID:         pathID,
		Number:         number,
		Description:    description,
		RequiredSkills: requiredSkills,
		RewardPoints:   rewardPoints,
	}
	if err := s.repo.AddMilestone(ctx, milestone); err != nil {
		return nil, err
	}

	return milestone, nil
}

// Progress appends the actor to the milestone's completer list and grants
// the reward in one transaction. Repeat progress on the same milestone by
// the same actor fails with ErrDuplicateKey and leaves the ledger untouched.
func (s *learningPathService) Progress(ctx context.Context, pathID uuid.UUID, milestoneNumber int, actor uuid.UUID, now time.Time) (*models.MilestoneCompletion, error) {
	// All validation happens before any mutation.
	milestone, err := s.repo.GetMilestone(ctx, pathID, milestoneNumber)
	if err != nil {
		return nil, err
	}

	ledger, err := s.reputation.GetLedgerByHolder(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("no reputation ledger for actor %s: %w", actor, err)
	}

	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = s.repo.EnsureParticipant(ctx, pathID, actor, now); err != nil {
		return nil, err
	}

	completion := &models.MilestoneCompletion{
		PathID:      pathID,
		Number:      milestoneNumber,
		HolderID:    actor,
		CompletedAt: now,
	}
	if err = s.repo.AddCompletion(ctx, completion); err != nil {
		return nil, err
	}

	var newTotal int64
	if milestone.RewardPoints > 0 {
		_, newTotal, err = grantPoints(ctx, s.reputation, ledger.ID,
			milestone.RewardPoints, models.SourceLearningPathProgress, "learning_path", now)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if milestone.RewardPoints > 0 {
		if cacheErr := s.leaderboard.Update(ctx, actor, newTotal); cacheErr != nil {
			s.logger.Warn("Failed to update leaderboard cache after milestone progress",
				zap.String("holder_id", actor.String()),
				zap.Error(cacheErr))
		}
	}

	return completion, nil
}

// GetPath returns a path with its milestones (in number order), each
// milestone's completer list, and the participant list.
func (s *learningPathService) GetPath(ctx context.Context, pathID uuid.UUID) (*models.LearningPath, error) {
	path, err := s.repo.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.repo.ListMilestones(ctx, pathID)
	if err != nil {
		return nil, err
	}

	completions, err := s.repo.ListCompletions(ctx, pathID)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]*models.Milestone, len(milestones))
	for _, m := range milestones {
		byNumber[m.Number] = m
	}
	for _, c := range completions {
		if m, ok := byNumber[c.Number]; ok {
			m.CompletedBy = append(m.CompletedBy, c.HolderID)
		}
	}

	participants, err := s.repo.ListParticipants(ctx, pathID)
	if err != nil {
		return nil, err
	}

	path.Milestones = milestones
	path.Participants = participants
	return path, nil
}

// Ensure learningPathService implements LearningPathService at compile time.
var _ LearningPathService = (*learningPathService)(nil)
