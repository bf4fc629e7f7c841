package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/apperrors"
	"github.com/skillvault-io/skillvault-registry/pkg/database"
	"github.com/skillvault-io/skillvault-registry/pkg/models"
	"github.com/skillvault-io/skillvault-registry/pkg/repositories"
)

// ChallengeService defines the interface for challenge operations.
type ChallengeService interface {
	CreateChallenge(ctx context.Context, name, description string, startsAt, endsAt time.Time, requiredCredentials []string, rewardPoints int64) (*models.Challenge, error)

	// Join and Complete are only possible while the challenge window
	// contains now (ErrChallengeNotActive otherwise). Complete requires a
	// prior Join and atomically grants the reward points.
	Join(ctx context.Context, challengeID, actor uuid.UUID, now time.Time) error
	Complete(ctx context.Context, challengeID, actor uuid.UUID, now time.Time) (*models.ChallengeCompletion, error)

	GetChallenge(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error)
}

// challengeService implements ChallengeService.
type challengeService struct {
	repo        repositories.ChallengeRepository
	reputation  repositories.ReputationRepository
	leaderboard *LeaderboardCache
	logger      *zap.Logger
}

// NewChallengeService creates a new challenge service with dependencies.
func NewChallengeService(
	repo repositories.ChallengeRepository,
	reputation repositories.ReputationRepository,
	leaderboard *LeaderboardCache,
	logger *zap.Logger,
) ChallengeService {
	return &challengeService{
		repo:        repo,
		reputation:  reputation,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// CreateChallenge creates a time-boxed challenge with empty participant and
// completed-by sets.
func (s *challengeService) CreateChallenge(ctx context.Context, name, description string, startsAt, endsAt time.Time, requiredCredentials []string, rewardPoints int64) (*models.Challenge, error) {
	if name == "" {
		return nil, fmt.Errorf("challenge name is required")
	}
	if endsAt.Before(startsAt) {
		return nil, fmt.Errorf("challenge window ends (%s) before it starts (%s)", endsAt, startsAt)
	}
	if rewardPoints < 0 {
		return nil, fmt.Errorf("reward points must not be negative, got %d", rewardPoints)
	}

	challenge := &models.Challenge{
		Name:                name,
		Description:         description,
		StartsAt:            startsAt,
		EndsAt:              endsAt,
		RequiredCredentials: requiredCredentials,
		RewardPoints:        rewardPoints,
	}
	if err := s.repo.CreateChallenge(ctx, challenge); err != nil {
		return nil, err
	}

	return challenge, nil
}

// Join adds the actor to the challenge's participant set.
// Fails with ErrChallengeNotActive outside the window and ErrDuplicateKey on
// a repeat join.
func (s *challengeService) Join(ctx context.Context, challengeID, actor uuid.UUID, now time.Time) error {
	challenge, err := s.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if !challenge.ActiveAt(now) {
		return apperrors.ErrChallengeNotActive
	}

	return s.repo.AddParticipant(ctx, challengeID, actor, now)
}

// Complete records the actor finishing the challenge and grants the reward
// points in one transaction. The actor must have joined first.
func (s *challengeService) Complete(ctx context.Context, challengeID, actor uuid.UUID, now time.Time) (*models.ChallengeCompletion, error) {
	// All validation happens before any mutation.
	challenge, err := s.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !challenge.ActiveAt(now) {
		return nil, apperrors.ErrChallengeNotActive
	}

	joined, err := s.repo.HasParticipant(ctx, challengeID, actor)
	if err != nil {
		return nil, err
	}
	if !joined {
		return nil, fmt.Errorf("actor %s has not joined the challenge: %w", actor, apperrors.ErrNotFound)
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

	completion := &models.ChallengeCompletion{
		ChallengeID: challengeID,
		HolderID:    actor,
		CompletedAt: now,
	}
	if err = s.repo.AddCompletion(ctx, completion); err != nil {
		return nil, err
	}

	var newTotal int64
	if challenge.RewardPoints > 0 {
		_, newTotal, err = grantPoints(ctx, s.reputation, ledger.ID,
			challenge.RewardPoints, models.SourceChallengeCompletion, "challenge", now)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if challenge.RewardPoints > 0 {
		if cacheErr := s.leaderboard.Update(ctx, actor, newTotal); cacheErr != nil {
			s.logger.Warn("Failed to update leaderboard cache after challenge completion",
				zap.String("holder_id", actor.String()),
				zap.Error(cacheErr))
		}
	}

	return completion, nil
}

// GetChallenge returns a challenge with its participant and completed-by
// lists.
func (s *challengeService) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error) {
	challenge, err := s.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	participants, err := s.repo.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	completions, err := s.repo.ListCompletions(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	completedBy := make([]uuid.UUID, 0, len(completions))
	for _, c := range completions {
		completedBy = append(completedBy, c.HolderID)
	}

	challenge.Participants = participants
	challenge.CompletedBy = completedBy
	return challenge, nil
}

// Ensure challengeService implements ChallengeService at compile time.
var _ ChallengeService = (*challengeService)(nil)
