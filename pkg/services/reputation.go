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

// ReputationService defines the interface for reputation ledger operations.
type ReputationService interface {
	CreateLedger(ctx context.Context, holderID uuid.UUID) (*models.ReputationLedger, error)
	AddPoints(ctx context.Context, ledgerID uuid.UUID, amount int64, sourceLabel, category string, now time.Time) (*models.PointEntry, error)
	AwardBadge(ctx context.Context, ledgerID uuid.UUID, name, category string, level uint8, privileges []string, now time.Time) (*models.Badge, error)
	GetLedger(ctx context.Context, ledgerID uuid.UUID) (*models.ReputationLedger, error)
	GetLedgerByHolder(ctx context.Context, holderID uuid.UUID) (*models.ReputationLedger, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// reputationService implements ReputationService.
type reputationService struct {
	repo        repositories.ReputationRepository
	leaderboard *LeaderboardCache
	logger      *zap.Logger
}

// NewReputationService creates a new reputation service with dependencies.
func NewReputationService(repo repositories.ReputationRepository, leaderboard *LeaderboardCache, logger *zap.Logger) ReputationService {
	return &reputationService{
		repo:        repo,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// CreateLedger creates an empty ledger for the holder: zero points, level 1.
// A holder has at most one ledger (ErrDuplicateKey on a second create).
func (s *reputationService) CreateLedger(ctx context.Context, holderID uuid.UUID) (*models.ReputationLedger, error) {
	ledger := &models.ReputationLedger{HolderID: holderID}
	if err := s.repo.CreateLedger(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// AddPoints grants points to a ledger, recomputing the derived level and
// appending a history entry, all in one transaction.
func (s *reputationService) AddPoints(ctx context.Context, ledgerID uuid.UUID, amount int64, sourceLabel, category string, now time.Time) (*models.PointEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("point amount must be positive, got %d", amount)
	}
	if sourceLabel == "" {
		return nil, fmt.Errorf("source label is required")
	}

	// Fail-fast lookup before any mutation; also needed for the holder ID
	// used by the leaderboard cache.
	ledger, err := s.repo.GetLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
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

	var entry *models.PointEntry
	var newTotal int64
	entry, newTotal, err = grantPoints(ctx, s.repo, ledgerID, amount, sourceLabel, category, now)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.updateLeaderboard(ctx, ledger.HolderID, newTotal)

	return entry, nil
}

// AwardBadge appends a badge to the ledger's collection. The badge tier must
// not exceed the holder's current reputation level.
func (s *reputationService) AwardBadge(ctx context.Context, ledgerID uuid.UUID, name, category string, level uint8, privileges []string, now time.Time) (*models.Badge, error) {
	if name == "" {
		return nil, fmt.Errorf("badge name is required")
	}
	if level == 0 {
		return nil, fmt.Errorf("badge level must be between 1 and 255")
	}

	ledger, err := s.repo.GetLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	if int(level) > ledger.Level {
		return nil, fmt.Errorf("badge tier %d above reputation level %d: %w",
			level, ledger.Level, apperrors.ErrBadgeNotEarned)
	}

	badge := &models.Badge{
		LedgerID:   ledgerID,
		Name:       name,
		Category:   category,
		Level:      level,
		Privileges: privileges,
		EarnedAt:   now,
	}
	if err := s.repo.AppendBadge(ctx, badge); err != nil {
		return nil, err
	}

	return badge, nil
}

// GetLedger returns a ledger with its point history and badges.
func (s *reputationService) GetLedger(ctx context.Context, ledgerID uuid.UUID) (*models.ReputationLedger, error) {
	ledger, err := s.repo.GetLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return s.loadCollections(ctx, ledger)
}

// GetLedgerByHolder returns a holder's ledger with history and badges.
func (s *reputationService) GetLedgerByHolder(ctx context.Context, holderID uuid.UUID) (*models.ReputationLedger, error) {
	ledger, err := s.repo.GetLedgerByHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}
	return s.loadCollections(ctx, ledger)
}

func (s *reputationService) loadCollections(ctx context.Context, ledger *models.ReputationLedger) (*models.ReputationLedger, error) {
	history, err := s.repo.ListHistory(ctx, ledger.ID)
	if err != nil {
		return nil, err
	}
	badges, err := s.repo.ListBadges(ctx, ledger.ID)
	if err != nil {
		return nil, err
	}
	ledger.History = history
	ledger.Badges = badges
	return ledger, nil
}

// Leaderboard returns the top holders by point total. The Redis cache is
// consulted first; a disabled or empty cache falls through to PostgreSQL.
func (s *reputationService) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("leaderboard limit must be positive, got %d", limit)
	}

	if s.leaderboard.Enabled() {
		entries, err := s.leaderboard.Top(ctx, limit)
		if err != nil {
			s.logger.Warn("Leaderboard cache read failed, falling back to database", zap.Error(err))
		} else if len(entries) > 0 {
			return entries, nil
		}
	}

	return s.repo.TopByPoints(ctx, limit)
}

// updateLeaderboard refreshes the cached score after a grant. Best-effort:
// a cache failure is logged, never surfaced, since PostgreSQL already holds
// the committed truth.
func (s *reputationService) updateLeaderboard(ctx context.Context, holderID uuid.UUID, totalPoints int64) {
	if err := s.leaderboard.Update(ctx, holderID, totalPoints); err != nil {
		s.logger.Warn("Failed to update leaderboard cache",
			zap.String("holder_id", holderID.String()),
			zap.Error(err))
	}
}

// grantPoints is the point-grant sub-step shared by AddPoints, learning-path
// progress, and challenge completion. It must run inside a transaction owned
// by the caller: it updates the monotonic total, stores the level derived
// from the new total, and appends the history entry.
func grantPoints(ctx context.Context, repo repositories.ReputationRepository, ledgerID uuid.UUID, amount int64, sourceLabel, category string, now time.Time) (*models.PointEntry, int64, error) {
	newTotal, err := repo.AddTotal(ctx, ledgerID, amount)
	if err != nil {
		return nil, 0, err
	}

	if err := repo.SetLevel(ctx, ledgerID, models.LevelForPoints(newTotal)); err != nil {
		return nil, 0, err
	}

	entry := &models.PointEntry{
		LedgerID:    ledgerID,
		Amount:      amount,
		SourceLabel: sourceLabel,
		Category:    category,
		GrantedAt:   now,
	}
	if err := repo.AppendEntry(ctx, entry); err != nil {
		return nil, 0, err
	}

	return entry, newTotal, nil
}

// Ensure reputationService implements ReputationService at compile time.
var _ ReputationService = (*reputationService)(nil)
