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

// ReputationRepository provides data access for reputation ledgers, their
// point history, and badges.
type ReputationRepository interface {
	CreateLedger(ctx context.Context, ledger *models.ReputationLedger) error
	GetLedger(ctx context.Context, ledgerID uuid.UUID) (*models.ReputationLedger, error)
	GetLedgerByHolder(ctx context.Context, holderID uuid.UUID) (*models.ReputationLedger, error)

	// AddTotal atomically increases a ledger's point total and returns the
	// new total. Returns ErrNotFound if the ledger does not exist.
	AddTotal(ctx context.Context, ledgerID uuid.UUID, amount int64) (int64, error)
	// SetLevel stores the level derived from the new total. Always called
	// in the same transaction as AddTotal.
	SetLevel(ctx context.Context, ledgerID uuid.UUID, level int) error
	AppendEntry(ctx context.Context, entry *models.PointEntry) error

	AppendBadge(ctx context.Context, badge *models.Badge) error
	ListHistory(ctx context.Context, ledgerID uuid.UUID) ([]*models.PointEntry, error)
	ListBadges(ctx context.Context, ledgerID uuid.UUID) ([]*models.Badge, error)
	TopByPoints(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

type reputationRepository struct{}

// NewReputationRepository creates a new ReputationRepository.
func NewReputationRepository() ReputationRepository {
	return &reputationRepository{}
}

var _ ReputationRepository = (*reputationRepository)(nil)

func (r *reputationRepository) CreateLedger(ctx context.Context, ledger *models.ReputationLedger) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO reputation_ledgers (holder_id, total_points, level)
		VALUES ($1, 0, 1)
		RETURNING id, total_points, level, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query, ledger.HolderID).
		Scan(&ledger.ID, &ledger.TotalPoints, &ledger.Level, &ledger.CreatedAt, &ledger.UpdatedAt)
	return mapInsertError(err, "reputation ledger")
}

func (r *reputationRepository) GetLedger(ctx context.Context, ledgerID uuid.UUID) (*models.ReputationLedger, error) {
	return r.getLedger(ctx, `WHERE id = $1`, ledgerID)
}

func (r *reputationRepository) GetLedgerByHolder(ctx context.Context, holderID uuid.UUID) (*models.ReputationLedger, error) {
	return r.getLedger(ctx, `WHERE holder_id = $1`, holderID)
}

func (r *reputationRepository) getLedger(ctx context.Context, where string, arg any) (*models.ReputationLedger, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, holder_id, total_points, level, created_at, updated_at
		FROM reputation_ledgers ` + where

	var ledger models.ReputationLedger
	err := scope.Conn.QueryRow(ctx, query, arg).Scan(
		&ledger.ID,
		&ledger.HolderID,
		&ledger.TotalPoints,
		&ledger.Level,
		&ledger.CreatedAt,
		&ledger.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query reputation ledger: %w", err)
	}

	return &ledger, nil
}

func (r *reputationRepository) AddTotal(ctx context.Context, ledgerID uuid.UUID, amount int64) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE reputation_ledgers
		SET total_points = total_points + $2, updated_at = now()
		WHERE id = $1
		RETURNING total_points`

	var newTotal int64
	err := scope.Conn.QueryRow(ctx, query, ledgerID, amount).Scan(&newTotal)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to update point total: %w", err)
	}

	return newTotal, nil
}

func (r *reputationRepository) SetLevel(ctx context.Context, ledgerID uuid.UUID, level int) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx,
		`UPDATE reputation_ledgers SET level = $2 WHERE id = $1`, ledgerID, level)
	if err != nil {
		return fmt.Errorf("failed to update level: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *reputationRepository) AppendEntry(ctx context.Context, entry *models.PointEntry) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO point_entries (ledger_id, amount, source_label, category, granted_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := scope.Conn.QueryRow(ctx, query,
		entry.LedgerID,
		entry.Amount,
		entry.SourceLabel,
		entry.Category,
		entry.GrantedAt,
	).Scan(&entry.ID)
	return mapInsertError(err, "point entry")
}

func (r *reputationRepository) AppendBadge(ctx context.Context, badge *models.Badge) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		INSERT INTO badges (ledger_id, name, category, level, privileges, earned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := scope.Conn.QueryRow(ctx, query,
		badge.LedgerID,
		badge.Name,
		badge.Category,
		int16(badge.Level),
		jsonbValue(badge.Privileges),
		badge.EarnedAt,
	).Scan(&badge.ID)
	return mapInsertError(err, "badge")
}

func (r *reputationRepository) ListHistory(ctx context.Context, ledgerID uuid.UUID) ([]*models.PointEntry, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, ledger_id, amount, source_label, category, granted_at
		FROM point_entries
		WHERE ledger_id = $1
		ORDER BY id`

	rows, err := scope.Conn.Query(ctx, query, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query point history: %w", err)
	}
	defer rows.Close()

	var entries []*models.PointEntry
	for rows.Next() {
		var e models.PointEntry
		if err := rows.Scan(&e.ID, &e.LedgerID, &e.Amount, &e.SourceLabel, &e.Category, &e.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan point entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point history: %w", err)
	}

	return entries, nil
}

func (r *reputationRepository) ListBadges(ctx context.Context, ledgerID uuid.UUID) ([]*models.Badge, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, ledger_id, name, category, level, privileges, earned_at
		FROM badges
		WHERE ledger_id = $1
		ORDER BY id`

	rows, err := scope.Conn.Query(ctx, query, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []*models.Badge
	for rows.Next() {
		var b models.Badge
		var level int16
		var privileges []byte
		if err := rows.Scan(&b.ID, &b.LedgerID, &b.Name, &b.Category, &level, &privileges, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		b.Level = uint8(level)
		b.Privileges, err = unmarshalStrings(privileges)
		if err != nil {
			return nil, err
		}
		badges = append(badges, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}

	return badges, nil
}

func (r *reputationRepository) TopByPoints(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT holder_id, total_points, level
		FROM reputation_ledgers
		ORDER BY total_points DESC, holder_id
		LIMIT $1`

	rows, err := scope.Conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.HolderID, &e.TotalPoints, &e.Level); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}
