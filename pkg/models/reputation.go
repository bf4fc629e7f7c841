package models

import (
	"time"

	"github.com/google/uuid"
)

// PointsPerLevel is the number of reputation points per derived level.
// Level is always LevelForPoints(TotalPoints); it is never advanced
// independently of the total.
const PointsPerLevel = 100

// Point source labels written by the cross-record operations.
const (
	SourceLearningPathProgress = "Learning Path Progress"
	SourceChallengeCompletion  = "Challenge Completion"
)

// ReputationLedger is one holder's reputation record: a monotonically
// non-decreasing point total, the level derived from it, the append-only
// point history, and the append-only badge collection.
type ReputationLedger struct {
	ID          uuid.UUID     `json:"id"`
	HolderID    uuid.UUID     `json:"holder_id"`
	TotalPoints int64         `json:"total_points"`
	Level       int           `json:"level"`
	History     []*PointEntry `json:"history,omitempty"` // insertion order
	Badges      []*Badge      `json:"badges,omitempty"`  // insertion order
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PointEntry is one point-grant record. Entries are keyed by a per-ledger
// monotonic sequence; SourceLabel is descriptive only, so two grants sharing
// a label never collide.
type PointEntry struct {
	ID          int64     `json:"id"`
	LedgerID    uuid.UUID `json:"ledger_id"`
	Amount      int64     `json:"amount"`
	SourceLabel string    `json:"source_label"`
	Category    string    `json:"category,omitempty"`
	GrantedAt   time.Time `json:"granted_at"`
}

// Badge is an awarded distinction. Append-only. Level is a 1-byte tier
// (1..255) that must not exceed the holder's reputation level at award time.
type Badge struct {
	ID         int64     `json:"id"`
	LedgerID   uuid.UUID `json:"ledger_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category,omitempty"`
	Level      uint8     `json:"level"`
	Privileges []string  `json:"privileges,omitempty"`
	EarnedAt   time.Time `json:"earned_at"`
}

// LeaderboardEntry is one row of the reputation leaderboard.
type LeaderboardEntry struct {
	HolderID    uuid.UUID `json:"holder_id"`
	TotalPoints int64     `json:"total_points"`
	Level       int       `json:"level"`
	Rank        int       `json:"rank"`
}

// LevelForPoints derives the reputation level from a point total.
// This is the single leveling formula in the system.
func LevelForPoints(totalPoints int64) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return int(totalPoints/PointsPerLevel) + 1
}
