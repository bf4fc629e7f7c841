package models

import (
	"time"

	"github.com/google/uuid"
)

// Challenge is a shared time-boxed objective. Joining and completing are
// only possible inside [StartsAt, EndsAt]; participant and completed-by
// sets only grow.
type Challenge struct {
	ID                  uuid.UUID   `json:"id"`
	Name                string      `json:"name"`
	Description         string      `json:"description,omitempty"`
	StartsAt            time.Time   `json:"starts_at"`
	EndsAt              time.Time   `json:"ends_at"`
	RequiredCredentials []string    `json:"required_credentials,omitempty"` // opaque credential titles
	RewardPoints        int64       `json:"reward_points"`
	Participants        []uuid.UUID `json:"participants,omitempty"` // insertion order
	CompletedBy         []uuid.UUID `json:"completed_by,omitempty"` // insertion order
	CreatedAt           time.Time   `json:"created_at"`
}

// ChallengeCompletion records one holder completing one challenge.
type ChallengeCompletion struct {
	ChallengeID uuid.UUID `json:"challenge_id"`
	HolderID    uuid.UUID `json:"holder_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// ActiveAt reports whether the challenge window contains the given instant.
func (c *Challenge) ActiveAt(now time.Time) bool {
	return !now.Before(c.StartsAt) && !now.After(c.EndsAt)
}
