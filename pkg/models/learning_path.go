package models

import (
	"time"

	"github.com/google/uuid"
)

// LearningPath is a shared staged curriculum. Paths are created once and
// mutated only by AddMilestone and Progress; nothing is ever removed.
type LearningPath struct {
	ID                  uuid.UUID    `json:"id"`
	Name                string       `json:"name"`
	Description         string       `json:"description,omitempty"`
	RequiredCredentials []string     `json:"required_credentials,omitempty"` // opaque credential titles
	CompletionReward    int64        `json:"completion_reward"`
	Milestones          []*Milestone `json:"milestones,omitempty"` // ordered by number
	Participants        []uuid.UUID  `json:"participants,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Milestone is one stage of a learning path, keyed by its number within the
// path. Completer lists only grow.
type Milestone struct {
	PathID         uuid.UUID   `json:"path_id"`
	Number         int         `json:"number"`
	Description    string      `json:"description,omitempty"`
	RequiredSkills []string    `json:"required_skills,omitempty"` // skill names, informational
	RewardPoints   int64       `json:"reward_points"`
	CompletedBy    []uuid.UUID `json:"completed_by,omitempty"` // insertion order
	CreatedAt      time.Time   `json:"created_at"`
}

// MilestoneCompletion records one holder finishing one milestone. At most
// one completion exists per (path, milestone, holder).
type MilestoneCompletion struct {
	PathID      uuid.UUID `json:"path_id"`
	Number      int       `json:"number"`
	HolderID    uuid.UUID `json:"holder_id"`
	CompletedAt time.Time `json:"completed_at"`
}
