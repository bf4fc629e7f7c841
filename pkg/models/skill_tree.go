// Package models contains domain types for skillvault-registry.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SkillTree is one holder's skill graph. Each holder owns at most one tree;
// only the owner may add skills, and only non-owners may endorse them.
type SkillTree struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Skills    []*Skill  `json:"skills,omitempty"` // insertion order
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Skill is a trackable competency inside a skill tree. Level and Experience
// start at zero and are never advanced automatically: endorsements accumulate
// weight, but turning weight into levels is an administrative policy outside
// this service.
type Skill struct {
	ID               uuid.UUID      `json:"id"`
	TreeID           uuid.UUID      `json:"tree_id"`
	Name             string         `json:"name"`
	Level            int            `json:"level"`
	Experience       int64          `json:"experience"`
	MasteryThreshold int64          `json:"mastery_threshold"`
	Prerequisites    []string       `json:"prerequisites,omitempty"` // skill names, ordered
	Endorsements     []*Endorsement `json:"endorsements,omitempty"`  // insertion order

	// EndorsementWeight and Mastered are derived on read: the summed weight
	// of all endorsements, and whether that sum has reached MasteryThreshold.
	EndorsementWeight int64 `json:"endorsement_weight"`
	Mastered          bool  `json:"mastered"`

	CreatedAt time.Time `json:"created_at"`
}

// Endorsement is a third party's vouch for a skill. Append-only.
type Endorsement struct {
	ID         int64     `json:"id"`
	SkillID    uuid.UUID `json:"skill_id"`
	EndorserID uuid.UUID `json:"endorser_id"`
	Weight     int       `json:"weight"`
	Notes      string    `json:"notes,omitempty"`
	EndorsedAt time.Time `json:"endorsed_at"`
}

// ComputeMastery fills the derived EndorsementWeight and Mastered fields
// from the loaded endorsement list.
func (s *Skill) ComputeMastery() {
	var total int64
	for _, e := range s.Endorsements {
		total += int64(e.Weight)
	}
	s.EndorsementWeight = total
	s.Mastered = s.MasteryThreshold > 0 && total >= s.MasteryThreshold
}
