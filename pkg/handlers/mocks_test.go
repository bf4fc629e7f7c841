package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/skillvault-io/skillvault-registry/pkg/auth"
	"github.com/skillvault-io/skillvault-registry/pkg/models"
)

// withActor returns the request with JWT claims for the given holder in its
// context, the way the auth middleware would leave them.
func withActor(r *http.Request, holderID uuid.UUID, roles ...string) *http.Request {
	claims := &auth.Claims{Roles: roles}
	claims.Subject = holderID.String()
	ctx := context.WithValue(r.Context(), auth.ClaimsKey, claims)
	return r.WithContext(ctx)
}

// mockSkillGraphServiceForHandler implements services.SkillGraphService.
type mockSkillGraphServiceForHandler struct {
	tree        *models.SkillTree
	skill       *models.Skill
	endorsement *models.Endorsement

	createErr  error
	addErr     error
	endorseErr error
	getErr     error
	checkErr   error
}

func (m *mockSkillGraphServiceForHandler) CreateTree(ctx context.Context, ownerID uuid.UUID) (*models.SkillTree, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.tree, nil
}

func (m *mockSkillGraphServiceForHandler) AddSkill(ctx context.Context, treeID, actor uuid.UUID, name string, masteryThreshold int64, prerequisites []string) (*models.Skill, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.skill, nil
}

func (m *mockSkillGraphServiceForHandler) EndorseSkill(ctx context.Context, treeID uuid.UUID, skillName string, actor uuid.UUID, weight int, notes string, now time.Time) (*models.Endorsement, error) {
	if m.endorseErr != nil {
		return nil, m.endorseErr
	}
	return m.endorsement, nil
}

func (m *mockSkillGraphServiceForHandler) GetTree(ctx context.Context, treeID uuid.UUID) (*models.SkillTree, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.tree, nil
}

func (m *mockSkillGraphServiceForHandler) GetTreeByOwner(ctx context.Context, ownerID uuid.UUID) (*models.SkillTree, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.tree, nil
}

func (m *mockSkillGraphServiceForHandler) CheckPrerequisites(ctx context.Context, treeID uuid.UUID, skillName string) error {
	return m.checkErr
}

// mockReputationServiceForHandler implements services.ReputationService.
type mockReputationServiceForHandler struct {
	ledger  *models.ReputationLedger
	entry   *models.PointEntry
	badge   *models.Badge
	entries []*models.LeaderboardEntry

	createErr error
	addErr    error
	awardErr  error
	getErr    error
	topErr    error

	capturedLimit int
}

func (m *mockReputationServiceForHandler) CreateLedger(ctx context.Context, holderID uuid.UUID) (*models.ReputationLedger, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.ledger, nil
}

func (m *mockReputationServiceForHandler) AddPoints(ctx context.Context, ledgerID uuid.UUID, amount int64, sourceLabel, category string, now time.Time) (*models.PointEntry, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.entry, nil
}

func (m *mockReputationServiceForHandler) AwardBadge(ctx context.Context, ledgerID uuid.UUID, name, category string, level uint8, privileges []string, now time.Time) (*models.Badge, error) {
	if m.awardErr != nil {
		return nil, m.awardErr
	}
	return m.badge, nil
}

func (m *mockReputationServiceForHandler) GetLedger(ctx context.Context, ledgerID uuid.UUID) (*models.ReputationLedger, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.ledger, nil
}

func (m *mockReputationServiceForHandler) GetLedgerByHolder(ctx context.Context, holderID uuid.UUID) (*models.ReputationLedger, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.ledger, nil
}

func (m *mockReputationServiceForHandler) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	m.capturedLimit = limit
	if m.topErr != nil {
		return nil, m.topErr
	}
	return m.entries, nil
}

// mockLearningPathServiceForHandler implements services.LearningPathService.
type mockLearningPathServiceForHandler struct {
	path       *models.LearningPath
	milestone  *models.Milestone
	completion *models.MilestoneCompletion

	createErr   error
	addErr      error
	progressErr error
	getErr      error
}

func (m *mockLearningPathServiceForHandler) CreatePath(ctx context.Context, name, description string, requiredCredentials []string, completionReward int64) (*models.LearningPath, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.path, nil
}

func (m *mockLearningPathServiceForHandler) AddMilestone(ctx context.Context, pathID uuid.UUID, number int, description string, requiredSkills []string, rewardPoints int64) (*models.Milestone, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.milestone, nil
}

func (m *mockLearningPathServiceForHandler) Progress(ctx context.Context, pathID uuid.UUID, milestoneNumber int, actor uuid.UUID, now time.Time) (*models.MilestoneCompletion, error) {
	if m.progressErr != nil {
		return nil, m.progressErr
	}
	return m.completion, nil
}

func (m *mockLearningPathServiceForHandler) GetPath(ctx context.Context, pathID uuid.UUID) (*models.LearningPath, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.path, nil
}

// mockChallengeServiceForHandler implements services.ChallengeService.
type mockChallengeServiceForHandler struct {
	challenge  *models.Challenge
	completion *models.ChallengeCompletion

	createErr   error
	joinErr     error
	completeErr error
	getErr      error

	joinedBy uuid.UUID
}

func (m *mockChallengeServiceForHandler) CreateChallenge(ctx context.Context, name, description string, startsAt, endsAt time.Time, requiredCredentials []string, rewardPoints int64) (*models.Challenge, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.challenge, nil
}

func (m *mockChallengeServiceForHandler) Join(ctx context.Context, challengeID, actor uuid.UUID, now time.Time) error {
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joinedBy = actor
	return nil
}

func (m *mockChallengeServiceForHandler) Complete(ctx context.Context, challengeID, actor uuid.UUID, now time.Time) (*models.ChallengeCompletion, error) {
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	return m.completion, nil
}

func (m *mockChallengeServiceForHandler) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.challenge, nil
}
