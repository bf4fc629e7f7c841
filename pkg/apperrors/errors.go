package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInvalidEndorsement  = errors.New("endorser cannot be the skill tree owner")
	ErrBadgeNotEarned      = errors.New("badge not earned")
	ErrChallengeNotActive  = errors.New("challenge not active")
	ErrPrerequisitesNotMet = errors.New("prerequisites not met")
)
