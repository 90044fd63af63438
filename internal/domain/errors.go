package domain

import "errors"

// Sentinel errors shared by services and repositories. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// State machine preconditions.
	ErrInvalidState        = errors.New("status must be PENDING")
	ErrModerationDisabled  = errors.New("moderation is disabled for this event")
	ErrAlreadyPublished    = errors.New("event is already published")
	ErrForbiddenTransition = errors.New("event state does not allow this action")
	ErrEventNotPublished   = errors.New("event is not published")

	// Participation.
	ErrCapacityExceeded  = errors.New("the participant limit has been reached")
	ErrSelfParticipation = errors.New("initiator cannot request participation in own event")
	ErrDuplicateRequest  = errors.New("participation request already exists")
)
