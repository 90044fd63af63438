package domain

import (
	"context"
	"fmt"
	"time"
)

// RequestStatus is the state of a participation request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusConfirmed RequestStatus = "CONFIRMED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCanceled  RequestStatus = "CANCELED"
)

// ParseRequestDecision accepts the statuses an initiator may assign to pending requests.
func ParseRequestDecision(s string) (RequestStatus, error) {
	switch st := RequestStatus(s); st {
	case RequestStatusConfirmed, RequestStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: decision must be CONFIRMED or REJECTED, got %q", ErrInvalidInput, s)
}

// Active reports whether a request still holds or awaits a place.
func (s RequestStatus) Active() bool {
	return s == RequestStatusPending || s == RequestStatusConfirmed
}

// ParticipationRequest is a user's request to take part in an event.
// swagger:model ParticipationRequest
type ParticipationRequest struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	RequesterID string        `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	Created     time.Time     `json:"created"`
}

// NewParticipationRequest returns a request in the given initial status. ID is set by the repository.
func NewParticipationRequest(eventID, requesterID string, status RequestStatus, created time.Time) *ParticipationRequest {
	return &ParticipationRequest{
		EventID:     eventID,
		RequesterID: requesterID,
		Status:      status,
		Created:     created,
	}
}

// Decide moves a PENDING request to CONFIRMED or REJECTED.
func (r *ParticipationRequest) Decide(decision RequestStatus) error {
	if decision != RequestStatusConfirmed && decision != RequestStatusRejected {
		return fmt.Errorf("%w: unsupported decision %q", ErrInvalidInput, decision)
	}
	if r.Status != RequestStatusPending {
		return fmt.Errorf("%w: request %s is %s", ErrInvalidState, r.ID, r.Status)
	}
	r.Status = decision
	return nil
}

// Cancel marks the request CANCELED. It returns true when a confirmed place is
// freed. Canceling a CANCELED or REJECTED request changes nothing.
func (r *ParticipationRequest) Cancel() (released bool) {
	switch r.Status {
	case RequestStatusConfirmed:
		r.Status = RequestStatusCanceled
		return true
	case RequestStatusPending:
		r.Status = RequestStatusCanceled
	}
	return false
}

// RequestModerationResult splits a moderated batch by outcome.
type RequestModerationResult struct {
	ConfirmedRequests []*ParticipationRequest `json:"confirmed_requests"`
	RejectedRequests  []*ParticipationRequest `json:"rejected_requests"`
}

// RequestRepository defines storage operations for participation requests.
type RequestRepository interface {
	Create(ctx context.Context, req *ParticipationRequest) error
	GetByID(ctx context.Context, id string) (*ParticipationRequest, error)
	// ListByIDs returns the event's requests among ids; ids of other events are omitted.
	ListByIDs(ctx context.Context, eventID string, ids []string) ([]*ParticipationRequest, error)
	// FindActive returns the requester's PENDING or CONFIRMED request for the event, or ErrNotFound.
	FindActive(ctx context.Context, eventID, requesterID string) (*ParticipationRequest, error)
	UpdateStatus(ctx context.Context, ids []string, status RequestStatus) error
	ListByEventID(ctx context.Context, eventID string) ([]*ParticipationRequest, error)
	ListByRequesterID(ctx context.Context, requesterID string) ([]*ParticipationRequest, error)
}

// ParticipationService defines participation request operations.
type ParticipationService interface {
	Submit(ctx context.Context, eventID, requesterID string) (*ParticipationRequest, error)
	Cancel(ctx context.Context, requestID, callerID string) (*ParticipationRequest, error)
	ModerateBatch(ctx context.Context, eventID, callerID string, requestIDs []string, decision RequestStatus) (*RequestModerationResult, error)
	ListByRequester(ctx context.Context, callerID string) ([]*ParticipationRequest, error)
	ListByEvent(ctx context.Context, eventID, callerID string) ([]*ParticipationRequest, error)
}
