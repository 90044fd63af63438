package domain

import (
	"context"
	"fmt"
	"time"
)

// EventDateLeadTime is how far ahead of now a new or changed event date must be.
const EventDateLeadTime = 2 * time.Hour

// EventState is the publication state of an event.
type EventState string

const (
	EventStatePending   EventState = "PENDING"
	EventStatePublished EventState = "PUBLISHED"
	EventStateCanceled  EventState = "CANCELED"
	EventStateRejected  EventState = "REJECTED"
)

// ParseEventState converts a raw value into an EventState.
func ParseEventState(s string) (EventState, error) {
	switch st := EventState(s); st {
	case EventStatePending, EventStatePublished, EventStateCanceled, EventStateRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown event state %q", ErrInvalidInput, s)
}

// EventAction is a requested lifecycle change.
type EventAction string

const (
	ActionSendToReview EventAction = "SEND_TO_REVIEW"
	ActionCancelReview EventAction = "CANCEL_REVIEW"
	ActionPublishEvent EventAction = "PUBLISH_EVENT"
	ActionRejectEvent  EventAction = "REJECT_EVENT"
	// actionResubmit is implied when the initiator edits a rejected event without
	// naming an action. Callers cannot request it.
	actionResubmit EventAction = "RESUBMIT"
)

// Actor identifies who drives an event transition.
type Actor int

const (
	ActorInitiator Actor = iota + 1
	ActorAdmin
)

type eventTransition struct {
	from   EventState
	action EventAction
}

var initiatorTransitions = map[eventTransition]EventState{
	{EventStatePending, ActionSendToReview}:  EventStatePending,
	{EventStateCanceled, ActionSendToReview}: EventStatePending,
	{EventStateRejected, ActionSendToReview}: EventStatePending,
	{EventStatePending, ActionCancelReview}:  EventStateCanceled,
	{EventStateCanceled, ActionCancelReview}: EventStateCanceled,
	{EventStateRejected, ActionCancelReview}: EventStateCanceled,
	{EventStateRejected, actionResubmit}:     EventStatePending,
}

var adminTransitions = map[eventTransition]EventState{
	{EventStatePending, ActionPublishEvent}: EventStatePublished,
	{EventStatePending, ActionRejectEvent}:  EventStateRejected,
}

var actorActions = map[Actor]map[EventAction]bool{
	ActorInitiator: {ActionSendToReview: true, ActionCancelReview: true},
	ActorAdmin:     {ActionPublishEvent: true, ActionRejectEvent: true},
}

// Next returns the state reached by applying action as actor. Published events
// accept nothing; pairs absent from the actor's transition table are rejected.
func (s EventState) Next(actor Actor, action EventAction) (EventState, error) {
	if s == EventStatePublished {
		return s, ErrAlreadyPublished
	}
	if !actorActions[actor][action] {
		return s, fmt.Errorf("%w: action %q is not allowed here", ErrInvalidInput, action)
	}
	return s.apply(actor, action)
}

// apply looks action up in the actor's transition table without checking who may request it.
func (s EventState) apply(actor Actor, action EventAction) (EventState, error) {
	table := initiatorTransitions
	if actor == ActorAdmin {
		table = adminTransitions
	}
	next, ok := table[eventTransition{from: s, action: action}]
	if !ok {
		return s, fmt.Errorf("%w: cannot %s an event in state %s", ErrForbiddenTransition, action, s)
	}
	return next, nil
}

// Location is a geographic point.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is a community event and the aggregate root owning its capacity ledger.
type Event struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	CategoryID        string     `json:"category_id"`
	EventDate         time.Time  `json:"event_date"`
	Paid              bool       `json:"paid"`
	Location          Location   `json:"location"`
	Capacity          Capacity   `json:"capacity"`
	RequestModeration bool       `json:"request_moderation"`
	CommentModeration bool       `json:"comment_moderation"`
	State             EventState `json:"state"`
	CreatedOn         time.Time  `json:"created_on"`
	PublishedOn       *time.Time `json:"published_on"`
	InitiatorID       string     `json:"initiator_id"`
	// Views is filled from the stats service for presentation only.
	Views int64 `json:"views"`
}

// EventDraft holds the fields supplied when an event is created.
type EventDraft struct {
	Title             string
	Annotation        string
	Description       string
	CategoryID        string
	EventDate         time.Time
	Paid              bool
	Location          Location
	ParticipantLimit  int
	RequestModeration bool
	CommentModeration bool
}

// NewEvent creates a PENDING event owned by initiatorID.
func NewEvent(initiatorID string, d EventDraft, now time.Time) (*Event, error) {
	if initiatorID == "" {
		return nil, fmt.Errorf("%w: event initiator is required", ErrInvalidInput)
	}
	if err := ValidateEventDate(d.EventDate, now); err != nil {
		return nil, err
	}
	capacity, err := NewCapacity(d.ParticipantLimit, 0)
	if err != nil {
		return nil, err
	}
	return &Event{
		Title:             d.Title,
		Annotation:        d.Annotation,
		Description:       d.Description,
		CategoryID:        d.CategoryID,
		EventDate:         d.EventDate,
		Paid:              d.Paid,
		Location:          d.Location,
		Capacity:          capacity,
		RequestModeration: d.RequestModeration,
		CommentModeration: d.CommentModeration,
		State:             EventStatePending,
		CreatedOn:         now,
		InitiatorID:       initiatorID,
	}, nil
}

// ValidateEventDate checks that date is strictly more than EventDateLeadTime after now.
func ValidateEventDate(date, now time.Time) error {
	if !date.After(now.Add(EventDateLeadTime)) {
		return fmt.Errorf("%w: event date must be at least %s from now", ErrInvalidInput, EventDateLeadTime)
	}
	return nil
}

// EventPatch lists optional field changes; nil fields are left unchanged.
type EventPatch struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *string
	EventDate         *time.Time
	Paid              *bool
	Location          *Location
	ParticipantLimit  *int
	RequestModeration *bool
	CommentModeration *bool
}

// IsInitiator reports whether userID created the event.
func (e *Event) IsInitiator(userID string) bool {
	return userID != "" && e.InitiatorID == userID
}

// Published reports whether the event is PUBLISHED.
func (e *Event) Published() bool { return e.State == EventStatePublished }

// AcceptsParticipation returns ErrEventNotPublished unless requests and comments may be added.
func (e *Event) AcceptsParticipation() error {
	if !e.Published() {
		return ErrEventNotPublished
	}
	return nil
}

// RequiresRequestModeration reports whether new requests wait for the initiator's decision.
// Events with moderation turned off or without a limit confirm requests immediately.
func (e *Event) RequiresRequestModeration() bool {
	return e.RequestModeration && !e.Capacity.Unlimited()
}

// Update applies a field patch and an optional action as actor. Fields and state
// change together or not at all; the event is left untouched on error.
func (e *Event) Update(actor Actor, p EventPatch, action *EventAction, now time.Time) error {
	if e.Published() {
		return ErrAlreadyPublished
	}

	next := e.State
	if action != nil {
		st, err := e.State.Next(actor, *action)
		if err != nil {
			return err
		}
		next = st
	} else if actor == ActorInitiator && e.State == EventStateRejected {
		st, err := e.State.apply(actor, actionResubmit)
		if err != nil {
			return err
		}
		next = st
	}

	updated := *e
	if err := updated.applyPatch(p, now); err != nil {
		return err
	}
	if next == EventStatePublished && e.State != EventStatePublished {
		published := now
		updated.PublishedOn = &published
	}
	updated.State = next
	*e = updated
	return nil
}

func (e *Event) applyPatch(p EventPatch, now time.Time) error {
	if p.EventDate != nil {
		if err := ValidateEventDate(*p.EventDate, now); err != nil {
			return err
		}
		e.EventDate = *p.EventDate
	}
	if p.ParticipantLimit != nil {
		if err := e.Capacity.SetLimit(*p.ParticipantLimit); err != nil {
			return err
		}
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Annotation != nil {
		e.Annotation = *p.Annotation
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
	if p.CommentModeration != nil {
		e.CommentModeration = *p.CommentModeration
	}
	return nil
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetByIDForUpdate loads the event and holds a row lock until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	ListByInitiatorID(ctx context.Context, initiatorID string, params PaginationParams) ([]*Event, error)
	Search(ctx context.Context, q EventQuery, params PaginationParams) ([]*Event, error)
}

// EventService defines the event lifecycle operations.
type EventService interface {
	CreateEvent(ctx context.Context, initiatorID string, draft EventDraft) (*Event, error)
	UpdateByInitiator(ctx context.Context, eventID, callerID string, patch EventPatch, action *EventAction) (*Event, error)
	UpdateByAdmin(ctx context.Context, eventID string, patch EventPatch, action *EventAction) (*Event, error)
	GetPublishedEvent(ctx context.Context, eventID string) (*Event, error)
	GetInitiatorEvent(ctx context.Context, eventID, callerID string) (*Event, error)
	ListInitiatorEvents(ctx context.Context, callerID string, params PaginationParams) ([]*Event, error)
	// ListForAdmin is the admin review listing across all initiators and states.
	ListForAdmin(ctx context.Context, filter AdminEventFilter, params PaginationParams) ([]*Event, error)
	// ListPublished is the public catalogue of published events.
	ListPublished(ctx context.Context, filter PublicEventFilter, params PaginationParams) ([]*Event, error)
}
