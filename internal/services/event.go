package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"communityevents/internal/domain"
)

type eventService struct {
	repos          domain.Repositories
	tx             domain.Transactor
	views          domain.ViewCounter
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(repos domain.Repositories,
	tx domain.Transactor,
	views domain.ViewCounter,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		repos:          repos,
		tx:             tx,
		views:          views,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, initiatorID string, draft domain.EventDraft) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := domain.NewEvent(initiatorID, draft, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repos.Events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) UpdateByInitiator(ctx context.Context, eventID, callerID string, patch domain.EventPatch, action *domain.EventAction) (*domain.Event, error) {
	return s.update(ctx, eventID, domain.ActorInitiator, patch, action, func(e *domain.Event) error {
		if !e.IsInitiator(callerID) {
			return domain.ErrForbidden
		}
		return nil
	})
}

func (s *eventService) UpdateByAdmin(ctx context.Context, eventID string, patch domain.EventPatch, action *domain.EventAction) (*domain.Event, error) {
	return s.update(ctx, eventID, domain.ActorAdmin, patch, action, nil)
}

func (s *eventService) update(ctx context.Context, eventID string, actor domain.Actor, patch domain.EventPatch, action *domain.EventAction, authorize func(*domain.Event) error) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var updated *domain.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		event, err := repos.Events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(event); err != nil {
				return err
			}
		}
		if err := event.Update(actor, patch, action, s.now().UTC()); err != nil {
			return err
		}
		if err := repos.Events.Update(ctx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.decorateViews(ctx, updated)
	return updated, nil
}

func (s *eventService) GetPublishedEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.repos.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.Published() {
		return nil, domain.ErrNotFound
	}
	s.decorateViews(ctx, event)
	return event, nil
}

func (s *eventService) GetInitiatorEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.repos.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// other users' drafts are not revealed
	if !event.IsInitiator(callerID) {
		return nil, domain.ErrNotFound
	}
	s.decorateViews(ctx, event)
	return event, nil
}

func (s *eventService) ListInitiatorEvents(ctx context.Context, callerID string, params domain.PaginationParams) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.repos.Events.ListByInitiatorID(ctx, callerID, params)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	s.decorateViews(ctx, events...)
	return events, nil
}

func (s *eventService) ListForAdmin(ctx context.Context, filter domain.AdminEventFilter, params domain.PaginationParams) ([]*domain.Event, error) {
	q, err := filter.AdminQuery()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.repos.Events.Search(ctx, q, params)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	s.decorateViews(ctx, events...)
	return events, nil
}

func (s *eventService) ListPublished(ctx context.Context, filter domain.PublicEventFilter, params domain.PaginationParams) ([]*domain.Event, error) {
	q, err := filter.PublicQuery(s.now().UTC())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.repos.Events.Search(ctx, q, params)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	s.decorateViews(ctx, events...)
	// views live in the stats service, so this orders the page only
	if filter.Sort == domain.SortByViews {
		slices.SortStableFunc(events, func(a, b *domain.Event) int { return cmp.Compare(b.Views, a.Views) })
	}
	return events, nil
}

// decorateViews fills Views from the stats service. A failed lookup leaves zero views.
func (s *eventService) decorateViews(ctx context.Context, events ...*domain.Event) {
	if s.views == nil || len(events) == 0 {
		return
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	views, err := s.views.Views(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "view counts unavailable", "event_ids", ids, "error", err)
		return
	}
	for _, e := range events {
		e.Views = views[e.ID]
	}
}
