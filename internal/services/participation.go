package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"communityevents/internal/domain"
)

type participationService struct {
	repos          domain.Repositories
	tx             domain.Transactor
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewParticipationService(repos domain.Repositories,
	tx domain.Transactor,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ParticipationService {
	return &participationService{
		repos:          repos,
		tx:             tx,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *participationService) Submit(ctx context.Context, eventID, requesterID string) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var created *domain.ParticipationRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		event, err := repos.Events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := event.AcceptsParticipation(); err != nil {
			return err
		}
		if event.IsInitiator(requesterID) {
			return domain.ErrSelfParticipation
		}
		if _, err := repos.Requests.FindActive(ctx, event.ID, requesterID); err == nil {
			return domain.ErrDuplicateRequest
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("find active request: %w", err)
		}
		if event.Capacity.Full() {
			return domain.ErrCapacityExceeded
		}

		status := domain.RequestStatusPending
		if !event.RequiresRequestModeration() {
			if err := event.Capacity.TryReserve(1); err != nil {
				return err
			}
			if err := repos.Events.Update(ctx, event); err != nil {
				return fmt.Errorf("update event: %w", err)
			}
			status = domain.RequestStatusConfirmed
		}

		req := domain.NewParticipationRequest(event.ID, requesterID, status, s.now().UTC())
		if err := repos.Requests.Create(ctx, req); err != nil {
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *participationService) Cancel(ctx context.Context, requestID, callerID string) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var result *domain.ParticipationRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		req, err := repos.Requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != callerID {
			return domain.ErrForbidden
		}
		// lock the event first, then re-read the request so the status is current
		event, err := repos.Events.GetByIDForUpdate(ctx, req.EventID)
		if err != nil {
			return err
		}
		if req, err = repos.Requests.GetByID(ctx, requestID); err != nil {
			return err
		}

		before := req.Status
		released := req.Cancel()
		if req.Status != before {
			if err := repos.Requests.UpdateStatus(ctx, []string{req.ID}, req.Status); err != nil {
				return fmt.Errorf("update request: %w", err)
			}
		}
		if released {
			event.Capacity.Release(1)
			if err := repos.Events.Update(ctx, event); err != nil {
				return fmt.Errorf("update event: %w", err)
			}
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *participationService) ModerateBatch(ctx context.Context, eventID, callerID string, requestIDs []string, decision domain.RequestStatus) (*domain.RequestModerationResult, error) {
	if decision != domain.RequestStatusConfirmed && decision != domain.RequestStatusRejected {
		return nil, fmt.Errorf("%w: decision must be CONFIRMED or REJECTED", domain.ErrInvalidInput)
	}
	ids := uniqueIDs(requestIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: request ids are required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		event    *domain.Event
		selected []*domain.ParticipationRequest
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		event, err = repos.Events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.IsInitiator(callerID) {
			return domain.ErrForbidden
		}
		if !event.RequiresRequestModeration() {
			return domain.ErrModerationDisabled
		}
		selected, err = repos.Requests.ListByIDs(ctx, event.ID, ids)
		if err != nil {
			return fmt.Errorf("list requests: %w", err)
		}
		if len(selected) != len(ids) {
			return fmt.Errorf("%w: some requests do not belong to event %s", domain.ErrNotFound, event.ID)
		}
		for _, req := range selected {
			if err := req.Decide(decision); err != nil {
				return err
			}
		}
		if decision == domain.RequestStatusConfirmed {
			if err := event.Capacity.TryReserve(len(selected)); err != nil {
				return err
			}
			if err := repos.Events.Update(ctx, event); err != nil {
				return fmt.Errorf("update event: %w", err)
			}
		}
		if err := repos.Requests.UpdateStatus(ctx, ids, decision); err != nil {
			return fmt.Errorf("update requests: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(ctx, event, selected)

	result := &domain.RequestModerationResult{
		ConfirmedRequests: []*domain.ParticipationRequest{},
		RejectedRequests:  []*domain.ParticipationRequest{},
	}
	if decision == domain.RequestStatusConfirmed {
		result.ConfirmedRequests = selected
	} else {
		result.RejectedRequests = selected
	}
	return result, nil
}

// notifyDecision emails every requester of a committed batch. Failures are logged only.
func (s *participationService) notifyDecision(ctx context.Context, event *domain.Event, reqs []*domain.ParticipationRequest) {
	if s.emailService == nil || len(reqs) == 0 {
		return
	}
	requesterIDs := make([]string, len(reqs))
	statusByRequester := make(map[string]domain.RequestStatus, len(reqs))
	for i, req := range reqs {
		requesterIDs[i] = req.RequesterID
		statusByRequester[req.RequesterID] = req.Status
	}
	users, err := s.repos.Users.ListByIDs(ctx, requesterIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "load requesters for notification", "event_id", event.ID, "error", err)
		return
	}
	for _, u := range users {
		err := s.emailService.SendRequestDecision(ctx, &domain.RequestDecisionEmailData{
			Email:      u.Email,
			Name:       u.Name,
			EventTitle: event.Title,
			Status:     statusByRequester[u.ID],
		})
		if err != nil {
			s.logger.WarnContext(ctx, "request decision email failed", "event_id", event.ID, "user_id", u.ID, "error", err)
		}
	}
}

func (s *participationService) ListByRequester(ctx context.Context, callerID string) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.repos.Users.GetByID(ctx, callerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, callerID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	reqs, err := s.repos.Requests.ListByRequesterID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return reqs, nil
}

func (s *participationService) ListByEvent(ctx context.Context, eventID, callerID string) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.repos.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsInitiator(callerID) {
		return nil, domain.ErrForbidden
	}
	reqs, err := s.repos.Requests.ListByEventID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return reqs, nil
}

// uniqueIDs drops empty and repeated ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
