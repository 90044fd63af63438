package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"communityevents/internal/domain"
)

type commentService struct {
	repos          domain.Repositories
	tx             domain.Transactor
	contextTimeout time.Duration
	now            func() time.Time
}

func NewCommentService(repos domain.Repositories, tx domain.Transactor, timeout time.Duration) domain.CommentService {
	return &commentService{
		repos:          repos,
		tx:             tx,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *commentService) Add(ctx context.Context, eventID, authorID, text string) (*domain.Comment, error) {
	text, err := domain.NormalizeCommentText(text)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var created *domain.Comment
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		event, err := repos.Events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := event.AcceptsParticipation(); err != nil {
			return err
		}
		c := domain.NewComment(event, authorID, text, s.now().UTC())
		if err := repos.Comments.Create(ctx, c); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *commentService) Edit(ctx context.Context, commentID, callerID, text string) (*domain.Comment, error) {
	text, err := domain.NormalizeCommentText(text)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var edited *domain.Comment
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		c, err := repos.Comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if c.AuthorID != callerID {
			return domain.ErrForbidden
		}
		event, err := repos.Events.GetByIDForUpdate(ctx, c.EventID)
		if err != nil {
			return err
		}
		if c, err = repos.Comments.GetByID(ctx, commentID); err != nil {
			return err
		}
		c.Edit(event, text, s.now().UTC())
		if err := repos.Comments.Update(ctx, c); err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		edited = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

func (s *commentService) ModerateBatch(ctx context.Context, eventID, callerID string, commentIDs []string, decision domain.CommentStatus) (*domain.CommentModerationResult, error) {
	if decision != domain.CommentStatusPublished && decision != domain.CommentStatusRejected {
		return nil, fmt.Errorf("%w: decision must be PUBLISHED or REJECTED", domain.ErrInvalidInput)
	}
	ids := uniqueIDs(commentIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: comment ids are required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var selected []*domain.Comment
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		event, err := repos.Events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.IsInitiator(callerID) {
			return domain.ErrForbidden
		}
		if !event.CommentModeration {
			return domain.ErrModerationDisabled
		}
		selected, err = repos.Comments.ListByIDs(ctx, event.ID, ids)
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		if len(selected) != len(ids) {
			return fmt.Errorf("%w: some comments do not belong to event %s", domain.ErrNotFound, event.ID)
		}
		for _, c := range selected {
			if err := c.Moderate(decision); err != nil {
				return err
			}
		}
		if err := repos.Comments.UpdateStatus(ctx, ids, decision); err != nil {
			return fmt.Errorf("update comments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &domain.CommentModerationResult{
		PublishedComments: []*domain.Comment{},
		RejectedComments:  []*domain.Comment{},
	}
	if decision == domain.CommentStatusPublished {
		result.PublishedComments = selected
	} else {
		result.RejectedComments = selected
	}
	return result, nil
}

func (s *commentService) DeleteByAuthor(ctx context.Context, commentID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		c, err := repos.Comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if c.AuthorID != callerID {
			return domain.ErrForbidden
		}
		return repos.Comments.Delete(ctx, c.ID)
	})
}

func (s *commentService) DeleteByAdmin(ctx context.Context, commentID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.repos.Comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *commentService) ListByEvent(ctx context.Context, eventID, callerID string, filter domain.CommentFilter) ([]*domain.Comment, error) {
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
	comments, err := s.repos.Comments.ListByEventID(ctx, event.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *commentService) ListByAuthor(ctx context.Context, callerID string, filter domain.CommentFilter) ([]*domain.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	comments, err := s.repos.Comments.ListByAuthorID(ctx, callerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *commentService) ListPublished(ctx context.Context, eventID string) ([]*domain.Comment, error) {
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
	published := domain.CommentStatusPublished
	comments, err := s.repos.Comments.ListByEventID(ctx, event.ID, domain.CommentFilter{Status: &published})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
