package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxCommentLength is the longest comment text accepted, in characters.
const MaxCommentLength = 2000

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentStatusPending   CommentStatus = "PENDING"
	CommentStatusPublished CommentStatus = "PUBLISHED"
	CommentStatusRejected  CommentStatus = "REJECTED"
)

// ParseCommentStatus converts a raw value into a CommentStatus.
func ParseCommentStatus(s string) (CommentStatus, error) {
	switch st := CommentStatus(s); st {
	case CommentStatusPending, CommentStatusPublished, CommentStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown comment status %q", ErrInvalidInput, s)
}

// ParseCommentDecision accepts the statuses an initiator may assign to pending comments.
func ParseCommentDecision(s string) (CommentStatus, error) {
	switch st := CommentStatus(s); st {
	case CommentStatusPublished, CommentStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: decision must be PUBLISHED or REJECTED, got %q", ErrInvalidInput, s)
}

// Comment is a user comment on an event.
// swagger:model Comment
type Comment struct {
	ID       string        `json:"id"`
	EventID  string        `json:"event_id"`
	AuthorID string        `json:"author_id"`
	Text     string        `json:"text"`
	Status   CommentStatus `json:"status"`
	Created  time.Time     `json:"created"`
	Edited   *time.Time    `json:"edited"`
}

// NormalizeCommentText trims text and checks its length.
func NormalizeCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return "", fmt.Errorf("%w: comment text must be at most %d characters", ErrInvalidInput, MaxCommentLength)
	}
	return text, nil
}

// NewComment creates a comment on event by authorID. The initiator's comments and
// comments on unmoderated events are published immediately.
func NewComment(event *Event, authorID, text string, now time.Time) *Comment {
	status := CommentStatusPending
	if !event.CommentModeration || event.IsInitiator(authorID) {
		status = CommentStatusPublished
	}
	return &Comment{
		EventID:  event.ID,
		AuthorID: authorID,
		Text:     text,
		Status:   status,
		Created:  now,
	}
}

// Edit replaces the text. The comment goes back to moderation when the event
// moderates comments and the editor is not its initiator.
func (c *Comment) Edit(event *Event, text string, now time.Time) {
	c.Text = text
	edited := now
	c.Edited = &edited
	if event.CommentModeration && !event.IsInitiator(c.AuthorID) {
		c.Status = CommentStatusPending
	}
}

// Moderate moves a PENDING comment to PUBLISHED or REJECTED.
func (c *Comment) Moderate(decision CommentStatus) error {
	if decision != CommentStatusPublished && decision != CommentStatusRejected {
		return fmt.Errorf("%w: unsupported decision %q", ErrInvalidInput, decision)
	}
	if c.Status != CommentStatusPending {
		return fmt.Errorf("%w: comment %s is %s", ErrInvalidState, c.ID, c.Status)
	}
	c.Status = decision
	return nil
}

// CommentModerationResult splits a moderated batch by outcome.
type CommentModerationResult struct {
	PublishedComments []*Comment `json:"published_comments"`
	RejectedComments  []*Comment `json:"rejected_comments"`
}

// CommentFilter narrows comment listings. A nil Status matches every status.
type CommentFilter struct {
	Status *CommentStatus
}

// CommentRepository defines storage operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id string) (*Comment, error)
	Update(ctx context.Context, c *Comment) error
	// ListByIDs returns the event's comments among ids; ids of other events are omitted.
	ListByIDs(ctx context.Context, eventID string, ids []string) ([]*Comment, error)
	UpdateStatus(ctx context.Context, ids []string, status CommentStatus) error
	Delete(ctx context.Context, id string) error
	ListByEventID(ctx context.Context, eventID string, filter CommentFilter) ([]*Comment, error)
	ListByAuthorID(ctx context.Context, authorID string, filter CommentFilter) ([]*Comment, error)
}

// CommentService defines comment operations.
type CommentService interface {
	Add(ctx context.Context, eventID, authorID, text string) (*Comment, error)
	Edit(ctx context.Context, commentID, callerID, text string) (*Comment, error)
	ModerateBatch(ctx context.Context, eventID, callerID string, commentIDs []string, decision CommentStatus) (*CommentModerationResult, error)
	DeleteByAuthor(ctx context.Context, commentID, callerID string) error
	DeleteByAdmin(ctx context.Context, commentID string) error
	ListByEvent(ctx context.Context, eventID, callerID string, filter CommentFilter) ([]*Comment, error)
	ListByAuthor(ctx context.Context, callerID string, filter CommentFilter) ([]*Comment, error)
	ListPublished(ctx context.Context, eventID string) ([]*Comment, error)
}
