package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID   = "0b8f3f4e-6c7d-4a51-9d0e-2f6f1c2b3a41"
	testRequestID = "5a1c9e2d-3b4f-4c6a-8e7d-9f0a1b2c3d4e"
	testCommentID = "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"
	testUserID    = "user-123"
)

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.SetIdentity(r.Context(), &domain.Identity{UserID: userID}))
}

// decodeEnvelope decodes the response body; data is decoded into dest when non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	if dest != nil && raw.Error == nil {
		require.NoError(t, json.Unmarshal(raw.Data, dest))
	}
	return raw.Error
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	event  *domain.Event
	events []*domain.Event
	err    error

	lastEventID string
	lastCaller  string
	lastDraft   domain.EventDraft
	lastPatch   domain.EventPatch
	lastAction  *domain.EventAction
	lastParams  domain.PaginationParams

	lastAdminFilter  domain.AdminEventFilter
	lastPublicFilter domain.PublicEventFilter
	listCalls        int
}

func (f *fakeEventService) CreateEvent(ctx context.Context, initiatorID string, draft domain.EventDraft) (*domain.Event, error) {
	f.lastCaller, f.lastDraft = initiatorID, draft
	return f.event, f.err
}

func (f *fakeEventService) UpdateByInitiator(ctx context.Context, eventID, callerID string, patch domain.EventPatch, action *domain.EventAction) (*domain.Event, error) {
	f.lastEventID, f.lastCaller, f.lastPatch, f.lastAction = eventID, callerID, patch, action
	return f.event, f.err
}

func (f *fakeEventService) UpdateByAdmin(ctx context.Context, eventID string, patch domain.EventPatch, action *domain.EventAction) (*domain.Event, error) {
	f.lastEventID, f.lastPatch, f.lastAction = eventID, patch, action
	return f.event, f.err
}

func (f *fakeEventService) GetPublishedEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	f.lastEventID = eventID
	return f.event, f.err
}

func (f *fakeEventService) GetInitiatorEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	f.lastEventID, f.lastCaller = eventID, callerID
	return f.event, f.err
}

func (f *fakeEventService) ListInitiatorEvents(ctx context.Context, callerID string, params domain.PaginationParams) ([]*domain.Event, error) {
	f.lastCaller, f.lastParams = callerID, params
	return f.events, f.err
}

func (f *fakeEventService) ListForAdmin(ctx context.Context, filter domain.AdminEventFilter, params domain.PaginationParams) ([]*domain.Event, error) {
	f.listCalls++
	f.lastAdminFilter, f.lastParams = filter, params
	return f.events, f.err
}

func (f *fakeEventService) ListPublished(ctx context.Context, filter domain.PublicEventFilter, params domain.PaginationParams) ([]*domain.Event, error) {
	f.listCalls++
	f.lastPublicFilter, f.lastParams = filter, params
	return f.events, f.err
}

// fakeParticipationService implements domain.ParticipationService.
type fakeParticipationService struct {
	request  *domain.ParticipationRequest
	requests []*domain.ParticipationRequest
	result   *domain.RequestModerationResult
	err      error

	lastEventID   string
	lastRequestID string
	lastCaller    string
	lastIDs       []string
	lastDecision  domain.RequestStatus
}

func (f *fakeParticipationService) Submit(ctx context.Context, eventID, requesterID string) (*domain.ParticipationRequest, error) {
	f.lastEventID, f.lastCaller = eventID, requesterID
	return f.request, f.err
}

func (f *fakeParticipationService) Cancel(ctx context.Context, requestID, callerID string) (*domain.ParticipationRequest, error) {
	f.lastRequestID, f.lastCaller = requestID, callerID
	return f.request, f.err
}

func (f *fakeParticipationService) ModerateBatch(ctx context.Context, eventID, callerID string, ids []string, decision domain.RequestStatus) (*domain.RequestModerationResult, error) {
	f.lastEventID, f.lastCaller, f.lastIDs, f.lastDecision = eventID, callerID, ids, decision
	return f.result, f.err
}

func (f *fakeParticipationService) ListByRequester(ctx context.Context, callerID string) ([]*domain.ParticipationRequest, error) {
	f.lastCaller = callerID
	return f.requests, f.err
}

func (f *fakeParticipationService) ListByEvent(ctx context.Context, eventID, callerID string) ([]*domain.ParticipationRequest, error) {
	f.lastEventID, f.lastCaller = eventID, callerID
	return f.requests, f.err
}

// fakeCommentService implements domain.CommentService.
type fakeCommentService struct {
	comment  *domain.Comment
	comments []*domain.Comment
	result   *domain.CommentModerationResult
	err      error

	lastEventID   string
	lastCommentID string
	lastCaller    string
	lastText      string
	lastIDs       []string
	lastDecision  domain.CommentStatus
	lastFilter    domain.CommentFilter
	adminDeleted  bool
}

func (f *fakeCommentService) Add(ctx context.Context, eventID, authorID, text string) (*domain.Comment, error) {
	f.lastEventID, f.lastCaller, f.lastText = eventID, authorID, text
	return f.comment, f.err
}

func (f *fakeCommentService) Edit(ctx context.Context, commentID, callerID, text string) (*domain.Comment, error) {
	f.lastCommentID, f.lastCaller, f.lastText = commentID, callerID, text
	return f.comment, f.err
}

func (f *fakeCommentService) ModerateBatch(ctx context.Context, eventID, callerID string, ids []string, decision domain.CommentStatus) (*domain.CommentModerationResult, error) {
	f.lastEventID, f.lastCaller, f.lastIDs, f.lastDecision = eventID, callerID, ids, decision
	return f.result, f.err
}

func (f *fakeCommentService) DeleteByAuthor(ctx context.Context, commentID, callerID string) error {
	f.lastCommentID, f.lastCaller = commentID, callerID
	return f.err
}

func (f *fakeCommentService) DeleteByAdmin(ctx context.Context, commentID string) error {
	f.lastCommentID, f.adminDeleted = commentID, true
	return f.err
}

func (f *fakeCommentService) ListByEvent(ctx context.Context, eventID, callerID string, filter domain.CommentFilter) ([]*domain.Comment, error) {
	f.lastEventID, f.lastCaller, f.lastFilter = eventID, callerID, filter
	return f.comments, f.err
}

func (f *fakeCommentService) ListByAuthor(ctx context.Context, callerID string, filter domain.CommentFilter) ([]*domain.Comment, error) {
	f.lastCaller, f.lastFilter = callerID, filter
	return f.comments, f.err
}

func (f *fakeCommentService) ListPublished(ctx context.Context, eventID string) ([]*domain.Comment, error) {
	f.lastEventID = eventID
	return f.comments, f.err
}

// fakeHits implements domain.HitRecorder.
type fakeHits struct {
	uri, ip string
	err     error
}

func (f *fakeHits) RecordHit(ctx context.Context, uri, ip string) error {
	f.uri, f.ip = uri, ip
	return f.err
}
