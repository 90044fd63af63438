package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestController_SubmitRequest(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "created", query: "?eventId=" + testEventID, wantStatus: http.StatusCreated},
		{name: "missing event id", query: "", wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "malformed event id", query: "?eventId=42", wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "event not found", query: "?eventId=" + testEventID, svcErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "full", query: "?eventId=" + testEventID, svcErr: domain.ErrCapacityExceeded, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
		{name: "duplicate", query: "?eventId=" + testEventID, svcErr: domain.ErrDuplicateRequest, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
		{name: "own event", query: "?eventId=" + testEventID, svcErr: domain.ErrSelfParticipation, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
		{name: "not published", query: "?eventId=" + testEventID, svcErr: domain.ErrEventNotPublished, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeParticipationService{
				request: &domain.ParticipationRequest{ID: testRequestID, EventID: testEventID, RequesterID: testUserID, Status: domain.RequestStatusPending},
				err:     tt.svcErr,
			}
			c := NewRequestController(testLogger, svc)
			req := withUser(httptest.NewRequest(http.MethodPost, "/users/me/requests"+tt.query, nil), testUserID)
			rr := httptest.NewRecorder()

			c.SubmitRequest(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var got domain.ParticipationRequest
			apiErr := decodeEnvelope(t, rr, &got)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			assert.Equal(t, testRequestID, got.ID)
			assert.Equal(t, domain.RequestStatusPending, got.Status)
			assert.Equal(t, testEventID, svc.lastEventID)
			assert.Equal(t, testUserID, svc.lastCaller)
		})
	}
}

func TestRequestController_CancelRequest(t *testing.T) {
	svc := &fakeParticipationService{request: &domain.ParticipationRequest{ID: testRequestID, Status: domain.RequestStatusCanceled}}
	c := NewRequestController(testLogger, svc)
	req := withUser(httptest.NewRequest(http.MethodPatch, "/users/me/requests/"+testRequestID+"/cancel", nil), testUserID)
	req.SetPathValue("requestID", testRequestID)
	rr := httptest.NewRecorder()

	c.CancelRequest(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testRequestID, svc.lastRequestID)
	assert.Equal(t, testUserID, svc.lastCaller)

	svc.err = domain.ErrForbidden
	rr = httptest.NewRecorder()
	c.CancelRequest(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequestController_ModerateRequests(t *testing.T) {
	otherID := "1f2e3d4c-5b6a-4978-8a9b-0c1d2e3f4a5b"

	tests := []struct {
		name         string
		body         string
		svcErr       error
		wantStatus   int
		wantCode     string
		wantDecision domain.RequestStatus
	}{
		{name: "confirm", body: `{"request_ids":["` + testRequestID + `","` + otherID + `"],"status":"CONFIRMED"}`, wantStatus: http.StatusOK, wantDecision: domain.RequestStatusConfirmed},
		{name: "reject", body: `{"request_ids":["` + testRequestID + `"],"status":"REJECTED"}`, wantStatus: http.StatusOK, wantDecision: domain.RequestStatusRejected},
		{name: "unsupported decision", body: `{"request_ids":["` + testRequestID + `"],"status":"CANCELED"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "no ids", body: `{"request_ids":[],"status":"CONFIRMED"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "malformed id", body: `{"request_ids":["abc"],"status":"CONFIRMED"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "over capacity", body: `{"request_ids":["` + testRequestID + `"],"status":"CONFIRMED"}`, svcErr: domain.ErrCapacityExceeded, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
		{name: "not pending", body: `{"request_ids":["` + testRequestID + `"],"status":"CONFIRMED"}`, svcErr: domain.ErrInvalidState, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
		{name: "moderation disabled", body: `{"request_ids":["` + testRequestID + `"],"status":"CONFIRMED"}`, svcErr: domain.ErrModerationDisabled, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeParticipationService{
				result: &domain.RequestModerationResult{
					ConfirmedRequests: []*domain.ParticipationRequest{{ID: testRequestID, Status: domain.RequestStatusConfirmed}},
					RejectedRequests:  []*domain.ParticipationRequest{},
				},
				err: tt.svcErr,
			}
			c := NewRequestController(testLogger, svc)
			req := withUser(httptest.NewRequest(http.MethodPatch, "/users/me/events/"+testEventID+"/requests", strings.NewReader(tt.body)), testUserID)
			req.SetPathValue("eventID", testEventID)
			rr := httptest.NewRecorder()

			c.ModerateRequests(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var got domain.RequestModerationResult
			apiErr := decodeEnvelope(t, rr, &got)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			assert.Equal(t, tt.wantDecision, svc.lastDecision)
			assert.Equal(t, testEventID, svc.lastEventID)
			assert.Len(t, got.ConfirmedRequests, 1)
			assert.NotNil(t, got.RejectedRequests)
		})
	}
}

func TestRequestController_ModerateRequests_CanonicalIDs(t *testing.T) {
	svc := &fakeParticipationService{result: &domain.RequestModerationResult{
		ConfirmedRequests: []*domain.ParticipationRequest{},
		RejectedRequests:  []*domain.ParticipationRequest{},
	}}
	c := NewRequestController(testLogger, svc)
	body := `{"request_ids":["` + strings.ToUpper(testRequestID) + `","` + testRequestID + `"],"status":"REJECTED"}`
	req := withUser(httptest.NewRequest(http.MethodPatch, "/users/me/events/"+testEventID+"/requests", strings.NewReader(body)), testUserID)
	req.SetPathValue("eventID", testEventID)
	rr := httptest.NewRecorder()

	c.ModerateRequests(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{testRequestID}, svc.lastIDs, "one request spelled two ways is moderated once")
}

func TestRequestController_Lists(t *testing.T) {
	svc := &fakeParticipationService{requests: []*domain.ParticipationRequest{{ID: testRequestID}}}
	c := NewRequestController(testLogger, svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/users/me/requests", nil), testUserID)
	rr := httptest.NewRecorder()
	c.ListMyRequests(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []*domain.ParticipationRequest
	require.Nil(t, decodeEnvelope(t, rr, &mine))
	assert.Len(t, mine, 1)

	req = withUser(httptest.NewRequest(http.MethodGet, "/users/me/events/"+testEventID+"/requests", nil), testUserID)
	req.SetPathValue("eventID", testEventID)
	rr = httptest.NewRecorder()
	c.ListEventRequests(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testEventID, svc.lastEventID)

	svc.err = errors.New("connection refused")
	rr = httptest.NewRecorder()
	c.ListEventRequests(rr, req)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	apiErr := decodeEnvelope(t, rr, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "internal server error", apiErr.Message)
}
