package controllers

import (
	"log/slog"
	"net/http"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/domain"
)

// ModerateRequestsRequest is the request body for PATCH /users/me/events/{eventID}/requests.
type ModerateRequestsRequest struct {
	RequestIDs []string `json:"request_ids"`
	Status     string   `json:"status"`
}

// Validate implements Validator.
func (m ModerateRequestsRequest) Validate() []string {
	var errs []string
	if len(m.RequestIDs) == 0 {
		errs = append(errs, "request_ids is required")
	} else if id, bad := invalidUUID(m.RequestIDs); bad {
		errs = append(errs, "request_ids contains an invalid id: "+id)
	}
	if _, err := domain.ParseRequestDecision(m.Status); err != nil {
		errs = append(errs, "status must be CONFIRMED or REJECTED")
	}
	return errs
}

// RequestSuccessResponse is the success envelope for endpoints returning one participation request.
type RequestSuccessResponse struct {
	Data  *domain.ParticipationRequest `json:"data"`
	Error *helpers.APIError            `json:"error"`
}

// ListRequestsSuccessResponse is the success envelope for request listings.
type ListRequestsSuccessResponse struct {
	Data  []*domain.ParticipationRequest `json:"data"`
	Error *helpers.APIError              `json:"error"`
}

// ModerateRequestsSuccessResponse is the success envelope for a moderated batch.
type ModerateRequestsSuccessResponse struct {
	Data  *domain.RequestModerationResult `json:"data"`
	Error *helpers.APIError               `json:"error"`
}

type RequestController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewRequestController(logger *slog.Logger, svc domain.ParticipationService) *RequestController {
	return &RequestController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmitRequest godoc
// @Summary Request to participate in an event
// @Description Creates a participation request. It is confirmed at once when the event has no participant limit or does not moderate requests, and PENDING otherwise.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param eventId query string true "Event ID (UUID)"
// @Success 201 {object} controllers.RequestSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate, own event, not published, full)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/requests [post]
func (c *RequestController) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	eventID, ok := queryUUID(w, r, "eventId")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	req, err := c.Service.Submit(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, req)
}

// CancelRequest godoc
// @Summary Cancel my participation request
// @Description Cancels a PENDING or CONFIRMED request; a confirmed place is given back. Canceling an already canceled or rejected request returns it unchanged.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Request ID (UUID)"
// @Success 200 {object} controllers.RequestSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/requests/{requestID}/cancel [patch]
func (c *RequestController) CancelRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(w, r, "requestID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	req, err := c.Service.Cancel(r.Context(), requestID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, req)
}

// ListMyRequests godoc
// @Summary List my participation requests
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListRequestsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/requests [get]
func (c *RequestController) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	reqs, err := c.Service.ListByRequester(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reqs)
}

// ListEventRequests godoc
// @Summary List participation requests of my event
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListRequestsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events/{eventID}/requests [get]
func (c *RequestController) ListEventRequests(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	reqs, err := c.Service.ListByEvent(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reqs)
}

// ModerateRequests godoc
// @Summary Confirm or reject pending requests
// @Description Decides a batch of PENDING requests of the caller's event. The batch is all-or-nothing: one non-pending request, foreign id or a lack of places fails it entirely.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body ModerateRequestsRequest true "Request ids and decision"
// @Success 200 {object} controllers.ModerateRequestsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events/{eventID}/requests [patch]
func (c *RequestController) ModerateRequests(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req ModerateRequestsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	decision, _ := domain.ParseRequestDecision(req.Status)
	result, err := c.Service.ModerateBatch(r.Context(), eventID, userID, canonicalUUIDs(req.RequestIDs), decision)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
