package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/domain"
)

// CreateEventRequest is the request body for POST /users/me/events.
type CreateEventRequest struct {
	Title             string           `json:"title"`
	Annotation        string           `json:"annotation"`
	Description       string           `json:"description"`
	CategoryID        string           `json:"category_id"`
	EventDate         time.Time        `json:"event_date"`
	Paid              bool             `json:"paid"`
	Location          *domain.Location `json:"location"`
	ParticipantLimit  int              `json:"participant_limit"`
	RequestModeration *bool            `json:"request_moderation"`
	CommentModeration *bool            `json:"comment_moderation"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	errs = appendLength(errs, "title", &c.Title, 3, 120, true)
	errs = appendLength(errs, "annotation", &c.Annotation, 20, 2000, true)
	errs = appendLength(errs, "description", &c.Description, 20, 7000, true)
	if c.CategoryID == "" {
		errs = append(errs, "category_id is required")
	}
	if c.EventDate.IsZero() {
		errs = append(errs, "event_date is required")
	}
	if c.Location == nil {
		errs = append(errs, "location is required")
	} else {
		errs = appendLocation(errs, *c.Location)
	}
	if c.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

func (c CreateEventRequest) draft() domain.EventDraft {
	d := domain.EventDraft{
		Title:             c.Title,
		Annotation:        c.Annotation,
		Description:       c.Description,
		CategoryID:        c.CategoryID,
		EventDate:         c.EventDate,
		Paid:              c.Paid,
		ParticipantLimit:  c.ParticipantLimit,
		RequestModeration: true,
		CommentModeration: true,
	}
	if c.Location != nil {
		d.Location = *c.Location
	}
	if c.RequestModeration != nil {
		d.RequestModeration = *c.RequestModeration
	}
	if c.CommentModeration != nil {
		d.CommentModeration = *c.CommentModeration
	}
	return d
}

// UpdateEventRequest is the request body for PATCH /users/me/events/{eventID} and
// PATCH /admin/events/{eventID}. All fields are optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title             *string          `json:"title"`
	Annotation        *string          `json:"annotation"`
	Description       *string          `json:"description"`
	CategoryID        *string          `json:"category_id"`
	EventDate         *time.Time       `json:"event_date"`
	Paid              *bool            `json:"paid"`
	Location          *domain.Location `json:"location"`
	ParticipantLimit  *int             `json:"participant_limit"`
	RequestModeration *bool            `json:"request_moderation"`
	CommentModeration *bool            `json:"comment_moderation"`
	// StateAction is SEND_TO_REVIEW or CANCEL_REVIEW for initiators, PUBLISH_EVENT or REJECT_EVENT for admins.
	StateAction *domain.EventAction `json:"state_action"`
}

// Validate implements Validator. Only supplied fields are checked.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	errs = appendLength(errs, "title", u.Title, 3, 120, false)
	errs = appendLength(errs, "annotation", u.Annotation, 20, 2000, false)
	errs = appendLength(errs, "description", u.Description, 20, 7000, false)
	if u.CategoryID != nil && *u.CategoryID == "" {
		errs = append(errs, "category_id must not be empty")
	}
	if u.Location != nil {
		errs = appendLocation(errs, *u.Location)
	}
	if u.ParticipantLimit != nil && *u.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

func (u UpdateEventRequest) patch() domain.EventPatch {
	return domain.EventPatch{
		Title:             u.Title,
		Annotation:        u.Annotation,
		Description:       u.Description,
		CategoryID:        u.CategoryID,
		EventDate:         u.EventDate,
		Paid:              u.Paid,
		Location:          u.Location,
		ParticipantLimit:  u.ParticipantLimit,
		RequestModeration: u.RequestModeration,
		CommentModeration: u.CommentModeration,
	}
}

func appendLength(errs []string, field string, v *string, minLen, maxLen int, required bool) []string {
	if v == nil {
		return errs
	}
	n := utf8.RuneCountInString(*v)
	switch {
	case n == 0 && required:
		return append(errs, field+" is required")
	case n < minLen || n > maxLen:
		return append(errs, fmt.Sprintf("%s must be between %d and %d characters long", field, minLen, maxLen))
	}
	return errs
}

func appendLocation(errs []string, l domain.Location) []string {
	if l.Lat < -90 || l.Lat > 90 {
		errs = append(errs, "location.lat must be between -90 and 90")
	}
	if l.Lon < -180 || l.Lon > 180 {
		errs = append(errs, "location.lon must be between -180 and 180")
	}
	return errs
}

// EventSuccessResponse is the success envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsResponse is one page of events.
type ListEventsResponse struct {
	Items    []*domain.Event `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ListEventsSuccessResponse is the success envelope for the event listings (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
	// Hits is optional; when set, public event reads are reported to the stats service.
	Hits domain.HitRecorder
}

func NewEventController(logger *slog.Logger, svc domain.EventService, hits domain.HitRecorder) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
		Hits:    hits,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates a PENDING event owned by the caller. The event date must be more than two hours ahead. Moderation flags default to true, participant_limit 0 means unlimited.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown user)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, req.draft())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListMyEvents godoc
// @Summary List my events
// @Description Returns events created by the caller, newest first.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (bad page or page_size)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	params, err := helpers.ParsePagination(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	events, err := c.Service.ListInitiatorEvents(r.Context(), userID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{Items: events, Page: params.Page, PageSize: params.PageSize})
}

// GetMyEvent godoc
// @Summary Get one of my events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events/{eventID} [get]
func (c *EventController) GetMyEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.GetInitiatorEvent(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateMyEvent godoc
// @Summary Update one of my events
// @Description Applies field changes and an optional state_action (SEND_TO_REVIEW, CANCEL_REVIEW) atomically. Editing a REJECTED event without an action resubmits it for review. Published events cannot be changed.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the initiator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already published)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events/{eventID} [patch]
func (c *EventController) UpdateMyEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.UpdateByInitiator(r.Context(), eventID, userID, req.patch(), req.StateAction)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// AdminUpdateEvent godoc
// @Summary Update any event as admin
// @Description Applies field changes and an optional state_action (PUBLISH_EVENT, REJECT_EVENT). Only PENDING events can be published or rejected.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not an admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventID} [patch]
func (c *EventController) AdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateByAdmin(r.Context(), eventID, req.patch(), req.StateAction)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// AdminListEvents godoc
// @Summary Search events as admin
// @Description Lists events in any state, newest first. Every filter is optional; list parameters may be repeated or comma-separated.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param users query []string false "Initiator IDs (UUID)"
// @Param states query []string false "States: PENDING, PUBLISHED, CANCELED, REJECTED"
// @Param categories query []string false "Category IDs"
// @Param rangeStart query string false "Events after this time (RFC 3339)"
// @Param rangeEnd query string false "Events before this time (RFC 3339)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not an admin)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events [get]
func (c *EventController) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	filter, params, err := adminFilter(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	events, err := c.Service.ListForAdmin(r.Context(), filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{Items: events, Page: params.Page, PageSize: params.PageSize})
}

func adminFilter(r *http.Request) (domain.AdminEventFilter, domain.PaginationParams, error) {
	var f domain.AdminEventFilter
	q := r.URL.Query()
	users := helpers.QueryList(q, "users")
	if bad, found := invalidUUID(users); found {
		return f, domain.PaginationParams{}, fmt.Errorf("%w: users contains %q, not a UUID", domain.ErrInvalidInput, bad)
	}
	f.InitiatorIDs = canonicalUUIDs(users)
	for _, raw := range helpers.QueryList(q, "states") {
		st, err := domain.ParseEventState(raw)
		if err != nil {
			return f, domain.PaginationParams{}, err
		}
		f.States = append(f.States, st)
	}
	f.CategoryIDs = helpers.QueryList(q, "categories")
	rng, err := queryRange(q)
	if err != nil {
		return f, domain.PaginationParams{}, err
	}
	f.Range = rng
	params, err := helpers.ParsePagination(r)
	return f, params, err
}

// ListPublishedEvents godoc
// @Summary Browse published events
// @Description Public catalogue. Without rangeStart or rangeEnd only events that have not started are listed. The listing itself is counted as a hit on /events.
// @Tags public
// @Produce json
// @Param text query string false "Matches annotation or description, case-insensitive"
// @Param categories query []string false "Category IDs"
// @Param paid query bool false "Paid events only (true) or free only (false)"
// @Param rangeStart query string false "Events after this time (RFC 3339)"
// @Param rangeEnd query string false "Events before this time (RFC 3339)"
// @Param onlyAvailable query bool false "Drop events with no free places"
// @Param sort query string false "EVENT_DATE or VIEWS"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListPublishedEvents(w http.ResponseWriter, r *http.Request) {
	filter, params, err := publicFilter(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	events, err := c.Service.ListPublished(r.Context(), filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if c.Hits != nil {
		if err := c.Hits.RecordHit(r.Context(), domain.EventsURI, clientIP(r)); err != nil {
			c.Logger.WarnContext(r.Context(), "record hit failed", "uri", domain.EventsURI, "err", err)
		}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{Items: events, Page: params.Page, PageSize: params.PageSize})
}

func publicFilter(r *http.Request) (domain.PublicEventFilter, domain.PaginationParams, error) {
	var (
		f   domain.PublicEventFilter
		err error
	)
	q := r.URL.Query()
	f.Text = strings.TrimSpace(q.Get("text"))
	f.CategoryIDs = helpers.QueryList(q, "categories")
	if f.Paid, err = helpers.QueryBool(q, "paid"); err != nil {
		return f, domain.PaginationParams{}, err
	}
	available, err := helpers.QueryBool(q, "onlyAvailable")
	if err != nil {
		return f, domain.PaginationParams{}, err
	}
	f.OnlyAvailable = available != nil && *available
	if f.Sort, err = domain.ParseEventSort(q.Get("sort")); err != nil {
		return f, domain.PaginationParams{}, err
	}
	if f.Range, err = queryRange(q); err != nil {
		return f, domain.PaginationParams{}, err
	}
	params, err := helpers.ParsePagination(r)
	return f, params, err
}

func queryRange(q url.Values) (domain.DateRange, error) {
	start, err := helpers.QueryTime(q, "rangeStart")
	if err != nil {
		return domain.DateRange{}, err
	}
	end, err := helpers.QueryTime(q, "rangeEnd")
	if err != nil {
		return domain.DateRange{}, err
	}
	rng := domain.DateRange{Start: start, End: end}
	return rng, rng.Validate()
}

// GetPublishedEvent godoc
// @Summary Get a published event
// @Description Public event page with its view count. Unpublished events are reported as not found.
// @Tags public
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetPublishedEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetPublishedEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if c.Hits != nil {
		if err := c.Hits.RecordHit(r.Context(), domain.EventURI(event.ID), clientIP(r)); err != nil {
			c.Logger.WarnContext(r.Context(), "record hit failed", "event_id", event.ID, "err", err)
		}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
