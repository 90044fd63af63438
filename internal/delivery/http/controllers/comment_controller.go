package controllers

import (
	"log/slog"
	"net/http"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/domain"
)

// CommentRequest is the request body for adding or editing a comment.
type CommentRequest struct {
	Text string `json:"text"`
}

// Validate implements Validator.
func (c CommentRequest) Validate() []string {
	if _, err := domain.NormalizeCommentText(c.Text); err != nil {
		return []string{err.Error()}
	}
	return nil
}

// ModerateCommentsRequest is the request body for PATCH /users/me/events/{eventID}/comments.
type ModerateCommentsRequest struct {
	CommentIDs []string `json:"comment_ids"`
	Status     string   `json:"status"`
}

// Validate implements Validator.
func (m ModerateCommentsRequest) Validate() []string {
	var errs []string
	if len(m.CommentIDs) == 0 {
		errs = append(errs, "comment_ids is required")
	} else if id, bad := invalidUUID(m.CommentIDs); bad {
		errs = append(errs, "comment_ids contains an invalid id: "+id)
	}
	if _, err := domain.ParseCommentDecision(m.Status); err != nil {
		errs = append(errs, "status must be PUBLISHED or REJECTED")
	}
	return errs
}

// CommentSuccessResponse is the success envelope for endpoints returning one comment.
type CommentSuccessResponse struct {
	Data  *domain.Comment   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListCommentsSuccessResponse is the success envelope for comment listings.
type ListCommentsSuccessResponse struct {
	Data  []*domain.Comment `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ModerateCommentsSuccessResponse is the success envelope for a moderated comment batch.
type ModerateCommentsSuccessResponse struct {
	Data  *domain.CommentModerationResult `json:"data"`
	Error *helpers.APIError               `json:"error"`
}

type CommentController struct {
	Logger  *slog.Logger
	Service domain.CommentService
}

func NewCommentController(logger *slog.Logger, svc domain.CommentService) *CommentController {
	return &CommentController{
		Logger:  logger,
		Service: svc,
	}
}

// statusFilter reads the optional status query parameter; it writes a 400 for unknown values.
func statusFilter(w http.ResponseWriter, r *http.Request) (domain.CommentFilter, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return domain.CommentFilter{}, true
	}
	st, err := domain.ParseCommentStatus(raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status must be PENDING, PUBLISHED or REJECTED")
		return domain.CommentFilter{}, false
	}
	return domain.CommentFilter{Status: &st}, true
}

// AddComment godoc
// @Summary Comment on a published event
// @Description The initiator's comments and comments on events without comment moderation are published at once; others wait for the initiator.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId query string true "Event ID (UUID)"
// @Param body body CommentRequest true "Comment text (1..2000 characters)"
// @Success 201 {object} controllers.CommentSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event not published)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/comments [post]
func (c *CommentController) AddComment(w http.ResponseWriter, r *http.Request) {
	eventID, ok := queryUUID(w, r, "eventId")
	if !ok {
		return
	}
	var req CommentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	comment, err := c.Service.Add(r.Context(), eventID, userID, req.Text)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, comment)
}

// EditComment godoc
// @Summary Edit my comment
// @Description Replaces the text. On moderated events a comment edited by anyone but the initiator goes back to PENDING.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param commentID path string true "Comment ID (UUID)"
// @Param body body CommentRequest true "New text"
// @Success 200 {object} controllers.CommentSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/comments/{commentID} [patch]
func (c *CommentController) EditComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}
	var req CommentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	comment, err := c.Service.Edit(r.Context(), commentID, userID, req.Text)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, comment)
}

// DeleteMyComment godoc
// @Summary Delete my comment
// @Tags comments
// @Security BearerAuth
// @Param commentID path string true "Comment ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/comments/{commentID} [delete]
func (c *CommentController) DeleteMyComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteByAuthor(r.Context(), commentID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminDeleteComment godoc
// @Summary Delete any comment as admin
// @Tags admin
// @Security BearerAuth
// @Param commentID path string true "Comment ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not an admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/comments/{commentID} [delete]
func (c *CommentController) AdminDeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}
	if err := c.Service.DeleteByAdmin(r.Context(), commentID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMyComments godoc
// @Summary List my comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, PUBLISHED or REJECTED"
// @Success 200 {object} controllers.ListCommentsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/comments [get]
func (c *CommentController) ListMyComments(w http.ResponseWriter, r *http.Request) {
	filter, ok := statusFilter(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	comments, err := c.Service.ListByAuthor(r.Context(), userID, filter)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, comments)
}

// ListEventComments godoc
// @Summary List comments of my event
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param status query string false "PENDING, PUBLISHED or REJECTED"
// @Success 200 {object} controllers.ListCommentsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events/{eventID}/comments [get]
func (c *CommentController) ListEventComments(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	filter, ok := statusFilter(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	comments, err := c.Service.ListByEvent(r.Context(), eventID, userID, filter)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, comments)
}

// ModerateComments godoc
// @Summary Publish or reject pending comments
// @Description Decides a batch of PENDING comments of the caller's event, all-or-nothing.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body ModerateCommentsRequest true "Comment ids and decision"
// @Success 200 {object} controllers.ModerateCommentsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events/{eventID}/comments [patch]
func (c *CommentController) ModerateComments(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req ModerateCommentsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	decision, _ := domain.ParseCommentDecision(req.Status)
	result, err := c.Service.ModerateBatch(r.Context(), eventID, userID, canonicalUUIDs(req.CommentIDs), decision)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// ListPublishedComments godoc
// @Summary List published comments of a published event
// @Tags public
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListCommentsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/comments [get]
func (c *CommentController) ListPublishedComments(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	comments, err := c.Service.ListPublished(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, comments)
}
