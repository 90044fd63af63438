package http

import (
	"log/slog"
	"net/http"

	"communityevents/internal/delivery/http/controllers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Events   *controllers.EventController
	Requests *controllers.RequestController
	Comments *controllers.CommentController
	Health   *controllers.HealthController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc { return auth(middleware.RequireAdmin(next)) }

	// Initiator: events
	mux.HandleFunc("POST /users/me/events", auth(c.Events.CreateEvent))
	mux.HandleFunc("GET /users/me/events", auth(c.Events.ListMyEvents))
	mux.HandleFunc("GET /users/me/events/{eventID}", auth(c.Events.GetMyEvent))
	mux.HandleFunc("PATCH /users/me/events/{eventID}", auth(c.Events.UpdateMyEvent))

	// Initiator: moderation
	mux.HandleFunc("GET /users/me/events/{eventID}/requests", auth(c.Requests.ListEventRequests))
	mux.HandleFunc("PATCH /users/me/events/{eventID}/requests", auth(c.Requests.ModerateRequests))
	mux.HandleFunc("GET /users/me/events/{eventID}/comments", auth(c.Comments.ListEventComments))
	mux.HandleFunc("PATCH /users/me/events/{eventID}/comments", auth(c.Comments.ModerateComments))

	// Participants
	mux.HandleFunc("GET /users/me/requests", auth(c.Requests.ListMyRequests))
	mux.HandleFunc("POST /users/me/requests", auth(c.Requests.SubmitRequest))
	mux.HandleFunc("PATCH /users/me/requests/{requestID}/cancel", auth(c.Requests.CancelRequest))

	// Comments
	mux.HandleFunc("GET /users/me/comments", auth(c.Comments.ListMyComments))
	mux.HandleFunc("POST /users/me/comments", auth(c.Comments.AddComment))
	mux.HandleFunc("PATCH /users/me/comments/{commentID}", auth(c.Comments.EditComment))
	mux.HandleFunc("DELETE /users/me/comments/{commentID}", auth(c.Comments.DeleteMyComment))

	// Admin
	mux.HandleFunc("GET /admin/events", admin(c.Events.AdminListEvents))
	mux.HandleFunc("PATCH /admin/events/{eventID}", admin(c.Events.AdminUpdateEvent))
	mux.HandleFunc("DELETE /admin/comments/{commentID}", admin(c.Comments.AdminDeleteComment))

	// Public
	mux.HandleFunc("GET /events", c.Events.ListPublishedEvents)
	mux.HandleFunc("GET /events/{eventID}", c.Events.GetPublishedEvent)
	mux.HandleFunc("GET /events/{eventID}/comments", c.Comments.ListPublishedComments)
	mux.HandleFunc("GET /health", c.Health.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
