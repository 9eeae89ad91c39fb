package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rpupo63/campus-connect-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	users     *services.UserDirectory
	feed      *services.FeedService
}

func newUserHandler(users *services.UserDirectory, feed *services.FeedService) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		users:     users,
		feed:      feed,
	}
}

// upsertUser syncs the caller's profile from the identity provider
// @Summary Upsert user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body UserRequest true "Profile"
// @Success 200 {object} models.User "Stored profile"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing id"
// @Router /api/users [post]
func (h userHandler) upsertUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UserRequest
		if err := decodeJSON(w, r, "user", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.users.Upsert(r.Context(), models.User{
			ID:       callerID(r, req.ID),
			Name:     req.Name,
			ImageURL: req.ImageURL,
			Email:    req.Email,
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, user)
	}
}

// getUser returns a stored profile
// @Summary Get user
// @Tags Users
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} models.User "Profile"
// @Failure 404 {object} ErrorResponse "Not Found - Unknown user"
// @Router /api/users/{userId} [get]
func (h userHandler) getUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.users.Get(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, user)
	}
}

// listUserProjects retrieves one author's projects
// @Summary List a user's projects
// @Tags Users
// @Produce json
// @Param userId path string true "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Items to skip"
// @Success 200 {array} models.Project "Projects"
// @Router /api/users/{userId}/projects [get]
func (h userHandler) listUserProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		projects, err := h.feed.ListUserProjects(r.Context(), chi.URLParam(r, "userId"), page)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, projects)
	}
}
