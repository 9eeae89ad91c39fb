package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/campus-connect-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type commentHandler struct {
	responder Responder
	logger    zerolog.Logger
	feed      *services.FeedService
}

func newCommentHandler(feed *services.FeedService) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()

	return commentHandler{
		responder: NewResponder(logger),
		logger:    logger,
		feed:      feed,
	}
}

// createComment adds a comment to a project
// @Summary Create comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param body body CommentRequest true "Comment"
// @Success 201 {object} models.Comment "Created comment"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing text, projectId or userId"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/comments [post]
func (h commentHandler) createComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CommentRequest
		if err := decodeJSON(w, r, "comment", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comment, err := h.feed.CreateComment(r.Context(), services.CreateCommentInput{
			Text:      req.Text,
			ProjectID: req.ProjectID,
			UserID:    callerID(r, req.UserID),
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, comment)
	}
}

// listComments retrieves a project's comments
// @Summary List comments
// @Description Every comment referencing the project, newest first, with author display fields
// @Tags Comments
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} models.Comment "Comments"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing projectId"
// @Router /api/comments/{projectId} [get]
func (h commentHandler) listComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := h.feed.ListComments(r.Context(), chi.URLParam(r, "projectId"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, comments)
	}
}
