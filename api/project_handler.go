package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rpupo63/campus-connect-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// multipartMemory is how much of a multipart body is held in memory before spilling to disk.
const multipartMemory = 8 << 20

type projectHandler struct {
	responder      Responder
	logger         zerolog.Logger
	feed           *services.FeedService
	maxUploadBytes int64
}

func newProjectHandler(feed *services.FeedService, maxUploadBytes int64) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		feed:           feed,
		maxUploadBytes: maxUploadBytes,
	}
}

// createProject uploads the media file and creates a project
// @Summary Create project
// @Description Uploads the media file to the media host, then stores the project with no likes
// @Tags Projects
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param githubUrl formData string false "Repository link"
// @Param projectUrl formData string false "Live link"
// @Param category formData string false "Category"
// @Param userId formData string true "Author id, overridden by a verified token"
// @Param TechStack[] formData []string true "Tech stack tags"
// @Param contributors formData string false "JSON array of contributor names"
// @Param file formData file true "Media file"
// @Success 201 {object} models.Project "Created project"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing field or file"
// @Failure 413 {object} ErrorResponse "Upload too large"
// @Failure 503 {object} ErrorResponse "Media host or store unavailable"
// @Router /api/projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxErr.Limit))
				return
			}
			h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		in := services.CreateProjectInput{
			Title:        r.FormValue("title"),
			Description:  r.FormValue("description"),
			GithubURL:    r.FormValue("githubUrl"),
			ProjectURL:   r.FormValue("projectUrl"),
			Category:     r.FormValue("category"),
			UserID:       callerID(r, r.FormValue("userId")),
			Contributors: r.FormValue("contributors"),
			TechStack:    techStackValues(r.MultipartForm.Value),
		}

		file, header, err := r.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// reported by the service after the other required fields
		case err != nil:
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			return
		default:
			defer file.Close()
			in.Media = &services.MediaFile{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		}

		project, err := h.feed.CreateProject(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

// techStackValues accepts repeated TechStack[] or TechStack fields, a single JSON array,
// or a single comma-separated value.
func techStackValues(form map[string][]string) []string {
	values := append(append([]string{}, form["TechStack[]"]...), form["TechStack"]...)
	if len(values) != 1 {
		return values
	}

	single := strings.TrimSpace(values[0])
	if strings.HasPrefix(single, "[") {
		var decoded []string
		if err := json.Unmarshal([]byte(single), &decoded); err == nil {
			return decoded
		}
	}
	return strings.Split(single, ",")
}

// parsePage reads ?limit and ?offset. Absent values mean no bound.
func parsePage(r *http.Request) (models.Page, error) {
	var page models.Page
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &page.Limit},
		{"offset", &page.Offset},
	} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return models.Page{}, errs.NewInvalidFieldError(p.name, "must be a non-negative integer")
		}
		*p.dst = n
	}
	return page, nil
}

// listProjects retrieves the feed
// @Summary List projects
// @Description Retrieves projects newest first with author display fields
// @Tags Projects
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Items to skip"
// @Success 200 {array} models.Project "Projects"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid paging"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /api/projects [get]
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		projects, err := h.feed.ListProjects(r.Context(), page)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, projects)
	}
}

// getProject retrieves a specific project by ID
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} models.Project "Project details"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectId} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.feed.GetProject(r.Context(), chi.URLParam(r, "projectId"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

// toggleLike likes the project for the caller, or removes an existing like
// @Summary Toggle like
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param body body LikeRequest true "Caller"
// @Success 200 {object} LikeResponse "Updated project and the caller's new state"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing userId"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectId}/like [post]
func (h projectHandler) toggleLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LikeRequest
		if err := decodeJSON(w, r, "like", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, liked, err := h.feed.ToggleLike(r.Context(), chi.URLParam(r, "projectId"), callerID(r, req.UserID))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, LikeResponse{Project: project, Liked: liked})
	}
}

// getLikes returns who liked the project
// @Summary Get likes
// @Tags Projects
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} services.LikeSummary "Liked-by set and count"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectId}/likes [get]
func (h projectHandler) getLikes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := h.feed.Likes(r.Context(), chi.URLParam(r, "projectId"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, summary)
	}
}
