package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpupo63/campus-connect-backend/config"
	"github.com/rpupo63/campus-connect-backend/database/memory"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rpupo63/campus-connect-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct{}

func (stubUploader) Provider() string { return "stub" }

func (stubUploader) Upload(_ context.Context, file services.MediaFile) (string, error) {
	if _, err := io.ReadAll(file.Body); err != nil {
		return "", err
	}
	return "https://media.example.com/" + file.Name, nil
}

// tokenVerifier accepts "token-<subject>".
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (string, error) {
	subject, ok := strings.CutPrefix(token, "token-")
	if !ok || subject == "" {
		return "", errs.NewInvalidTokenError(errors.New("unknown token"))
	}
	return subject, nil
}

type testServer struct {
	router   *chi.Mux
	store    *memory.Store
	feed     *services.FeedService
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, configure func(*config.Settings), verifier services.IdentityVerifier) testServer {
	t.Helper()

	settings := config.Load(nil)
	settings.RateLimitPerSecond = 0
	settings.MaxUploadBytes = 1 << 20
	if configure != nil {
		configure(&settings)
	}

	store := memory.New()
	db := store.Database()
	registry := prometheus.NewRegistry()
	metrics := services.NewMetrics(registry)
	users := services.NewUserDirectory(db.UserRepo(), time.Minute, time.Second, metrics)
	feed := services.NewFeedService(db, users, stubUploader{}, services.WithFeedMetrics(metrics))

	router := newRouter(Dependencies{
		Database:   db,
		Feed:       feed,
		Chat:       services.NewChatService(db.MessageRepo(), users, metrics, time.Second),
		Users:      users,
		Reconciler: services.NewReconciler(db, metrics, time.Second),
		Metrics:    metrics,
		Gatherer:   registry,
		Verifier:   verifier,
	}, withSettings(settings), withStartupTime(time.Now()))

	return testServer{router: router, store: store, feed: feed, registry: registry}
}

func (s testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s testServer) postJSON(path string, body any, header ...string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return s.do(req)
}

func (s testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s testServer) seedProject(t *testing.T, owner string) *models.Project {
	t.Helper()
	project, err := s.feed.CreateProject(context.Background(), services.CreateProjectInput{
		Title:       "Campus App",
		Description: "Find study groups",
		TechStack:   []string{"Go"},
		UserID:      owner,
		Media:       &services.MediaFile{Name: "shot.png", Body: strings.NewReader("png")},
	})
	require.NoError(t, err)
	return project
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func projectForm(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, kv := range [][2]string{
		{"title", "Campus App"},
		{"description", "Find study groups"},
		{"githubUrl", "https://github.com/x/campus"},
		{"category", "web"},
		{"userId", "owner"},
		{"TechStack[]", "React"},
		{"TechStack[]", "Node"},
		{"contributors", `["Ada","Grace"]`},
	} {
		require.NoError(t, mw.WriteField(kv[0], kv[1]))
	}
	if withFile {
		fw, err := mw.CreateFormFile("file", "shot.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestCreateProjectFromMultipart(t *testing.T) {
	s := newTestServer(t, nil, nil)

	body, contentType := projectForm(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
	req.Header.Set("Content-Type", contentType)
	rec := s.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	project := decode[models.Project](t, rec)
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, "https://media.example.com/shot.png", project.MediaURL)
	assert.Equal(t, []string{"React", "Node"}, []string(project.TechStack))
	assert.Equal(t, []string{"Ada", "Grace"}, []string(project.Contributors))
	assert.Zero(t, project.Likes)
	assert.Empty(t, project.LikedBy)

	listed := decode[[]models.Project](t, s.get("/api/projects"))
	require.Len(t, listed, 1)
	assert.Equal(t, project.ID, listed[0].ID)
}

func TestCreateProjectWithoutFileIsRejected(t *testing.T) {
	s := newTestServer(t, nil, nil)

	body, contentType := projectForm(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
	req.Header.Set("Content-Type", contentType)
	rec := s.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "file", resp.Field)
	assert.Equal(t, "error", resp.Status)

	assert.Empty(t, decode[[]models.Project](t, s.get("/api/projects")))
}

func TestToggleLikeOverHTTP(t *testing.T) {
	s := newTestServer(t, nil, nil)
	project := s.seedProject(t, "owner")
	path := "/api/projects/" + project.ID + "/like"

	first := decode[LikeResponse](t, s.postJSON(path, LikeRequest{UserID: "u1"}))
	assert.True(t, first.Liked)
	assert.Equal(t, 1, first.Project.Likes)

	likes := decode[services.LikeSummary](t, s.get("/api/projects/"+project.ID+"/likes"))
	assert.Equal(t, []string{"u1"}, likes.LikedBy)

	second := decode[LikeResponse](t, s.postJSON(path, LikeRequest{UserID: "u1"}))
	assert.False(t, second.Liked)
	assert.Zero(t, second.Project.Likes)

	assert.Equal(t, http.StatusBadRequest, s.postJSON(path, LikeRequest{}).Code)
	assert.Equal(t, http.StatusNotFound, s.postJSON("/api/projects/missing/like", LikeRequest{UserID: "u1"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(httptest.NewRequest(http.MethodPost, path, strings.NewReader("{"))).Code)
}

func TestCommentsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil, nil)
	project := s.seedProject(t, "owner")

	rec := s.postJSON("/api/comments", CommentRequest{Text: "Nice work!", ProjectID: project.ID, UserID: "u2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[models.Comment](t, rec)
	assert.Equal(t, project.ID, comment.ProjectID)

	comments := decode[[]models.Comment](t, s.get("/api/comments/"+project.ID))
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)

	stored := decode[models.Project](t, s.get("/api/projects/"+project.ID))
	assert.Equal(t, []string{comment.ID}, []string(stored.CommentIDs))

	missing := s.postJSON("/api/comments", CommentRequest{Text: "hi", ProjectID: "nope", UserID: "u2"})
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestChatHistoryIsSymmetric(t *testing.T) {
	s := newTestServer(t, nil, nil)

	require.Equal(t, http.StatusCreated, s.postJSON("/api/chats", MessageRequest{UserID: "a", RecipientID: "b", Content: "hi"}).Code)
	require.Equal(t, http.StatusCreated, s.postJSON("/api/chats", MessageRequest{UserID: "b", RecipientID: "a", Content: "hey"}).Code)
	require.Equal(t, http.StatusCreated, s.postJSON("/api/chats", MessageRequest{UserID: "a", RecipientID: "c", Content: "other"}).Code)

	fromA := decode[[]models.Message](t, s.get("/api/chats/b?senderId=a"))
	fromB := decode[[]models.Message](t, s.get("/api/chats/a?senderId=b"))
	require.Len(t, fromA, 2)
	require.Len(t, fromB, 2)
	assert.Equal(t, "hi", fromA[0].Content)
	assert.Equal(t, "hey", fromA[1].Content)
	assert.Equal(t, fromA[0].ID, fromB[0].ID)

	assert.Equal(t, http.StatusBadRequest, s.get("/api/chats/b").Code)
	assert.Equal(t, http.StatusBadRequest, s.postJSON("/api/chats", MessageRequest{UserID: "a", RecipientID: "b"}).Code)
}

func TestUsersOverHTTP(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.postJSON("/api/users", UserRequest{ID: "owner", Name: "Ada", ImageURL: "https://img/ada.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user := decode[models.User](t, s.get("/api/users/owner"))
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, http.StatusNotFound, s.get("/api/users/ghost").Code)

	s.seedProject(t, "owner")
	s.seedProject(t, "someone-else")
	projects := decode[[]models.Project](t, s.get("/api/users/owner/projects"))
	require.Len(t, projects, 1)
	require.NotNil(t, projects[0].Author)
	assert.Equal(t, "Ada", projects[0].Author.Name)

	assert.Equal(t, http.StatusBadRequest, s.get("/api/users/owner/projects?limit=-1").Code)
}

func TestVerifiedSubjectOverridesSuppliedUserID(t *testing.T) {
	s := newTestServer(t, nil, tokenVerifier{})
	project := s.seedProject(t, "owner")
	path := "/api/projects/" + project.ID + "/like"

	rec := s.postJSON(path, LikeRequest{UserID: "spoofed"}, "Authorization", "Bearer token-alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"alice"}, []string(decode[LikeResponse](t, rec).Project.LikedBy))

	assert.Equal(t, http.StatusUnauthorized, s.postJSON(path, LikeRequest{UserID: "x"}, "Authorization", "Bearer forged").Code)
	assert.Equal(t, http.StatusUnauthorized, s.postJSON(path, LikeRequest{UserID: "x"}, "Authorization", "Basic abc").Code)

	// no header falls back to the supplied id
	rec = s.postJSON(path, LikeRequest{UserID: "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"alice", "bob"}, []string(decode[LikeResponse](t, rec).Project.LikedBy))
}

func TestWritesAreRateLimited(t *testing.T) {
	s := newTestServer(t, func(c *config.Settings) {
		c.RateLimitPerSecond = 0.001
		c.RateLimitBurst = 1
	}, nil)

	first := s.postJSON("/api/chats", MessageRequest{UserID: "a", RecipientID: "b", Content: "1"})
	require.Equal(t, http.StatusCreated, first.Code)

	second := s.postJSON("/api/chats", MessageRequest{UserID: "a", RecipientID: "b", Content: "2"})
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, s.get("/api/chats/b?senderId=a").Code)
}

func TestAdminReconcileRequiresToken(t *testing.T) {
	s := newTestServer(t, func(c *config.Settings) { c.AdminToken = "secret" }, nil)
	project := s.seedProject(t, "owner")
	s.store.SetLikes(project.ID, 4)

	assert.Equal(t, http.StatusUnauthorized, s.postJSON("/api/admin/reconcile", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.postJSON("/api/admin/reconcile", nil, "X-Admin-Token", "wrong").Code)

	rec := s.postJSON("/api/admin/reconcile", nil, "X-Admin-Token", "secret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[services.ReconcileReport](t, rec)
	assert.EqualValues(t, 1, report.ProjectsChecked)
	assert.EqualValues(t, 1, report.LikeCountsRepaired)

	assert.Zero(t, decode[models.Project](t, s.get("/api/projects/"+project.ID)).Likes)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil, nil)

	health := decode[HealthResponse](t, s.get("/health"))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "memory", health.Store)

	s.get("/api/projects")
	rec := s.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `campus_http_requests_total{method="GET",route="/api/projects",status="200"} 1`)
}

func TestPreflightFromUnknownOriginIsRejected(t *testing.T) {
	s := newTestServer(t, func(c *config.Settings) { c.AcceptedOrigins = []string{"https://campus.example.com"} }, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := s.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "https://campus.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = s.do(req)
	assert.Equal(t, "https://campus.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
