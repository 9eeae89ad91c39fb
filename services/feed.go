package services

import (
	"context"
	"strings"
	"time"

	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// CreateProjectInput is a new project as submitted by a client.
type CreateProjectInput struct {
	Title        string
	Description  string
	GithubURL    string
	ProjectURL   string
	Category     string
	TechStack    []string
	UserID       string
	Contributors string // JSON array of names, parsed under the configured policy
	Media        *MediaFile
}

type CreateCommentInput struct {
	Text      string
	ProjectID string
	UserID    string
}

// LikeSummary is the like state of one project.
type LikeSummary struct {
	LikedBy []string `json:"likedBy"`
	Likes   int      `json:"likes"`
}

// FeedService creates and lists projects, their likes and their comments.
type FeedService struct {
	projects     database.ProjectStore
	comments     database.CommentStore
	users        *UserDirectory
	media        MediaUploader
	metrics      *Metrics
	storeTimeout time.Duration
	contributors ContributorsPolicy
	logger       zerolog.Logger
}

type FeedOption func(*FeedService)

func WithFeedMetrics(m *Metrics) FeedOption {
	return func(s *FeedService) {
		s.metrics = m
	}
}

func WithStoreTimeout(d time.Duration) FeedOption {
	return func(s *FeedService) {
		s.storeTimeout = d
	}
}

func WithContributorsPolicy(p ContributorsPolicy) FeedOption {
	return func(s *FeedService) {
		s.contributors = p
	}
}

func NewFeedService(db database.Database, users *UserDirectory, media MediaUploader, opts ...FeedOption) *FeedService {
	s := &FeedService{
		projects:     db.ProjectRepo(),
		comments:     db.CommentRepo(),
		users:        users,
		media:        media,
		storeTimeout: defaultStoreTimeout,
		contributors: ContributorsLenient,
		logger:       log.With().Str("service", "feed").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProject validates the input, uploads the media and persists the project with no
// likes. Nothing is written when validation or the upload fails.
func (s *FeedService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	for _, f := range []struct{ name, value string }{
		{"title", in.Title},
		{"description", in.Description},
		{"userId", in.UserID},
	} {
		if err := required(f.name, f.value); err != nil {
			return nil, err
		}
	}

	techStack := make([]string, 0, len(in.TechStack))
	for _, tech := range in.TechStack {
		if tech = strings.TrimSpace(tech); tech != "" {
			techStack = append(techStack, tech)
		}
	}
	if len(techStack) == 0 {
		return nil, errs.NewMissingRequiredFieldError("TechStack")
	}

	if in.Media == nil || in.Media.Body == nil {
		return nil, errs.NewMissingRequiredFieldError("file")
	}

	contributors, wellFormed, err := ParseContributors(in.Contributors, s.contributors)
	if err != nil {
		return nil, err
	}
	if !wellFormed {
		s.logger.Warn().Str("userId", in.UserID).Msg("Malformed contributors field, storing project without contributors")
	}

	mediaURL, err := s.media.Upload(ctx, *in.Media)
	s.metrics.RecordMediaUpload(s.media.Provider(), err)
	if err != nil {
		s.logger.Error().Err(err).Str("provider", s.media.Provider()).Msg("Media upload failed")
		if errs.IsUpstream(err) {
			return nil, err
		}
		return nil, errs.NewMediaUploadError(s.media.Provider(), err)
	}

	project := &models.Project{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		GithubURL:    strings.TrimSpace(in.GithubURL),
		ProjectURL:   strings.TrimSpace(in.ProjectURL),
		Category:     strings.TrimSpace(in.Category),
		TechStack:    datatypes.JSONSlice[string](techStack),
		MediaURL:     mediaURL,
		Contributors: datatypes.JSONSlice[string](contributors),
		Likes:        0,
		LikedBy:      datatypes.JSONSlice[string]{},
		UserID:       strings.TrimSpace(in.UserID),
		CommentIDs:   datatypes.JSONSlice[string]{},
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	if err := s.projects.Create(sctx, project); err != nil {
		// The uploaded object stays with the media host; no project references it.
		s.logger.Error().Err(err).Str("mediaUrl", mediaURL).Msg("Failed to persist project after media upload")
		return nil, storeError(s.metrics, "create", "project", err)
	}

	s.metrics.RecordProjectCreated()
	s.logger.Info().Str("projectId", project.ID).Str("userId", project.UserID).Msg("Project created")

	s.attachProjectAuthors(ctx, project)
	return project, nil
}

// ListProjects returns projects newest first with their authors resolved.
func (s *FeedService) ListProjects(ctx context.Context, page models.Page) ([]*models.Project, error) {
	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	projects, err := s.projects.FindAll(sctx, page)
	if err != nil {
		return nil, storeError(s.metrics, "list", "projects", err)
	}
	s.attachProjectAuthors(ctx, projects...)
	return projects, nil
}

// ListUserProjects returns one author's projects, newest first.
func (s *FeedService) ListUserProjects(ctx context.Context, userID string, page models.Page) ([]*models.Project, error) {
	if err := required("userId", userID); err != nil {
		return nil, err
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	projects, err := s.projects.FindByUser(sctx, userID, page)
	if err != nil {
		return nil, storeError(s.metrics, "list", "projects", err)
	}
	s.attachProjectAuthors(ctx, projects...)
	return projects, nil
}

func (s *FeedService) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	if err := required("projectId", projectID); err != nil {
		return nil, err
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	project, err := s.projects.FindByID(sctx, projectID)
	if err != nil {
		return nil, storeError(s.metrics, "find", "project", err)
	}
	s.attachProjectAuthors(ctx, project)
	return project, nil
}

// ToggleLike flips userID's like on the project and returns the project as written with
// the caller's new state.
func (s *FeedService) ToggleLike(ctx context.Context, projectID, userID string) (*models.Project, bool, error) {
	if err := required("projectId", projectID); err != nil {
		return nil, false, err
	}
	if err := required("userId", userID); err != nil {
		return nil, false, err
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	project, liked, err := s.projects.ToggleLike(sctx, projectID, userID)
	if err != nil {
		return nil, false, storeError(s.metrics, "toggle like on", "project", err)
	}

	s.metrics.RecordLikeToggle(liked)
	s.logger.Debug().Str("projectId", projectID).Str("userId", userID).Bool("liked", liked).Int("likes", project.Likes).Msg("Like toggled")

	s.attachProjectAuthors(ctx, project)
	return project, liked, nil
}

func (s *FeedService) Likes(ctx context.Context, projectID string) (LikeSummary, error) {
	if err := required("projectId", projectID); err != nil {
		return LikeSummary{}, err
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	project, err := s.projects.FindByID(sctx, projectID)
	if err != nil {
		return LikeSummary{}, storeError(s.metrics, "find", "project", err)
	}
	return LikeSummary{LikedBy: []string(project.LikedBy), Likes: project.Likes}, nil
}

// CreateComment stores the comment and links it to its project. The project must exist.
func (s *FeedService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := required("projectId", in.ProjectID); err != nil {
		return nil, err
	}
	if err := required("userId", in.UserID); err != nil {
		return nil, err
	}
	if err := required("text", in.Text); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ProjectID: strings.TrimSpace(in.ProjectID),
		UserID:    strings.TrimSpace(in.UserID),
		Text:      in.Text,
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	if err := s.comments.CreateForProject(sctx, comment); err != nil {
		return nil, storeError(s.metrics, "create", "comment", err)
	}

	s.metrics.RecordCommentCreated()
	s.logger.Info().Str("commentId", comment.ID).Str("projectId", comment.ProjectID).Msg("Comment created")

	s.attachCommentAuthors(ctx, comment)
	return comment, nil
}

// ListComments returns every comment referencing projectID, newest first. An unknown
// project simply has no comments.
func (s *FeedService) ListComments(ctx context.Context, projectID string) ([]*models.Comment, error) {
	if err := required("projectId", projectID); err != nil {
		return nil, err
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	comments, err := s.comments.FindByProject(sctx, projectID)
	if err != nil {
		return nil, storeError(s.metrics, "list", "comments", err)
	}
	s.attachCommentAuthors(ctx, comments...)
	return comments, nil
}

func (s *FeedService) attachProjectAuthors(ctx context.Context, projects ...*models.Project) {
	if s.users == nil || len(projects) == 0 {
		return
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.UserID)
	}
	displays := s.users.Resolve(ctx, ids)
	for _, p := range projects {
		p.Author = displays[p.UserID]
	}
}

func (s *FeedService) attachCommentAuthors(ctx context.Context, comments ...*models.Comment) {
	if s.users == nil || len(comments) == 0 {
		return
	}
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	displays := s.users.Resolve(ctx, ids)
	for _, c := range comments {
		c.Author = displays[c.UserID]
	}
}
