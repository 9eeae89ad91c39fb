package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/database/memory"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeUploader) Provider() string { return "fake" }

func (f *fakeUploader) Upload(_ context.Context, file MediaFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(file.Body); err != nil {
		return "", err
	}
	return "https://media.example.com/" + file.Name, nil
}

type feedFixture struct {
	store    *memory.Store
	uploader *fakeUploader
	users    *UserDirectory
	feed     *FeedService
}

func newFeedFixture(t *testing.T, opts ...FeedOption) feedFixture {
	t.Helper()
	store := memory.New()
	db := store.Database()
	uploader := &fakeUploader{}
	users := NewUserDirectory(db.UserRepo(), time.Minute, time.Second, nil)
	return feedFixture{
		store:    store,
		uploader: uploader,
		users:    users,
		feed:     NewFeedService(db, users, uploader, opts...),
	}
}

func campusApp(userID string) CreateProjectInput {
	return CreateProjectInput{
		Title:       "Campus App",
		Description: "Find study groups",
		TechStack:   []string{"React", "Node"},
		UserID:      userID,
		Media:       &MediaFile{Name: "shot.png", ContentType: "image/png", Body: strings.NewReader("png")},
	}
}

func TestCreateProjectThenToggleLikeTwice(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	project, err := f.feed.CreateProject(ctx, campusApp("owner"))
	require.NoError(t, err)
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, 0, project.Likes)
	assert.Empty(t, project.LikedBy)
	assert.Equal(t, "https://media.example.com/shot.png", project.MediaURL)

	liked, state, err := f.feed.ToggleLike(ctx, project.ID, "u1")
	require.NoError(t, err)
	assert.True(t, state)
	assert.Equal(t, 1, liked.Likes)
	assert.Equal(t, []string{"u1"}, []string(liked.LikedBy))

	unliked, state, err := f.feed.ToggleLike(ctx, project.ID, "u1")
	require.NoError(t, err)
	assert.False(t, state)
	assert.Equal(t, 0, unliked.Likes)
	assert.Empty(t, unliked.LikedBy)
}

func TestCreateProjectStoresInput(t *testing.T) {
	f := newFeedFixture(t)
	in := campusApp("owner")
	in.GithubURL = " https://github.com/campus/app "
	in.Category = "web"
	in.Contributors = `["Ada", " ", "Linus"]`

	project, err := f.feed.CreateProject(context.Background(), in)
	require.NoError(t, err)

	stored, err := f.store.Projects().FindByID(context.Background(), project.ID)
	require.NoError(t, err)

	want := &models.Project{
		Title:        "Campus App",
		Description:  "Find study groups",
		GithubURL:    "https://github.com/campus/app",
		Category:     "web",
		TechStack:    []string{"React", "Node"},
		MediaURL:     "https://media.example.com/shot.png",
		Contributors: []string{"Ada", "Linus"},
		LikedBy:      []string{},
		UserID:       "owner",
		CommentIDs:   []string{},
	}
	if diff := cmp.Diff(want, stored, cmpopts.IgnoreFields(models.Project{}, "ID", "CreatedAt")); diff != "" {
		t.Errorf("stored project mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*CreateProjectInput)
		field string
	}{
		{"missing title", func(in *CreateProjectInput) { in.Title = "  " }, "title"},
		{"missing description", func(in *CreateProjectInput) { in.Description = "" }, "description"},
		{"missing user", func(in *CreateProjectInput) { in.UserID = "" }, "userId"},
		{"empty tech stack", func(in *CreateProjectInput) { in.TechStack = []string{" "} }, "TechStack"},
		{"missing media", func(in *CreateProjectInput) { in.Media = nil }, "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFeedFixture(t)
			in := campusApp("owner")
			tt.edit(&in)

			_, err := f.feed.CreateProject(context.Background(), in)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))

			var apiErr *errs.ApiErr
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.field, apiErr.Field)
			assert.Zero(t, f.uploader.calls)

			projects, err := f.store.Projects().FindAll(context.Background(), models.Page{})
			require.NoError(t, err)
			assert.Empty(t, projects)
		})
	}
}

func TestCreateProjectUploadFailurePersistsNothing(t *testing.T) {
	f := newFeedFixture(t)
	f.uploader.err = errors.New("connection reset")

	_, err := f.feed.CreateProject(context.Background(), campusApp("owner"))
	require.Error(t, err)
	assert.True(t, errs.IsUpstream(err))
	assert.Equal(t, 503, errs.StatusCode(err))

	projects, err := f.store.Projects().FindAll(context.Background(), models.Page{})
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestContributorsPolicy(t *testing.T) {
	in := campusApp("owner")
	in.Contributors = "Ada, Linus"

	lenient := newFeedFixture(t)
	project, err := lenient.feed.CreateProject(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, project.Contributors)

	strict := newFeedFixture(t, WithContributorsPolicy(ContributorsStrict))
	in.Media = &MediaFile{Name: "shot.png", Body: strings.NewReader("png")}
	_, err = strict.feed.CreateProject(context.Background(), in)
	assert.True(t, errs.IsInvalidFieldError(err))
	assert.Zero(t, strict.uploader.calls)
}

func TestToggleLikeParity(t *testing.T) {
	for _, n := range []int{1, 2, 5, 8} {
		f := newFeedFixture(t)
		ctx := context.Background()
		project, err := f.feed.CreateProject(ctx, campusApp("owner"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := f.feed.ToggleLike(ctx, project.ID, "caller")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		summary, err := f.feed.Likes(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, n%2, summary.Likes, "after %d toggles", n)
		assert.Len(t, summary.LikedBy, summary.Likes)
	}
}

func TestToggleLikeErrors(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	_, _, err := f.feed.ToggleLike(ctx, "", "u1")
	assert.True(t, errs.IsValidation(err))

	_, _, err = f.feed.ToggleLike(ctx, "p1", "")
	assert.True(t, errs.IsValidation(err))

	_, _, err = f.feed.ToggleLike(ctx, "missing", "u1")
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, 404, errs.StatusCode(err))

	_, err = f.feed.Likes(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestCommentOnMissingProjectPersistsNothing(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	_, err := f.feed.CreateComment(ctx, CreateCommentInput{Text: "hi", ProjectID: "000000000000000000000000", UserID: "u1"})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	comments, err := f.feed.ListComments(ctx, "000000000000000000000000")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCreateCommentValidation(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	_, err := f.feed.CreateComment(ctx, CreateCommentInput{Text: "   ", ProjectID: "p", UserID: "u1"})
	assert.True(t, errs.IsMissingRequiredFieldError(err))

	_, err = f.feed.CreateComment(ctx, CreateCommentInput{Text: "hi", UserID: "u1"})
	assert.True(t, errs.IsMissingRequiredFieldError(err))

	_, err = f.feed.ListComments(ctx, "")
	assert.True(t, errs.IsValidation(err))
}

func TestListCommentsReturnsOnlyProjectComments(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	_, err := f.users.Upsert(ctx, models.User{ID: "u1", Name: "Ada", ImageURL: "https://img/ada.png"})
	require.NoError(t, err)

	first, err := f.feed.CreateProject(ctx, campusApp("owner"))
	require.NoError(t, err)
	second, err := f.feed.CreateProject(ctx, campusApp("owner"))
	require.NoError(t, err)

	var want []string
	for _, text := range []string{"one", "two", "three"} {
		c, err := f.feed.CreateComment(ctx, CreateCommentInput{Text: text, ProjectID: first.ID, UserID: "u1"})
		require.NoError(t, err)
		want = append([]string{c.ID}, want...)
	}
	_, err = f.feed.CreateComment(ctx, CreateCommentInput{Text: "elsewhere", ProjectID: second.ID, UserID: "u2"})
	require.NoError(t, err)

	comments, err := f.feed.ListComments(ctx, first.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(comments))
	for _, c := range comments {
		got = append(got, c.ID)
		require.NotNil(t, c.Author)
		assert.Equal(t, "Ada", c.Author.Name)
	}
	assert.Equal(t, want, got)

	project, err := f.feed.GetProject(ctx, first.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, []string(project.CommentIDs))
}

func TestListProjectsResolvesAuthors(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	_, err := f.users.Upsert(ctx, models.User{ID: "owner", Name: "Grace", ImageURL: "https://img/grace.png"})
	require.NoError(t, err)

	older, err := f.feed.CreateProject(ctx, campusApp("owner"))
	require.NoError(t, err)
	newer, err := f.feed.CreateProject(ctx, campusApp("stranger"))
	require.NoError(t, err)

	projects, err := f.feed.ListProjects(ctx, models.Page{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, newer.ID, projects[0].ID)
	assert.Nil(t, projects[0].Author)
	assert.Equal(t, older.ID, projects[1].ID)
	assert.Equal(t, &models.UserDisplay{ID: "owner", Name: "Grace", ImageURL: "https://img/grace.png"}, projects[1].Author)

	mine, err := f.feed.ListUserProjects(ctx, "owner", models.Page{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, older.ID, mine[0].ID)
}

// stalledProjects blocks every call until the caller's context ends.
type stalledProjects struct {
	database.ProjectStore
}

func (stalledProjects) FindAll(ctx context.Context, _ models.Page) ([]*models.Project, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStoreTimeoutIsUpstreamError(t *testing.T) {
	store := memory.New()
	db := database.Compose("stalled", stalledProjects{store.Projects()}, store.Comments(), store.Messages(), store.Users(), nil)
	metrics := NewMetrics(newRegistry())
	feed := NewFeedService(db, nil, &fakeUploader{}, WithStoreTimeout(20*time.Millisecond), WithFeedMetrics(metrics))

	_, err := feed.ListProjects(context.Background(), models.Page{})
	require.Error(t, err)
	assert.True(t, errs.IsUpstream(err))
	assert.True(t, errs.IsDatabaseTimeoutError(err))

	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Retryable())
}
