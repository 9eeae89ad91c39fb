// Package storetest holds the behaviour every database.Database backend must share. Each
// backend runs StoreSuite from its own tests.
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/stretchr/testify/suite"
)

// StoreSuite runs against a live backend. Every test works on freshly generated user ids so
// a shared database does not need truncating between runs.
type StoreSuite struct {
	suite.Suite

	// Open returns the backend under test. It is called once per suite.
	Open func() (database.Database, error)

	db  database.Database
	ctx context.Context
}

func (s *StoreSuite) SetupSuite() {
	db, err := s.Open()
	s.Require().NoError(err)
	s.db = db
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownSuite() {
	s.NoError(s.db.Close(context.Background()))
}

func (s *StoreSuite) newProject(owner string) *models.Project {
	project := &models.Project{
		Title:       "Campus App",
		Description: "Find study groups",
		TechStack:   []string{"Go", "React"},
		MediaURL:    "https://media.example.com/shot.png",
		UserID:      owner,
	}
	s.Require().NoError(s.db.ProjectRepo().Create(s.ctx, project))
	s.Require().NotEmpty(project.ID)
	return project
}

func (s *StoreSuite) TestCreateAndFindProject() {
	owner := uuid.NewString()
	older := s.newProject(owner)
	newer := s.newProject(owner)

	found, err := s.db.ProjectRepo().FindByID(s.ctx, older.ID)
	s.Require().NoError(err)
	s.Equal("Campus App", found.Title)
	s.Equal([]string{"Go", "React"}, []string(found.TechStack))
	s.Zero(found.Likes)
	s.Empty(found.LikedBy)
	s.Empty(found.CommentIDs)

	byUser, err := s.db.ProjectRepo().FindByUser(s.ctx, owner, models.Page{})
	s.Require().NoError(err)
	s.Require().Len(byUser, 2)
	s.Equal(newer.ID, byUser[0].ID)
	s.Equal(older.ID, byUser[1].ID)

	paged, err := s.db.ProjectRepo().FindByUser(s.ctx, owner, models.Page{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(paged, 1)
	s.Equal(older.ID, paged[0].ID)

	_, err = s.db.ProjectRepo().FindByID(s.ctx, uuid.NewString())
	s.True(errs.IsNotFound(err), "got %v", err)
}

func (s *StoreSuite) TestToggleLikeKeepsCounterInStep() {
	project := s.newProject(uuid.NewString())
	repo := s.db.ProjectRepo()

	updated, liked, err := repo.ToggleLike(s.ctx, project.ID, "u1")
	s.Require().NoError(err)
	s.True(liked)
	s.Equal(1, updated.Likes)
	s.Equal([]string{"u1"}, []string(updated.LikedBy))

	updated, liked, err = repo.ToggleLike(s.ctx, project.ID, "u2")
	s.Require().NoError(err)
	s.True(liked)
	s.Equal(2, updated.Likes)

	updated, liked, err = repo.ToggleLike(s.ctx, project.ID, "u1")
	s.Require().NoError(err)
	s.False(liked)
	s.Equal(1, updated.Likes)
	s.Equal([]string{"u2"}, []string(updated.LikedBy))

	_, _, err = repo.ToggleLike(s.ctx, uuid.NewString(), "u1")
	s.True(errs.IsNotFound(err), "got %v", err)
}

func (s *StoreSuite) TestConcurrentTogglesFromDifferentUsers() {
	project := s.newProject(uuid.NewString())
	const users, togglesEach = 4, 5

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			for i := 0; i < togglesEach; i++ {
				_, _, err := s.db.ProjectRepo().ToggleLike(s.ctx, project.ID, userID)
				s.NoError(err)
			}
		}(uuid.NewString())
	}
	wg.Wait()

	found, err := s.db.ProjectRepo().FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Equal(users, found.Likes)
	s.Len(found.LikedBy, users)
}

func (s *StoreSuite) TestConcurrentTogglesFromSameCaller() {
	project := s.newProject(uuid.NewString())
	caller := uuid.NewString()
	const toggles = 9

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.db.ProjectRepo().ToggleLike(s.ctx, project.ID, caller)
			if err != nil {
				// an exhausted retry budget is reported, never half applied
				s.ErrorIs(err, errs.ErrWriteConflict)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	found, err := s.db.ProjectRepo().FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Equal(succeeded%2, found.Likes, "%d of %d toggles applied", succeeded, toggles)
	s.Len(found.LikedBy, found.Likes)
	if found.Likes == 1 {
		s.Equal([]string{caller}, []string(found.LikedBy))
	}
}

func (s *StoreSuite) TestCommentIsReferencedByItsProject() {
	project := s.newProject(uuid.NewString())

	comment := &models.Comment{ProjectID: project.ID, UserID: "u1", Text: "Nice work!"}
	s.Require().NoError(s.db.CommentRepo().CreateForProject(s.ctx, comment))
	s.Require().NotEmpty(comment.ID)

	comments, err := s.db.CommentRepo().FindByProject(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Require().Len(comments, 1)
	s.Equal(comment.ID, comments[0].ID)

	found, err := s.db.ProjectRepo().FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Equal([]string{comment.ID}, []string(found.CommentIDs))

	// appending the same reference twice is a no-op
	appended, err := s.db.ProjectRepo().AppendCommentRef(s.ctx, project.ID, comment.ID)
	s.Require().NoError(err)
	s.False(appended)
	found, err = s.db.ProjectRepo().FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Len(found.CommentIDs, 1)
}

func (s *StoreSuite) TestCommentOnMissingProjectWritesNothing() {
	missing := uuid.NewString()

	err := s.db.CommentRepo().CreateForProject(s.ctx, &models.Comment{ProjectID: missing, UserID: "u1", Text: "hi"})
	s.True(errs.IsNotFound(err), "got %v", err)

	comments, err := s.db.CommentRepo().FindByProject(s.ctx, missing)
	s.Require().NoError(err)
	s.Empty(comments)
}

func (s *StoreSuite) TestConversationMatchesBothDirections() {
	a, b, c := uuid.NewString(), uuid.NewString(), uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, m := range []*models.Message{
		{SenderID: a, RecipientID: b, Content: "hi"},
		{SenderID: b, RecipientID: a, Content: "hey"},
		{SenderID: a, RecipientID: c, Content: "other"},
	} {
		m.CreatedAt = base.Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.db.MessageRepo().Create(s.ctx, m))
	}

	forward, err := s.db.MessageRepo().FindConversation(s.ctx, a, b)
	s.Require().NoError(err)
	backward, err := s.db.MessageRepo().FindConversation(s.ctx, b, a)
	s.Require().NoError(err)

	s.Require().Len(forward, 2)
	s.Require().Len(backward, 2)
	s.Equal("hi", forward[0].Content)
	s.Equal("hey", forward[1].Content)
	s.Equal(forward[0].ID, backward[0].ID)
	s.Equal(models.RoomID(a, b), forward[0].RoomID)
	s.Equal(forward[0].RoomID, forward[1].RoomID)
}

func (s *StoreSuite) TestUserUpsertKeepsCreatedAt() {
	id := uuid.NewString()
	users := s.db.UserRepo()

	s.Require().NoError(users.Upsert(s.ctx, &models.User{ID: id, Name: "Ada"}))
	first, err := users.FindByID(s.ctx, id)
	s.Require().NoError(err)

	s.Require().NoError(users.Upsert(s.ctx, &models.User{ID: id, Name: "Ada L.", ImageURL: "https://img/ada.png"}))
	second, err := users.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Ada L.", second.Name)
	s.True(first.CreatedAt.Equal(second.CreatedAt), "createdAt moved from %v to %v", first.CreatedAt, second.CreatedAt)

	found, err := users.FindByIDs(s.ctx, []string{id, uuid.NewString()})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(id, found[0].ID)

	_, err = users.FindByID(s.ctx, uuid.NewString())
	s.True(errs.IsNotFound(err), "got %v", err)
}
