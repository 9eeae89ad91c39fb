// Package memory keeps every record in process. It backs DB_TYPE=memory for local
// development and the service and handler tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
)

// Store implements every database store interface behind one mutex, which makes each
// operation, including comment creation, atomic.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
	comments map[string]*models.Comment
	messages []*models.Message
	users    map[string]*models.User
	now      func() time.Time

	lastProject time.Time
	lastComment time.Time
	lastMessage time.Time
}

func New() *Store {
	return &Store{
		projects: make(map[string]*models.Project),
		comments: make(map[string]*models.Comment),
		users:    make(map[string]*models.User),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Database wraps s in the database aggregate.
func (s *Store) Database() database.Database {
	return database.Compose("memory", s.Projects(), s.Comments(), s.Messages(), s.Users(), nil)
}

// The store interfaces share method names, so each is exposed through its own view.

func (s *Store) Projects() database.ProjectStore { return projectView{s} }
func (s *Store) Comments() database.CommentStore { return commentView{s} }
func (s *Store) Messages() database.MessageStore { return messageView{s} }
func (s *Store) Users() database.UserStore       { return userView{s} }

// stamp returns a creation time strictly after every earlier one so ordering is stable.
func (s *Store) stamp(last *time.Time) time.Time {
	t := s.now()
	if !t.After(*last) {
		t = last.Add(time.Microsecond)
	}
	*last = t
	return t
}

type projectView struct{ s *Store }

func (v projectView) Create(ctx context.Context, project *models.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = v.s.stamp(&v.s.lastProject)
	}
	project.Normalize()
	v.s.projects[project.ID] = cloneProject(project)
	return nil
}

func (v projectView) FindAll(ctx context.Context, page models.Page) ([]*models.Project, error) {
	return v.find(ctx, page, func(*models.Project) bool { return true })
}

func (v projectView) FindByUser(ctx context.Context, userID string, page models.Page) ([]*models.Project, error) {
	return v.find(ctx, page, func(p *models.Project) bool { return p.UserID == userID })
}

func (v projectView) find(ctx context.Context, page models.Page, keep func(*models.Project) bool) ([]*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	projects := []*models.Project{}
	for _, p := range v.s.projects {
		if keep(p) {
			projects = append(projects, cloneProject(p))
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	if page.Offset > 0 {
		if page.Offset >= len(projects) {
			return []*models.Project{}, nil
		}
		projects = projects[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(projects) {
		projects = projects[:page.Limit]
	}
	return projects, nil
}

func (v projectView) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	p, ok := v.s.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	return cloneProject(p), nil
}

func (v projectView) ToggleLike(ctx context.Context, projectID, userID string) (*models.Project, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	p, ok := v.s.projects[projectID]
	if !ok {
		return nil, false, errs.NewNotFound("project")
	}

	if i := slices.Index(p.LikedBy, userID); i >= 0 {
		p.LikedBy = slices.Delete(p.LikedBy, i, i+1)
		p.Likes--
		return cloneProject(p), false, nil
	}
	p.LikedBy = append(p.LikedBy, userID)
	p.Likes++
	return cloneProject(p), true, nil
}

func (v projectView) AppendCommentRef(ctx context.Context, projectID, commentID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	return v.s.appendRef(projectID, commentID)
}

func (v projectView) RepairLikeCount(ctx context.Context, projectID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	p, ok := v.s.projects[projectID]
	if !ok {
		return false, errs.NewNotFound("project")
	}
	if p.Likes == len(p.LikedBy) {
		return false, nil
	}
	p.Likes = len(p.LikedBy)
	return true, nil
}

func (s *Store) appendRef(projectID, commentID string) (bool, error) {
	p, ok := s.projects[projectID]
	if !ok {
		return false, errs.NewNotFound("project")
	}
	if slices.Contains(p.CommentIDs, commentID) {
		return false, nil
	}
	p.CommentIDs = append(p.CommentIDs, commentID)
	return true, nil
}

type commentView struct{ s *Store }

func (v commentView) CreateForProject(ctx context.Context, comment *models.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if _, err := v.s.appendRef(comment.ProjectID, comment.ID); err != nil {
		return err
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = v.s.stamp(&v.s.lastComment)
	}
	stored := *comment
	stored.Author = nil
	v.s.comments[comment.ID] = &stored
	return nil
}

func (v commentView) FindByProject(ctx context.Context, projectID string) ([]*models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	comments := []*models.Comment{}
	for _, c := range v.s.comments {
		if c.ProjectID == projectID {
			clone := *c
			comments = append(comments, &clone)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

// InsertOrphan stores a comment without touching its project's reference list. It
// reproduces the state a failure between the two comment writes leaves behind.
func (s *Store) InsertOrphan(comment models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.stamp(&s.lastComment)
	}
	s.comments[comment.ID] = &comment
}

// SetLikes overwrites a project's counter without touching its liked-by set.
func (s *Store) SetLikes(projectID string, likes int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.projects[projectID]; ok {
		p.Likes = likes
	}
}

type messageView struct{ s *Store }

func (v messageView) Create(ctx context.Context, message *models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = v.s.stamp(&v.s.lastMessage)
	}
	if message.RoomID == "" {
		message.RoomID = models.RoomID(message.SenderID, message.RecipientID)
	}
	stored := *message
	stored.Sender, stored.Recipient = nil, nil
	v.s.messages = append(v.s.messages, &stored)
	return nil
}

func (v messageView) FindConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	messages := []*models.Message{}
	for _, m := range v.s.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			clone := *m
			messages = append(messages, &clone)
		}
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

type userView struct{ s *Store }

func (v userView) Upsert(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	now := v.s.now()
	if existing, ok := v.s.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	clone := *user
	v.s.users[user.ID] = &clone
	return nil
}

func (v userView) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	u, ok := v.s.users[id]
	if !ok {
		return nil, errs.NewNotFound("user")
	}
	clone := *u
	return &clone, nil
}

func (v userView) FindByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	users := []*models.User{}
	for _, id := range ids {
		if u, ok := v.s.users[id]; ok {
			clone := *u
			users = append(users, &clone)
		}
	}
	return users, nil
}

func cloneProject(p *models.Project) *models.Project {
	clone := *p
	clone.TechStack = slices.Clone(p.TechStack)
	clone.Contributors = slices.Clone(p.Contributors)
	clone.LikedBy = slices.Clone(p.LikedBy)
	clone.CommentIDs = slices.Clone(p.CommentIDs)
	clone.Author = nil
	clone.Normalize()
	return &clone
}
