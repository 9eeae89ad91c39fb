package database

import (
	"context"

	"github.com/rpupo63/campus-connect-backend/models"
)

// Store implementations report a missing record with errs.NewNotFound and leave every other
// failure unclassified; the service layer turns those into upstream errors.

// ProjectStore persists projects and their engagement state.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	FindAll(ctx context.Context, page models.Page) ([]*models.Project, error)
	FindByUser(ctx context.Context, userID string, page models.Page) ([]*models.Project, error)
	FindByID(ctx context.Context, id string) (*models.Project, error)
	// ToggleLike flips userID's membership in the liked-by set and moves the counter by one
	// in the same conditional update. It returns the project as written and the new state.
	ToggleLike(ctx context.Context, projectID, userID string) (*models.Project, bool, error)
	// AppendCommentRef adds commentID to the reference list unless it is already present,
	// and reports whether the list changed.
	AppendCommentRef(ctx context.Context, projectID, commentID string) (bool, error)
	// RepairLikeCount sets the counter to the size of the liked-by set and reports whether
	// the two had diverged.
	RepairLikeCount(ctx context.Context, projectID string) (bool, error)
}

// CommentStore persists comments. It is the authoritative source for a project's comments.
type CommentStore interface {
	// CreateForProject inserts the comment and appends it to its project's reference list.
	CreateForProject(ctx context.Context, comment *models.Comment) error
	FindByProject(ctx context.Context, projectID string) ([]*models.Comment, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	// FindConversation returns messages exchanged between a and b in either direction,
	// oldest first.
	FindConversation(ctx context.Context, a, b string) ([]*models.Message, error)
}

type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}
