package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrphanedCommentWarning is the warning kind counted when a comment loses its reference.
const OrphanedCommentWarning = "orphaned_comment"

func now() time.Time {
	return time.Now().UTC()
}

type CommentRepo struct {
	mongo      *MongoDB
	collection *mongo.Collection
	projects   *ProjectRepo
}

func NewCommentRepo(m *MongoDB, projects *ProjectRepo) *CommentRepo {
	return &CommentRepo{
		mongo:      m,
		collection: m.Collection(CollectionComments),
		projects:   projects,
	}
}

// CreateForProject writes the comment and its project reference in one transaction when the
// server supports them. On a standalone server the comment is inserted first and the
// reference appended after; a failure in between leaves an orphan for the reconciler.
func (r *CommentRepo) CreateForProject(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = newID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now()
	}

	if r.mongo.SupportsTransactions() {
		err := r.mongo.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if _, err := appendCommentRef(sessCtx, r.projects.collection, comment.ProjectID, comment.ID); err != nil {
				return err
			}
			_, err := r.collection.InsertOne(sessCtx, comment)
			return err
		})
		if err != nil && !errs.IsNotFound(err) {
			return errs.NewTransactionFailedError("create comment", err)
		}
		return err
	}

	exists, err := r.projects.exists(ctx, comment.ProjectID)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NewNotFound("project")
	}

	if _, err := r.collection.InsertOne(ctx, comment); err != nil {
		return err
	}

	if _, err := appendCommentRef(ctx, r.projects.collection, comment.ProjectID, comment.ID); err != nil {
		r.reportOrphan(comment, err)
	}
	return nil
}

// reportOrphan logs and counts a comment whose reference append failed after the insert.
func (r *CommentRepo) reportOrphan(comment *models.Comment, cause error) {
	warning := errs.NewConsistencyWarning(errs.ErrOrphanedComment, "comment",
		fmt.Sprintf("comment %s stored without a reference on project %s", comment.ID, comment.ProjectID))
	log.Warn().
		Err(cause).
		AnErr("warning", warning).
		Str("commentId", comment.ID).
		Str("projectId", comment.ProjectID).
		Msg("Comment reference append failed")
	if r.mongo.recordWarning != nil {
		r.mongo.recordWarning(OrphanedCommentWarning)
	}
}

func (r *CommentRepo) FindByProject(ctx context.Context, projectID string) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []*models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return comments, nil
}
