package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"gorm.io/gorm"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

// CreateForProject appends the comment reference and inserts the comment in one
// transaction. The project row is updated first so a missing project aborts before
// anything is written.
func (r *CommentRepo) CreateForProject(ctx context.Context, comment *models.Comment) error {
	if !validUUID(comment.ProjectID) {
		return errs.NewNotFound("project")
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := appendCommentRef(tx, comment.ProjectID, comment.ID); err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
}

// FindByProject queries comments by their project reference, newest first
func (r *CommentRepo) FindByProject(ctx context.Context, projectID string) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	if !validUUID(projectID) {
		return comments, nil
	}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}
