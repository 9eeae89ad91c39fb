package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxToggleAttempts bounds the compare-and-swap loop in ToggleLike. Each attempt only
// repeats when a concurrent toggle by the same caller flipped the membership in between.
const maxToggleAttempts = 5

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// Create inserts a new project with an empty engagement state.
func (r *ProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	project.Normalize()
	return r.db.WithContext(ctx).Create(project).Error
}

// FindAll returns projects newest first
func (r *ProjectRepo) FindAll(ctx context.Context, page models.Page) ([]*models.Project, error) {
	var projects []*models.Project
	err := paginate(r.db.WithContext(ctx), page).Order("created_at DESC").Find(&projects).Error
	return normalizeProjects(projects), err
}

// FindByUser returns the projects authored by userID, newest first
func (r *ProjectRepo) FindByUser(ctx context.Context, userID string, page models.Page) ([]*models.Project, error) {
	var projects []*models.Project
	err := paginate(r.db.WithContext(ctx), page).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error
	return normalizeProjects(projects), err
}

// FindByID returns a project by its ID
func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if !validUUID(id) {
		return nil, errs.NewNotFound("project")
	}

	var project models.Project
	err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("project")
	}
	if err != nil {
		return nil, err
	}
	project.Normalize()
	return &project, nil
}

// ToggleLike removes userID from liked_by if present, otherwise adds it. Both branches are a
// single conditional UPDATE guarded on the current membership, so the counter and the set
// always move together. A branch that matches no row means either the project is gone or a
// concurrent toggle won the race, in which case the loop re-reads membership and tries again.
func (r *ProjectRepo) ToggleLike(ctx context.Context, projectID, userID string) (*models.Project, bool, error) {
	if !validUUID(projectID) {
		return nil, false, errs.NewNotFound("project")
	}

	member, err := jsonArray(userID)
	if err != nil {
		return nil, false, err
	}

	db := r.db.WithContext(ctx)
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		var project models.Project

		unlike := db.Model(&project).
			Clauses(clause.Returning{}).
			Where("id = ? AND liked_by @> ?::jsonb", projectID, member).
			Updates(map[string]interface{}{
				"liked_by": gorm.Expr("liked_by - ?::text", userID),
				"likes":    gorm.Expr("likes - 1"),
			})
		if unlike.Error != nil {
			return nil, false, unlike.Error
		}
		if unlike.RowsAffected == 1 {
			project.Normalize()
			return &project, false, nil
		}

		like := db.Model(&project).
			Clauses(clause.Returning{}).
			Where("id = ? AND NOT liked_by @> ?::jsonb", projectID, member).
			Updates(map[string]interface{}{
				"liked_by": gorm.Expr("liked_by || ?::jsonb", member),
				"likes":    gorm.Expr("likes + 1"),
			})
		if like.Error != nil {
			return nil, false, like.Error
		}
		if like.RowsAffected == 1 {
			project.Normalize()
			return &project, true, nil
		}

		var count int64
		if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
			return nil, false, err
		}
		if count == 0 {
			return nil, false, errs.NewNotFound("project")
		}
	}

	return nil, false, fmt.Errorf("toggle like on %s: %w", projectID, errs.ErrWriteConflict)
}

// AppendCommentRef adds commentID to comment_ids if it is not already listed
func (r *ProjectRepo) AppendCommentRef(ctx context.Context, projectID, commentID string) (bool, error) {
	if !validUUID(projectID) {
		return false, errs.NewNotFound("project")
	}
	return appendCommentRef(r.db.WithContext(ctx), projectID, commentID)
}

// RepairLikeCount resets likes to the size of liked_by when they differ
func (r *ProjectRepo) RepairLikeCount(ctx context.Context, projectID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND likes <> jsonb_array_length(liked_by)", projectID).
		Update("likes", gorm.Expr("jsonb_array_length(liked_by)"))
	return res.RowsAffected > 0, res.Error
}

// appendCommentRef only touches the row when the reference is missing, so RowsAffected
// tells an append apart from a no-op. A row that matched nothing is then checked for
// existence.
func appendCommentRef(db *gorm.DB, projectID, commentID string) (bool, error) {
	ref, err := jsonArray(commentID)
	if err != nil {
		return false, err
	}

	res := db.Model(&models.Project{}).
		Where("id = ? AND NOT comment_ids @> ?::jsonb", projectID, ref).
		Update("comment_ids", gorm.Expr("comment_ids || ?::jsonb", ref))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, errs.NewNotFound("project")
	}
	return false, nil
}

func paginate(db *gorm.DB, page models.Page) *gorm.DB {
	if page.Offset > 0 {
		db = db.Offset(page.Offset)
	}
	if page.Limit > 0 {
		db = db.Limit(page.Limit)
	}
	return db
}

func normalizeProjects(projects []*models.Project) []*models.Project {
	for _, p := range projects {
		p.Normalize()
	}
	return projects
}

// jsonArray encodes a single-element JSON array for jsonb containment checks
func jsonArray(value string) (string, error) {
	raw, err := json.Marshal([]string{value})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
