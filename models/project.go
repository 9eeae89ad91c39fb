package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Project is a showcase record posted to the campus feed.
// Likes always equals len(LikedBy); stores mutate both in one conditional update.
type Project struct {
	ID           string                      `json:"id" db:"id" bson:"_id" gorm:"type:uuid;primaryKey;not null"`
	Title        string                      `json:"title" db:"title" bson:"title" gorm:"type:text;not null"`
	Description  string                      `json:"description" db:"description" bson:"description" gorm:"type:text;not null"`
	GithubURL    string                      `json:"githubUrl,omitempty" db:"github_url" bson:"githubUrl,omitempty" gorm:"type:text"`
	ProjectURL   string                      `json:"projectUrl,omitempty" db:"project_url" bson:"projectUrl,omitempty" gorm:"type:text"`
	Category     string                      `json:"category,omitempty" db:"category" bson:"category,omitempty" gorm:"type:text"`
	TechStack    datatypes.JSONSlice[string] `json:"TechStack" db:"tech_stack" bson:"techStack" gorm:"type:jsonb;not null"`
	MediaURL     string                      `json:"mediaUrl" db:"media_url" bson:"mediaUrl" gorm:"type:text;not null"`
	Contributors datatypes.JSONSlice[string] `json:"contributors" db:"contributors" bson:"contributors" gorm:"type:jsonb;not null;default:'[]'"`
	Likes        int                         `json:"likes" db:"likes" bson:"likes" gorm:"type:integer;not null;default:0;check:likes >= 0"`
	LikedBy      datatypes.JSONSlice[string] `json:"likedBy" db:"liked_by" bson:"likedBy" gorm:"type:jsonb;not null;default:'[]'"`
	UserID       string                      `json:"userId" db:"user_id" bson:"userId" gorm:"type:text;not null;index:idx_projects_user_created,priority:1"`
	CommentIDs   datatypes.JSONSlice[string] `json:"comments" db:"comment_ids" bson:"comments" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt    time.Time                   `json:"createdAt" db:"created_at" bson:"createdAt" gorm:"not null;index;index:idx_projects_user_created,priority:2,sort:desc"`

	Author *UserDisplay `json:"author,omitempty" bson:"-" gorm:"-"`
}

// Normalize replaces nil collections with empty ones so they serialize as [] rather than null.
func (p *Project) Normalize() {
	if p.TechStack == nil {
		p.TechStack = datatypes.JSONSlice[string]{}
	}
	if p.Contributors == nil {
		p.Contributors = datatypes.JSONSlice[string]{}
	}
	if p.LikedBy == nil {
		p.LikedBy = datatypes.JSONSlice[string]{}
	}
	if p.CommentIDs == nil {
		p.CommentIDs = datatypes.JSONSlice[string]{}
	}
}

// HasLiked reports whether userID is in the liked-by set.
func (p *Project) HasLiked(userID string) bool {
	return slices.Contains(p.LikedBy, userID)
}

// Page bounds a listing. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}
