package models

import "time"

// Comment belongs to exactly one project; ProjectID never changes after creation.
type Comment struct {
	ID        string    `json:"id" db:"id" bson:"_id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID string    `json:"projectId" db:"project_id" bson:"projectId" gorm:"type:uuid;not null;index:idx_comments_project_created,priority:1"`
	UserID    string    `json:"userId" db:"user_id" bson:"userId" gorm:"type:text;not null"`
	Text      string    `json:"text" db:"text" bson:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt" gorm:"not null;index:idx_comments_project_created,priority:2,sort:desc"`

	Author *UserDisplay `json:"author,omitempty" bson:"-" gorm:"-"`
}
