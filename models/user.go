package models

import "time"

// User mirrors the public profile held by the identity provider. ID is the provider's
// subject identifier.
type User struct {
	ID        string    `json:"id" db:"id" bson:"_id" gorm:"type:text;primaryKey;not null"`
	Name      string    `json:"name" db:"name" bson:"name" gorm:"type:text;not null;default:''"`
	ImageURL  string    `json:"imageUrl" db:"image_url" bson:"imageUrl" gorm:"type:text"`
	Email     string    `json:"email,omitempty" db:"email" bson:"email,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt" gorm:"not null"`
}

// UserDisplay is the subset of User joined onto feed items.
type UserDisplay struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

func (u User) Display() *UserDisplay {
	return &UserDisplay{ID: u.ID, Name: u.Name, ImageURL: u.ImageURL}
}
