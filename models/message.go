package models

import (
	"strings"
	"time"
)

// Message is an immutable direct message between two users.
type Message struct {
	ID          string    `json:"id" db:"id" bson:"_id" gorm:"type:uuid;primaryKey;not null"`
	SenderID    string    `json:"senderId" db:"sender_id" bson:"senderId" gorm:"type:text;not null;index:idx_messages_pair,priority:1"`
	RecipientID string    `json:"recipientId" db:"recipient_id" bson:"recipientId" gorm:"type:text;not null;index:idx_messages_pair,priority:2"`
	Content     string    `json:"content" db:"content" bson:"content" gorm:"type:text;not null"`
	RoomID      string    `json:"roomId" db:"room_id" bson:"roomId" gorm:"type:text;not null;index"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" bson:"createdAt" gorm:"not null;index"`

	Sender    *UserDisplay `json:"sender,omitempty" bson:"-" gorm:"-"`
	Recipient *UserDisplay `json:"recipient,omitempty" bson:"-" gorm:"-"`
}

// RoomID derives the conversation key for an unordered pair of participants.
func RoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return strings.Join([]string{a, b}, "_")
}
