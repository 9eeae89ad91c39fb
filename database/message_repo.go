package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/campus-connect-backend/models"
	"gorm.io/gorm"
)

type MessageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db}
}

func (r *MessageRepo) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	if message.RoomID == "" {
		message.RoomID = models.RoomID(message.SenderID, message.RecipientID)
	}
	return r.db.WithContext(ctx).Create(message).Error
}

// FindConversation matches the pair in both directions
func (r *MessageRepo) FindConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	messages := []*models.Message{}
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}
