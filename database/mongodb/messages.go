package mongodb

import (
	"context"
	"fmt"

	"github.com/rpupo63/campus-connect-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepo(collection *mongo.Collection) *MessageRepo {
	return &MessageRepo{collection: collection}
}

func (r *MessageRepo) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = newID()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now()
	}
	if message.RoomID == "" {
		message.RoomID = models.RoomID(message.SenderID, message.RecipientID)
	}
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

// FindConversation matches the pair in both directions, oldest first
func (r *MessageRepo) FindConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": a, "recipientId": b},
		bson.M{"senderId": b, "recipientId": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []*models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}
