package services

import (
	"context"
	"strings"
	"time"

	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ChatService persists direct messages and serves conversation history.
type ChatService struct {
	messages     database.MessageStore
	users        *UserDirectory
	metrics      *Metrics
	storeTimeout time.Duration
	logger       zerolog.Logger
}

func NewChatService(messages database.MessageStore, users *UserDirectory, metrics *Metrics, storeTimeout time.Duration) *ChatService {
	return &ChatService{
		messages:     messages,
		users:        users,
		metrics:      metrics,
		storeTimeout: storeTimeout,
		logger:       log.With().Str("service", "chat").Logger(),
	}
}

// Send stores a message from senderID to recipientID in their shared room.
func (s *ChatService) Send(ctx context.Context, senderID, recipientID, content string) (*models.Message, error) {
	if err := required("userId", senderID); err != nil {
		return nil, err
	}
	if err := required("recipientId", recipientID); err != nil {
		return nil, err
	}
	if err := required("content", content); err != nil {
		return nil, err
	}

	senderID, recipientID = strings.TrimSpace(senderID), strings.TrimSpace(recipientID)
	message := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		RoomID:      models.RoomID(senderID, recipientID),
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	if err := s.messages.Create(sctx, message); err != nil {
		return nil, storeError(s.metrics, "create", "message", err)
	}

	s.metrics.RecordMessageSent()
	s.logger.Debug().Str("roomId", message.RoomID).Str("messageId", message.ID).Msg("Message sent")

	s.attachParticipants(ctx, message)
	return message, nil
}

// History returns the conversation between a and b in either direction, oldest first.
func (s *ChatService) History(ctx context.Context, a, b string) ([]*models.Message, error) {
	if err := required("senderId", a); err != nil {
		return nil, err
	}
	if err := required("recipientId", b); err != nil {
		return nil, err
	}

	sctx, cancel := storeCtx(ctx, s.storeTimeout)
	defer cancel()

	messages, err := s.messages.FindConversation(sctx, strings.TrimSpace(a), strings.TrimSpace(b))
	if err != nil {
		return nil, storeError(s.metrics, "list", "messages", err)
	}
	s.attachParticipants(ctx, messages...)
	return messages, nil
}

func (s *ChatService) attachParticipants(ctx context.Context, messages ...*models.Message) {
	if s.users == nil || len(messages) == 0 {
		return
	}
	ids := make([]string, 0, 2*len(messages))
	for _, m := range messages {
		ids = append(ids, m.SenderID, m.RecipientID)
	}
	displays := s.users.Resolve(ctx, ids)
	for _, m := range messages {
		m.Sender = displays[m.SenderID]
		m.Recipient = displays[m.RecipientID]
	}
}
