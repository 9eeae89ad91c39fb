package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/campus-connect-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatHandler struct {
	responder Responder
	logger    zerolog.Logger
	chat      *services.ChatService
}

func newChatHandler(chat *services.ChatService) chatHandler {
	logger := log.With().Str("handlerName", "chatHandler").Logger()

	return chatHandler{
		responder: NewResponder(logger),
		logger:    logger,
		chat:      chat,
	}
}

// getHistory returns the conversation between the sender and the recipient
// @Summary Conversation history
// @Description Messages exchanged in either direction, oldest first
// @Tags Chats
// @Produce json
// @Param recipientId path string true "Other participant"
// @Param senderId query string true "Caller, overridden by a verified token"
// @Success 200 {array} models.Message "Messages"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing senderId"
// @Router /api/chats/{recipientId} [get]
func (h chatHandler) getHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID := callerID(r, r.URL.Query().Get("senderId"))

		messages, err := h.chat.History(r.Context(), senderID, chi.URLParam(r, "recipientId"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, messages)
	}
}

// sendMessage stores a direct message
// @Summary Send message
// @Tags Chats
// @Accept json
// @Produce json
// @Param body body MessageRequest true "Message"
// @Success 201 {object} models.Message "Stored message"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing recipientId, content or userId"
// @Router /api/chats [post]
func (h chatHandler) sendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MessageRequest
		if err := decodeJSON(w, r, "message", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message, err := h.chat.Send(r.Context(), callerID(r, req.UserID), req.RecipientID, req.Content)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, message)
	}
}
