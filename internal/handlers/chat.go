package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
)

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:         log.With("handler", "ChatHandler"),
		chatService: chatService,
	}
}

func (ch *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		ConversationID *uuid.UUID `json:"conversation_id"`
		Message        string     `json:"message"`
		Language       string     `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	reply, conversation, err := ch.chatService.SendMessage(c.Request.Context(), req.ConversationID, req.Message, req.Language)
	if err != nil {
		var unavailable *services.ChatUnavailableError
		if errors.As(err, &unavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{"message": unavailable.Message, "code": "assistant_unavailable"},
			})
			return
		}
		RespondError(c, http.StatusBadRequest, "send_message_failed", err)
		return
	}
	RespondOK(c, gin.H{"message": reply, "conversation": conversation})
}

func (ch *ChatHandler) ListConversations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	conversations, err := ch.chatService.ListConversations(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "load_conversations_failed", err)
		return
	}
	RespondOK(c, gin.H{"conversations": conversations})
}

func (ch *ChatHandler) GetMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	messages, total, err := ch.chatService.GetMessages(c.Request.Context(), conversationID, limit)
	if err != nil {
		RespondError(c, http.StatusNotFound, "conversation_not_found", err)
		return
	}
	RespondOK(c, gin.H{"messages": messages, "total": total})
}

func (ch *ChatHandler) DeleteConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ch.chatService.DeleteConversation(c.Request.Context(), conversationID); err != nil {
		RespondError(c, http.StatusNotFound, "conversation_not_found", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
