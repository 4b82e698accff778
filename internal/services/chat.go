package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

const (
	maxClarifyTurns = 2
	historyWindow   = 12
	titleMaxRunes   = 40
)

// ChatUnavailableError carries the user-facing text for a failed AI call.
// The raw cause is logged, never returned to the client.
type ChatUnavailableError struct {
	Message string
}

func (e *ChatUnavailableError) Error() string {
	return e.Message
}

type ChatService interface {
	// SendMessage runs one clarification turn: the user message is persisted
	// first, then either a canned clarify/fallback reply or the AI reply is
	// persisted and returned.
	SendMessage(ctx context.Context, conversationID *uuid.UUID, message, language string) (*types.ChatMessage, *types.ChatConversation, error)
	ListConversations(ctx context.Context, limit int) ([]*types.ChatConversation, error)
	// GetMessages returns up to limit messages oldest-first plus the total
	// count in the conversation, so clients can tell a short conversation from
	// a truncated page.
	GetMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*types.ChatMessage, int64, error)
	DeleteConversation(ctx context.Context, conversationID uuid.UUID) error
}

type chatService struct {
	db        *gorm.DB
	log       *logger.Logger
	convRepo  repos.ChatConversationRepo
	msgRepo   repos.ChatMessageRepo
	aiClient  AIClient
	templates ClarifyTemplates
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	convRepo repos.ChatConversationRepo,
	msgRepo repos.ChatMessageRepo,
	aiClient AIClient,
	templates ClarifyTemplates,
) ChatService {
	return &chatService{
		db:        db,
		log:       baseLog.With("service", "ChatService"),
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		aiClient:  aiClient,
		templates: templates,
	}
}

func chatOwnerFromContext(ctx context.Context) (repos.ChatOwner, error) {
	rd := requestdata.GetRequestData(ctx)
	if !rd.Identified() {
		return repos.ChatOwner{}, fmt.Errorf("not authenticated and no session id")
	}
	if rd.UserID != uuid.Nil {
		id := rd.UserID
		return repos.ChatOwner{UserID: &id}, nil
	}
	return repos.ChatOwner{SessionID: rd.SessionID}, nil
}

func (cs *chatService) ownsConversation(owner repos.ChatOwner, conv *types.ChatConversation) bool {
	if conv == nil {
		return false
	}
	if owner.UserID != nil {
		return conv.UserID != nil && *conv.UserID == *owner.UserID
	}
	return conv.SessionID != "" && conv.SessionID == owner.SessionID
}

func truncateTitle(message string) string {
	runes := []rune(strings.TrimSpace(message))
	if len(runes) <= titleMaxRunes {
		return string(runes)
	}
	return string(runes[:titleMaxRunes]) + "…"
}

func (cs *chatService) SendMessage(ctx context.Context, conversationID *uuid.UUID, message, language string) (*types.ChatMessage, *types.ChatConversation, error) {
	owner, err := chatOwnerFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, nil, fmt.Errorf("empty message")
	}

	var conv *types.ChatConversation
	if conversationID != nil && *conversationID != uuid.Nil {
		conv, err = cs.convRepo.GetByID(ctx, nil, *conversationID)
		if err != nil {
			return nil, nil, fmt.Errorf("load conversation: %w", err)
		}
		if !cs.ownsConversation(owner, conv) {
			return nil, nil, fmt.Errorf("conversation not found")
		}
	} else {
		conv = &types.ChatConversation{
			ID:        uuid.New(),
			UserID:    owner.UserID,
			SessionID: owner.SessionID,
		}
		if _, err := cs.convRepo.Create(ctx, nil, conv); err != nil {
			return nil, nil, fmt.Errorf("create conversation: %w", err)
		}
	}

	lang := detectLanguage(message, language)
	sig := extractSignals(message)
	ambiguous := isAmbiguous(message, sig)

	// fresh count at the start of the turn; concurrent turns on the same
	// conversation may race this read (see DESIGN.md)
	clarifyCount, err := cs.msgRepo.CountAssistantByIntent(ctx, nil, conv.ID, types.ChatIntentClarify)
	if err != nil {
		return nil, nil, fmt.Errorf("count clarify turns: %w", err)
	}

	if ambiguous {
		reply, err := cs.handleAmbiguous(ctx, conv, message, lang, sig, clarifyCount)
		if err != nil {
			return nil, nil, err
		}
		return reply, conv, nil
	}
	reply, err := cs.handleForward(ctx, conv, message, lang)
	if err != nil {
		return nil, nil, err
	}
	return reply, conv, nil
}

func (cs *chatService) handleAmbiguous(ctx context.Context, conv *types.ChatConversation, message, lang string, sig clarifySignals, clarifyCount int64) (*types.ChatMessage, error) {
	var replyText, replyIntent string
	if clarifyCount >= maxClarifyTurns {
		replyText = cs.templates.fallback(lang)
		replyIntent = types.ChatIntentFallback
	} else {
		replyText = cs.templates.buildClarify(lang, detectIntentHint(message), sig)
		replyIntent = types.ChatIntentClarify
	}

	var reply *types.ChatMessage
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		userMsg := &types.ChatMessage{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           types.ChatRoleUser,
			Content:        message,
			Language:       lang,
			IsAmbiguous:    true,
			Intent:         types.ChatIntentNeedClarify,
			CreatedAt:      now,
		}
		if _, err := cs.msgRepo.Create(ctx, tx, []*types.ChatMessage{userMsg}); err != nil {
			return fmt.Errorf("persist user message: %w", err)
		}
		reply = &types.ChatMessage{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           types.ChatRoleAssistant,
			Content:        replyText,
			Language:       lang,
			Intent:         replyIntent,
			CreatedAt:      now.Add(time.Millisecond),
		}
		if _, err := cs.msgRepo.Create(ctx, tx, []*types.ChatMessage{reply}); err != nil {
			return fmt.Errorf("persist assistant message: %w", err)
		}
		if err := cs.setTitleOnce(ctx, tx, conv, message); err != nil {
			return err
		}
		return cs.convRepo.Touch(ctx, tx, conv.ID)
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (cs *chatService) handleForward(ctx context.Context, conv *types.ChatConversation, message, lang string) (*types.ChatMessage, error) {
	// the user message must be durable before the AI reply is computed so the
	// next turn's history read always includes it
	userMsg := &types.ChatMessage{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           types.ChatRoleUser,
		Content:        message,
		Language:       lang,
		CreatedAt:      time.Now(),
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.msgRepo.Create(ctx, tx, []*types.ChatMessage{userMsg}); err != nil {
			return fmt.Errorf("persist user message: %w", err)
		}
		return cs.setTitleOnce(ctx, tx, conv, message)
	})
	if err != nil {
		return nil, err
	}

	history, err := cs.msgRepo.ListRecent(ctx, nil, conv.ID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	// ListRecent now includes the message persisted above; the client appends
	// the current message itself, so strip it from the history or the model
	// would see it twice
	if n := len(history); n > 0 && history[n-1].ID == userMsg.ID {
		history = history[:n-1]
	}

	replyText, err := cs.aiClient.Generate(ctx, message, history, lang)
	if err != nil {
		cs.log.Error("AI generation failed", "conversation_id", conv.ID, "error", err)
		return nil, &ChatUnavailableError{Message: cs.unavailableMessage(err, lang)}
	}

	reply := &types.ChatMessage{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           types.ChatRoleAssistant,
		Content:        replyText,
		Language:       lang,
		CreatedAt:      time.Now(),
	}
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.msgRepo.Create(ctx, tx, []*types.ChatMessage{reply}); err != nil {
			return fmt.Errorf("persist assistant message: %w", err)
		}
		return cs.convRepo.Touch(ctx, tx, conv.ID)
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (cs *chatService) setTitleOnce(ctx context.Context, tx *gorm.DB, conv *types.ChatConversation, message string) error {
	if conv.Title != "" {
		return nil
	}
	title := truncateTitle(message)
	if err := cs.convRepo.SetTitle(ctx, tx, conv.ID, title); err != nil {
		return fmt.Errorf("set conversation title: %w", err)
	}
	conv.Title = title
	return nil
}

func (cs *chatService) unavailableMessage(err error, lang string) string {
	vi := lang != "en"
	switch {
	case errors.Is(err, ErrAIMissingCredentials):
		if vi {
			return "Trợ lý AI chưa được cấu hình. Vui lòng thử lại sau."
		}
		return "The AI assistant is not configured. Please try again later."
	case errors.Is(err, ErrAIQuotaExceeded):
		if vi {
			return "Trợ lý AI đang quá tải. Vui lòng thử lại sau ít phút."
		}
		return "The AI assistant is over capacity. Please try again in a few minutes."
	default:
		if vi {
			return "Trợ lý AI tạm thời gián đoạn. Vui lòng thử lại sau."
		}
		return "The AI assistant is temporarily unavailable. Please try again later."
	}
}

func (cs *chatService) ListConversations(ctx context.Context, limit int) ([]*types.ChatConversation, error) {
	owner, err := chatOwnerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return cs.convRepo.ListByOwner(ctx, nil, owner, limit)
}

func (cs *chatService) GetMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*types.ChatMessage, int64, error) {
	owner, err := chatOwnerFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	conv, err := cs.convRepo.GetByID(ctx, nil, conversationID)
	if err != nil {
		return nil, 0, fmt.Errorf("load conversation: %w", err)
	}
	if !cs.ownsConversation(owner, conv) {
		return nil, 0, fmt.Errorf("conversation not found")
	}
	messages, err := cs.msgRepo.ListByConversation(ctx, nil, conversationID, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := cs.msgRepo.CountByConversation(ctx, nil, conversationID)
	if err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	return messages, total, nil
}

func (cs *chatService) DeleteConversation(ctx context.Context, conversationID uuid.UUID) error {
	owner, err := chatOwnerFromContext(ctx)
	if err != nil {
		return err
	}
	conv, err := cs.convRepo.GetByID(ctx, nil, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if !cs.ownsConversation(owner, conv) {
		return fmt.Errorf("conversation not found")
	}
	return cs.convRepo.DeleteByIDs(ctx, nil, []uuid.UUID{conversationID})
}
