package repos

import (
	"context"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"time"
)

// ChatOwner mirrors CartOwner: conversations belong to a user or a session.
type ChatOwner struct {
	UserID    *uuid.UUID
	SessionID string
}

func (o ChatOwner) apply(q *gorm.DB) *gorm.DB {
	if o.UserID != nil {
		return q.Where("user_id = ?", *o.UserID)
	}
	return q.Where("session_id = ?", o.SessionID)
}

type ChatConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, conv *types.ChatConversation) (*types.ChatConversation, error)
	GetByID(ctx context.Context, tx *gorm.DB, convID uuid.UUID) (*types.ChatConversation, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, owner ChatOwner, limit int) ([]*types.ChatConversation, error)
	SetTitle(ctx context.Context, tx *gorm.DB, convID uuid.UUID, title string) error
	Touch(ctx context.Context, tx *gorm.DB, convID uuid.UUID) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, convIDs []uuid.UUID) error
}

type chatConversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatConversationRepo(db *gorm.DB, baseLog *logger.Logger) ChatConversationRepo {
	return &chatConversationRepo{db: db, log: baseLog.With("repo", "ChatConversationRepo")}
}

func (cr *chatConversationRepo) Create(ctx context.Context, tx *gorm.DB, conv *types.ChatConversation) (*types.ChatConversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

func (cr *chatConversationRepo) GetByID(ctx context.Context, tx *gorm.DB, convID uuid.UUID) (*types.ChatConversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.ChatConversation
	err := transaction.WithContext(ctx).
		Where("id = ?", convID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *chatConversationRepo) ListByOwner(ctx context.Context, tx *gorm.DB, owner ChatOwner, limit int) ([]*types.ChatConversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var results []*types.ChatConversation
	q := owner.apply(transaction.WithContext(ctx))
	if err := q.Order("updated_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatConversationRepo) SetTitle(ctx context.Context, tx *gorm.DB, convID uuid.UUID, title string) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ChatConversation{}).
		Where("id = ?", convID).
		Update("title", title).Error
}

func (cr *chatConversationRepo) Touch(ctx context.Context, tx *gorm.DB, convID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ChatConversation{}).
		Where("id = ?", convID).
		Update("updated_at", time.Now()).Error
}

func (cr *chatConversationRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, convIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(convIDs) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).
		Where("conversation_id IN ?", convIDs).
		Delete(&types.ChatMessage{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", convIDs).
		Delete(&types.ChatConversation{}).Error
}

type ChatMessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error)
	// ListRecent returns the last `limit` messages of the conversation in
	// oldest-first order, ready to be used as AI context.
	ListRecent(ctx context.Context, tx *gorm.DB, convID uuid.UUID, limit int) ([]*types.ChatMessage, error)
	ListByConversation(ctx context.Context, tx *gorm.DB, convID uuid.UUID, limit int) ([]*types.ChatMessage, error)
	CountAssistantByIntent(ctx context.Context, tx *gorm.DB, convID uuid.UUID, intent string) (int64, error)
	CountByConversation(ctx context.Context, tx *gorm.DB, convID uuid.UUID) (int64, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (mr *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(messages) == 0 {
		return []*types.ChatMessage{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (mr *chatMessageRepo) ListRecent(ctx context.Context, tx *gorm.DB, convID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if limit <= 0 {
		limit = 12
	}
	var newestFirst []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC").
		Limit(limit).
		Find(&newestFirst).Error; err != nil {
		return nil, err
	}
	// reverse into oldest-first
	oldestFirst := make([]*types.ChatMessage, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		oldestFirst = append(oldestFirst, newestFirst[i])
	}
	return oldestFirst, nil
}

func (mr *chatMessageRepo) ListByConversation(ctx context.Context, tx *gorm.DB, convID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var results []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *chatMessageRepo) CountAssistantByIntent(ctx context.Context, tx *gorm.DB, convID uuid.UUID, intent string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Where("conversation_id = ? AND role = ? AND intent = ?", convID, types.ChatRoleAssistant, intent).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (mr *chatMessageRepo) CountByConversation(ctx context.Context, tx *gorm.DB, convID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Where("conversation_id = ?", convID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
