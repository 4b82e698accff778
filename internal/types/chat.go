package types

import (
	"github.com/google/uuid"
	"time"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// Message intents written by the clarification engine.
const (
	ChatIntentNeedClarify   = "need_clarify"
	ChatIntentClarify       = "clarify"
	ChatIntentFallback      = "fallback"
	ChatIntentUnknown       = "unknown"
	ChatIntentPolicy        = "policy"
	ChatIntentCompare       = "compare"
	ChatIntentProductAdvice = "product_advice"
	ChatIntentOther         = "other"
)

// ChatConversation is owned by either a user or a guest session; exactly one
// of UserID/SessionID is set. Title is written once, from the first user
// message (truncated to 40 chars).
type ChatConversation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	SessionID string     `gorm:"index;column:session_id" json:"session_id,omitempty"`
	Title     string     `gorm:"not null;column:title" json:"title"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (ChatConversation) TableName() string {
	return "chat_conversation"
}

// ChatMessage rows are append-only; a message is never edited after insert.
type ChatMessage struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID         `gorm:"type:uuid;index;not null" json:"conversation_id"`
	Conversation   *ChatConversation `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"-"`
	Role           string            `gorm:"not null;column:role" json:"role"`
	Content        string            `gorm:"type:text;not null;column:content" json:"content"`
	Language       string            `gorm:"column:language" json:"language,omitempty"`
	IsAmbiguous    bool              `gorm:"not null;default:false;column:is_ambiguous" json:"is_ambiguous"`
	Intent         string            `gorm:"index;column:intent" json:"intent,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;index" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_message"
}
