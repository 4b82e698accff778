package types

import (
	"github.com/google/uuid"
	"time"
)

// CartItem belongs either to an authenticated user (UserID set) or to a
// guest session (SessionID set). Exactly one of the two identifies the cart.
type CartItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	SessionID string     `gorm:"index;column:session_id" json:"session_id,omitempty"`
	ProductID uuid.UUID  `gorm:"type:uuid;index;not null" json:"product_id"`
	Product   *Product   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Quantity  int        `gorm:"not null;column:quantity" json:"quantity"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_item"
}
