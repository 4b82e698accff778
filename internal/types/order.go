package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	PaymentMethodCOD   = "COD"
	PaymentMethodVNPay = "VNPAY"
)

type Order struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User          *User          `gorm:"constraint:OnDelete:SET NULL;foreignKey:UserID;references:ID" json:"-"`
	Code          string         `gorm:"uniqueIndex;not null;column:code" json:"code"`
	Status        string         `gorm:"not null;default:PENDING;column:status" json:"status"`
	TotalAmount   int64          `gorm:"not null;column:total_amount" json:"total_amount"`
	PaymentMethod string         `gorm:"not null;column:payment_method" json:"payment_method"`
	Shipping      datatypes.JSON `gorm:"type:jsonb;column:shipping" json:"shipping"`
	Items         []*OrderItem   `gorm:"foreignKey:OrderID;references:ID" json:"items,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string {
	return "order"
}

// OrderItem snapshots name and unit price at checkout time so later catalog
// edits do not rewrite order history.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	UnitPrice int64     `gorm:"not null;column:unit_price" json:"unit_price"`
	Quantity  int       `gorm:"not null;column:quantity" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "order_item"
}
