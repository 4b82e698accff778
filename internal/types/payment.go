package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
	PaymentStatusFailed  = "FAILED"
)

// Payment transitions out of PENDING only on a signature-verified gateway
// callback. GatewayPayload keeps the raw callback params for auditing.
type Payment struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID         uuid.UUID      `gorm:"type:uuid;index;not null" json:"order_id"`
	Order           *Order         `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrderID;references:ID" json:"-"`
	TxnRef          string         `gorm:"uniqueIndex;not null;column:txn_ref" json:"txn_ref"`
	Amount          int64          `gorm:"not null;column:amount" json:"amount"`
	PaymentMethod   string         `gorm:"not null;column:payment_method" json:"payment_method"`
	PaymentStatus   string         `gorm:"not null;default:PENDING;column:payment_status" json:"payment_status"`
	TransactionNo   string         `gorm:"column:transaction_no" json:"transaction_no"`
	TransactionDate string         `gorm:"column:transaction_date" json:"transaction_date"`
	BankCode        string         `gorm:"column:bank_code" json:"bank_code"`
	GatewayPayload  datatypes.JSON `gorm:"type:jsonb;column:gateway_payload" json:"-"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payment"
}
