package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

// Product prices are stored in VND, which has no minor unit, so int64 is exact.
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  uuid.UUID      `gorm:"type:uuid;index;not null" json:"category_id"`
	Category    *Category      `gorm:"constraint:OnDelete:RESTRICT;foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Brand       string         `gorm:"index;column:brand" json:"brand"`
	Description string         `gorm:"type:text;column:description" json:"description"`
	Price       int64          `gorm:"not null;column:price" json:"price"`
	Stock       int            `gorm:"not null;default:0;column:stock" json:"stock"`
	ImageKey    string         `gorm:"column:image_key" json:"image_key"`
	ImageURL    string         `gorm:"column:image_url" json:"image_url"`
	Specs       datatypes.JSON `gorm:"type:jsonb" json:"specs,omitempty"`
	RatingAvg   float64        `gorm:"not null;default:0;column:rating_avg" json:"rating_avg"`
	RatingCount int            `gorm:"not null;default:0;column:rating_count" json:"rating_count"`
	Active      bool           `gorm:"not null;default:true;column:active" json:"active"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
