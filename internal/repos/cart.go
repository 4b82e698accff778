package repos

import (
	"context"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartOwner selects the cart rows of one owner: a user or a guest session.
type CartOwner struct {
	UserID    *uuid.UUID
	SessionID string
}

func (o CartOwner) apply(q *gorm.DB) *gorm.DB {
	if o.UserID != nil {
		return q.Where("user_id = ?", *o.UserID)
	}
	return q.Where("session_id = ?", o.SessionID)
}

type CartRepo interface {
	ListByOwner(ctx context.Context, tx *gorm.DB, owner CartOwner) ([]*types.CartItem, error)
	GetByOwnerAndProduct(ctx context.Context, tx *gorm.DB, owner CartOwner, productID uuid.UUID) (*types.CartItem, error)
	Create(ctx context.Context, tx *gorm.DB, items []*types.CartItem) ([]*types.CartItem, error)
	UpdateQuantity(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, quantity int) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) error
	ClearOwner(ctx context.Context, tx *gorm.DB, owner CartOwner) error
}

type cartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo {
	return &cartRepo{db: db, log: baseLog.With("repo", "CartRepo")}
}

func (cr *cartRepo) ListByOwner(ctx context.Context, tx *gorm.DB, owner CartOwner) ([]*types.CartItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.CartItem
	q := owner.apply(transaction.WithContext(ctx).Preload("Product"))
	if err := q.Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *cartRepo) GetByOwnerAndProduct(ctx context.Context, tx *gorm.DB, owner CartOwner, productID uuid.UUID) (*types.CartItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.CartItem
	q := owner.apply(transaction.WithContext(ctx)).Where("product_id = ?", productID)
	err := q.First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *cartRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.CartItem) ([]*types.CartItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(items) == 0 {
		return []*types.CartItem{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (cr *cartRepo) UpdateQuantity(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, quantity int) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (cr *cartRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(itemIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", itemIDs).
		Delete(&types.CartItem{}).Error
}

func (cr *cartRepo) ClearOwner(ctx context.Context, tx *gorm.DB, owner CartOwner) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return owner.apply(transaction.WithContext(ctx)).Delete(&types.CartItem{}).Error
}
