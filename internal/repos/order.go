package repos

import (
	"context"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, order *types.Order) (*types.Order, error)
	CreateItems(ctx context.Context, tx *gorm.DB, items []*types.OrderItem) ([]*types.OrderItem, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, orderIDs []uuid.UUID) ([]*types.Order, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Order, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status string) error
	GetItems(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.OrderItem, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

func (or *orderRepo) Create(ctx context.Context, tx *gorm.DB, order *types.Order) (*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	if err := transaction.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (or *orderRepo) CreateItems(ctx context.Context, tx *gorm.DB, items []*types.OrderItem) ([]*types.OrderItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	if len(items) == 0 {
		return []*types.OrderItem{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (or *orderRepo) GetByIDs(ctx context.Context, tx *gorm.DB, orderIDs []uuid.UUID) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	var results []*types.Order
	if len(orderIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Items").
		Where("id IN ?", orderIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (or *orderRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	var result types.Order
	err := transaction.WithContext(ctx).
		Preload("Items").
		Where("code = ?", code).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (or *orderRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var results []*types.Order
	if err := transaction.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (or *orderRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (or *orderRepo) GetItems(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.OrderItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	var results []*types.OrderItem
	if err := transaction.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
