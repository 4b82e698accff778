package repos

import (
	"context"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, payments []*types.Payment) ([]*types.Payment, error)
	GetByTxnRef(ctx context.Context, tx *gorm.DB, txnRef string) (*types.Payment, error)
	GetByOrderIDs(ctx context.Context, tx *gorm.DB, orderIDs []uuid.UUID) ([]*types.Payment, error)
	Update(ctx context.Context, tx *gorm.DB, payment *types.Payment) error
}

type paymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return &paymentRepo{db: db, log: baseLog.With("repo", "PaymentRepo")}
}

func (pr *paymentRepo) Create(ctx context.Context, tx *gorm.DB, payments []*types.Payment) ([]*types.Payment, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(payments) == 0 {
		return []*types.Payment{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (pr *paymentRepo) GetByTxnRef(ctx context.Context, tx *gorm.DB, txnRef string) (*types.Payment, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.Payment
	err := transaction.WithContext(ctx).
		Where("txn_ref = ?", txnRef).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *paymentRepo) GetByOrderIDs(ctx context.Context, tx *gorm.DB, orderIDs []uuid.UUID) ([]*types.Payment, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Payment
	if len(orderIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *paymentRepo) Update(ctx context.Context, tx *gorm.DB, payment *types.Payment) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Save(payment).Error
}
