package repos

import (
	"context"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepo interface {
	// Upsert inserts the review or, if the (product,user) pair already has
	// one, overwrites rating and comment.
	Upsert(ctx context.Context, tx *gorm.DB, review *types.Review) error
	ListByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, limit int) ([]*types.Review, error)
	Aggregate(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (float64, int, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, reviewIDs []uuid.UUID) error
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (rr *reviewRepo) Upsert(ctx context.Context, tx *gorm.DB, review *types.Review) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).
		Create(review).Error
}

func (rr *reviewRepo) ListByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, limit int) ([]*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var results []*types.Review
	if err := transaction.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *reviewRepo) Aggregate(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (float64, int, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var row struct {
		Avg   float64
		Count int64
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Avg, int(row.Count), nil
}

func (rr *reviewRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, reviewIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(reviewIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", reviewIDs).
		Delete(&types.Review{}).Error
}
