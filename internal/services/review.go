package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/clients/redis"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

type ReviewService interface {
	// SubmitReview creates or replaces the caller's review for a product and
	// refreshes the product's stored rating aggregate in the same transaction.
	SubmitReview(ctx context.Context, productID uuid.UUID, rating int, comment string) (*types.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]*types.Review, error)
}

type reviewService struct {
	db          *gorm.DB
	log         *logger.Logger
	reviewRepo  repos.ReviewRepo
	productRepo repos.ProductRepo
	cache       redis.Cache
}

func NewReviewService(db *gorm.DB, baseLog *logger.Logger, reviewRepo repos.ReviewRepo, productRepo repos.ProductRepo, cache redis.Cache) ReviewService {
	return &reviewService{
		db:          db,
		log:         baseLog.With("service", "ReviewService"),
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		cache:       cache,
	}
}

func (rs *reviewService) SubmitReview(ctx context.Context, productID uuid.UUID, rating int, comment string) (*types.Review, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("authentication required")
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	products, err := rs.productRepo.GetByIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if len(products) == 0 || !products[0].Active {
		return nil, fmt.Errorf("product not found")
	}
	product := products[0]

	review := &types.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    rd.UserID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	}
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rs.reviewRepo.Upsert(ctx, tx, review); err != nil {
			return fmt.Errorf("save review: %w", err)
		}
		avg, count, err := rs.reviewRepo.Aggregate(ctx, tx, productID)
		if err != nil {
			return fmt.Errorf("aggregate rating: %w", err)
		}
		if err := rs.productRepo.SetRating(ctx, tx, productID, avg, count); err != nil {
			return fmt.Errorf("update product rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rs.cache != nil {
		rs.cache.Delete(ctx, productDetailCacheKey(product.Slug))
	}
	return review, nil
}

func (rs *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]*types.Review, error) {
	return rs.reviewRepo.ListByProduct(ctx, nil, productID, limit)
}
