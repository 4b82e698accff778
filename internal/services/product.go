package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/clients/redis"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

// ProductDetail aggregates a product with its recent reviews for the detail
// page.
type ProductDetail struct {
	Product *types.Product  `json:"product"`
	Reviews []*types.Review `json:"reviews"`
}

type ProductInput struct {
	CategoryID  uuid.UUID
	Name        string
	Brand       string
	Description string
	Price       int64
	Stock       int
	Specs       datatypes.JSON
}

type ProductService interface {
	List(ctx context.Context, filter repos.ProductFilter) ([]*types.Product, int64, error)
	GetDetail(ctx context.Context, slug string) (*ProductDetail, error)
	Create(ctx context.Context, input ProductInput) (*types.Product, error)
	Update(ctx context.Context, productID uuid.UUID, input ProductInput) (*types.Product, error)
	Delete(ctx context.Context, productID uuid.UUID) error
	UploadImage(ctx context.Context, productID uuid.UUID, filename string, file io.Reader) (*types.Product, error)
}

type productService struct {
	db           *gorm.DB
	log          *logger.Logger
	productRepo  repos.ProductRepo
	categoryRepo repos.CategoryRepo
	reviewRepo   repos.ReviewRepo
	cache        redis.Cache
	bucket       BucketService
}

func NewProductService(
	db *gorm.DB,
	baseLog *logger.Logger,
	productRepo repos.ProductRepo,
	categoryRepo repos.CategoryRepo,
	reviewRepo repos.ReviewRepo,
	cache redis.Cache,
	bucket BucketService,
) ProductService {
	return &productService{
		db:           db,
		log:          baseLog.With("service", "ProductService"),
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		reviewRepo:   reviewRepo,
		cache:        cache,
		bucket:       bucket,
	}
}

func productDetailCacheKey(slug string) string {
	return "catalog:product:" + slug
}

func (ps *productService) List(ctx context.Context, filter repos.ProductFilter) ([]*types.Product, int64, error) {
	filter.ActiveOnly = true
	return ps.productRepo.List(ctx, nil, filter)
}

func (ps *productService) GetDetail(ctx context.Context, slug string) (*ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("missing product slug")
	}

	if ps.cache != nil {
		var cached ProductDetail
		if ps.cache.GetJSON(ctx, productDetailCacheKey(slug), &cached) {
			return &cached, nil
		}
	}

	product, err := ps.productRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil || !product.Active {
		return nil, fmt.Errorf("product not found")
	}

	// reviews and the rating aggregate load concurrently with each other
	detail := &ProductDetail{Product: product}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reviews, err := ps.reviewRepo.ListByProduct(gctx, nil, product.ID, 10)
		if err != nil {
			return fmt.Errorf("load reviews: %w", err)
		}
		detail.Reviews = reviews
		return nil
	})
	g.Go(func() error {
		avg, count, err := ps.reviewRepo.Aggregate(gctx, nil, product.ID)
		if err != nil {
			return fmt.Errorf("load rating: %w", err)
		}
		detail.Product.RatingAvg = avg
		detail.Product.RatingCount = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if ps.cache != nil {
		ps.cache.SetJSON(ctx, productDetailCacheKey(slug), detail, 0)
	}
	return detail, nil
}

func (ps *productService) Create(ctx context.Context, input ProductInput) (*types.Product, error) {
	if err := ps.validateInput(ctx, input); err != nil {
		return nil, err
	}
	product := &types.Product{
		ID:          uuid.New(),
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Slug:        Slugify(input.Name),
		Brand:       strings.TrimSpace(input.Brand),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Specs:       input.Specs,
		Active:      true,
	}
	if _, err := ps.productRepo.Create(ctx, nil, []*types.Product{product}); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (ps *productService) Update(ctx context.Context, productID uuid.UUID, input ProductInput) (*types.Product, error) {
	products, err := ps.productRepo.GetByIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("product not found")
	}
	product := products[0]
	oldSlug := product.Slug

	if input.Name != "" {
		product.Name = strings.TrimSpace(input.Name)
		product.Slug = Slugify(input.Name)
	}
	if input.CategoryID != uuid.Nil {
		product.CategoryID = input.CategoryID
	}
	if input.Brand != "" {
		product.Brand = strings.TrimSpace(input.Brand)
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.Price > 0 {
		product.Price = input.Price
	}
	if input.Stock >= 0 {
		product.Stock = input.Stock
	}
	if len(input.Specs) > 0 {
		product.Specs = input.Specs
	}
	if err := ps.productRepo.Update(ctx, nil, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	ps.invalidate(ctx, oldSlug, product.Slug)
	return product, nil
}

func (ps *productService) Delete(ctx context.Context, productID uuid.UUID) error {
	products, err := ps.productRepo.GetByIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if len(products) == 0 {
		return fmt.Errorf("product not found")
	}
	product := products[0]
	// soft-disable instead of hard delete so order history keeps its FK
	product.Active = false
	if err := ps.productRepo.Update(ctx, nil, product); err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	ps.invalidate(ctx, product.Slug)
	return nil
}

func (ps *productService) UploadImage(ctx context.Context, productID uuid.UUID, filename string, file io.Reader) (*types.Product, error) {
	if ps.bucket == nil {
		return nil, fmt.Errorf("image storage not configured")
	}
	products, err := ps.productRepo.GetByIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("product not found")
	}
	product := products[0]
	key := fmt.Sprintf("products/%s/%s", product.ID, filename)
	if err := ps.bucket.UploadFile(ctx, key, file); err != nil {
		return nil, fmt.Errorf("upload product image: %w", err)
	}
	oldKey := product.ImageKey
	product.ImageKey = key
	product.ImageURL = ps.bucket.GetPublicURL(key)
	if err := ps.productRepo.Update(ctx, nil, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if oldKey != "" && oldKey != key {
		if err := ps.bucket.DeleteFile(ctx, oldKey); err != nil {
			ps.log.Warn("failed to delete old product image", "key", oldKey, "error", err)
		}
	}
	ps.invalidate(ctx, product.Slug)
	return product, nil
}

func (ps *productService) validateInput(ctx context.Context, input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("product name required")
	}
	if input.Price <= 0 {
		return fmt.Errorf("product price must be positive")
	}
	if input.Stock < 0 {
		return fmt.Errorf("product stock cannot be negative")
	}
	categories, err := ps.categoryRepo.GetByIDs(ctx, nil, []uuid.UUID{input.CategoryID})
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if len(categories) == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}

func (ps *productService) invalidate(ctx context.Context, slugs ...string) {
	if ps.cache == nil {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, productDetailCacheKey(s))
		}
	}
	ps.cache.Delete(ctx, keys...)
}
