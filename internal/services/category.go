package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/clients/redis"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/db"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

const categoryListCacheKey = "catalog:categories"

type CategoryService interface {
	List(ctx context.Context) ([]*types.Category, error)
	Create(ctx context.Context, name, description string) (*types.Category, error)
	Update(ctx context.Context, categoryID uuid.UUID, name, description string) (*types.Category, error)
	Delete(ctx context.Context, categoryID uuid.UUID) error
}

type categoryService struct {
	db           *gorm.DB
	log          *logger.Logger
	categoryRepo repos.CategoryRepo
	productRepo  repos.ProductRepo
	cache        redis.Cache
}

func NewCategoryService(db *gorm.DB, baseLog *logger.Logger, categoryRepo repos.CategoryRepo, productRepo repos.ProductRepo, cache redis.Cache) CategoryService {
	return &categoryService{
		db:           db,
		log:          baseLog.With("service", "CategoryService"),
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        cache,
	}
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify folds Vietnamese diacritics, then collapses everything else to
// dash-separated ascii.
func Slugify(name string) string {
	norm := normalizeText(name)
	slug := slugCleanRe.ReplaceAllString(norm, "-")
	return strings.Trim(slug, "-")
}

func (cs *categoryService) List(ctx context.Context) ([]*types.Category, error) {
	if cs.cache != nil {
		var cached []*types.Category
		if cs.cache.GetJSON(ctx, categoryListCacheKey, &cached) {
			return cached, nil
		}
	}
	categories, err := cs.categoryRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if cs.cache != nil {
		cs.cache.SetJSON(ctx, categoryListCacheKey, categories, 0)
	}
	return categories, nil
}

func (cs *categoryService) Create(ctx context.Context, name, description string) (*types.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name required")
	}
	category := &types.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
	}
	if _, err := cs.categoryRepo.Create(ctx, nil, []*types.Category{category}); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("category %q already exists", name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	cs.invalidate(ctx)
	return category, nil
}

func (cs *categoryService) Update(ctx context.Context, categoryID uuid.UUID, name, description string) (*types.Category, error) {
	categories, err := cs.categoryRepo.GetByIDs(ctx, nil, []uuid.UUID{categoryID})
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("category not found")
	}
	category := categories[0]
	if name = strings.TrimSpace(name); name != "" {
		category.Name = name
		category.Slug = Slugify(name)
	}
	if description != "" {
		category.Description = description
	}
	if err := cs.categoryRepo.Update(ctx, nil, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	cs.invalidate(ctx)
	return category, nil
}

func (cs *categoryService) Delete(ctx context.Context, categoryID uuid.UUID) error {
	// refuse to delete a category that still has products
	cid := categoryID
	_, total, err := cs.productRepo.List(ctx, nil, repos.ProductFilter{CategoryID: &cid, PageSize: 1})
	if err != nil {
		return fmt.Errorf("check category products: %w", err)
	}
	if total > 0 {
		return fmt.Errorf("category still has %d products", total)
	}
	if err := cs.categoryRepo.DeleteByIDs(ctx, nil, []uuid.UUID{categoryID}); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	cs.invalidate(ctx)
	return nil
}

func (cs *categoryService) invalidate(ctx context.Context) {
	if cs.cache != nil {
		cs.cache.Delete(ctx, categoryListCacheKey)
	}
}
