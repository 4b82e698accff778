package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

const maxCartQuantity = 99

type CartService interface {
	ListItems(ctx context.Context) ([]*types.CartItem, error)
	AddItem(ctx context.Context, productID uuid.UUID, quantity int) (*types.CartItem, error)
	UpdateItem(ctx context.Context, productID uuid.UUID, quantity int) (*types.CartItem, error)
	RemoveItem(ctx context.Context, productID uuid.UUID) error
	Clear(ctx context.Context) error
	// MergeGuestCart folds a guest session's cart into the user's cart after
	// login. Quantities for the same product are summed.
	MergeGuestCart(ctx context.Context, userID uuid.UUID, sessionID string) error
}

type cartService struct {
	db          *gorm.DB
	log         *logger.Logger
	cartRepo    repos.CartRepo
	productRepo repos.ProductRepo
}

func NewCartService(db *gorm.DB, baseLog *logger.Logger, cartRepo repos.CartRepo, productRepo repos.ProductRepo) CartService {
	return &cartService{
		db:          db,
		log:         baseLog.With("service", "CartService"),
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func cartOwnerFromContext(ctx context.Context) (repos.CartOwner, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || !rd.Identified() {
		return repos.CartOwner{}, fmt.Errorf("no user or session on request")
	}
	if rd.UserID != uuid.Nil {
		id := rd.UserID
		return repos.CartOwner{UserID: &id}, nil
	}
	return repos.CartOwner{SessionID: rd.SessionID}, nil
}

func (cs *cartService) ListItems(ctx context.Context) ([]*types.CartItem, error) {
	owner, err := cartOwnerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return cs.cartRepo.ListByOwner(ctx, nil, owner)
}

func (cs *cartService) AddItem(ctx context.Context, productID uuid.UUID, quantity int) (*types.CartItem, error) {
	owner, err := cartOwnerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	products, err := cs.productRepo.GetByIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if len(products) == 0 || !products[0].Active {
		return nil, fmt.Errorf("product not found")
	}
	product := products[0]

	var item *types.CartItem
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := cs.cartRepo.GetByOwnerAndProduct(ctx, tx, owner, productID)
		if err != nil {
			return fmt.Errorf("load cart item: %w", err)
		}
		total := quantity
		if existing != nil {
			total += existing.Quantity
		}
		if total > maxCartQuantity {
			total = maxCartQuantity
		}
		if total > product.Stock {
			return fmt.Errorf("only %d in stock", product.Stock)
		}
		if existing != nil {
			if err := cs.cartRepo.UpdateQuantity(ctx, tx, existing.ID, total); err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
			existing.Quantity = total
			item = existing
			return nil
		}
		created := &types.CartItem{
			ID:        uuid.New(),
			UserID:    owner.UserID,
			SessionID: owner.SessionID,
			ProductID: productID,
			Quantity:  total,
		}
		if _, err := cs.cartRepo.Create(ctx, tx, []*types.CartItem{created}); err != nil {
			return fmt.Errorf("create cart item: %w", err)
		}
		item = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

func (cs *cartService) UpdateItem(ctx context.Context, productID uuid.UUID, quantity int) (*types.CartItem, error) {
	owner, err := cartOwnerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	item, err := cs.cartRepo.GetByOwnerAndProduct(ctx, nil, owner, productID)
	if err != nil {
		return nil, fmt.Errorf("load cart item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("cart item not found")
	}
	if quantity < 1 {
		if err := cs.cartRepo.DeleteByIDs(ctx, nil, []uuid.UUID{item.ID}); err != nil {
			return nil, fmt.Errorf("remove cart item: %w", err)
		}
		return nil, nil
	}
	if quantity > maxCartQuantity {
		quantity = maxCartQuantity
	}
	products, err := cs.productRepo.GetByIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("product not found")
	}
	if quantity > products[0].Stock {
		return nil, fmt.Errorf("only %d in stock", products[0].Stock)
	}
	if err := cs.cartRepo.UpdateQuantity(ctx, nil, item.ID, quantity); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	item.Quantity = quantity
	item.Product = products[0]
	return item, nil
}

func (cs *cartService) RemoveItem(ctx context.Context, productID uuid.UUID) error {
	owner, err := cartOwnerFromContext(ctx)
	if err != nil {
		return err
	}
	item, err := cs.cartRepo.GetByOwnerAndProduct(ctx, nil, owner, productID)
	if err != nil {
		return fmt.Errorf("load cart item: %w", err)
	}
	if item == nil {
		return nil
	}
	return cs.cartRepo.DeleteByIDs(ctx, nil, []uuid.UUID{item.ID})
}

func (cs *cartService) Clear(ctx context.Context) error {
	owner, err := cartOwnerFromContext(ctx)
	if err != nil {
		return err
	}
	return cs.cartRepo.ClearOwner(ctx, nil, owner)
}

func (cs *cartService) MergeGuestCart(ctx context.Context, userID uuid.UUID, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	guest := repos.CartOwner{SessionID: sessionID}
	user := repos.CartOwner{UserID: &userID}

	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guestItems, err := cs.cartRepo.ListByOwner(ctx, tx, guest)
		if err != nil {
			return fmt.Errorf("load guest cart: %w", err)
		}
		if len(guestItems) == 0 {
			return nil
		}
		for _, gi := range guestItems {
			existing, err := cs.cartRepo.GetByOwnerAndProduct(ctx, tx, user, gi.ProductID)
			if err != nil {
				return fmt.Errorf("load user cart item: %w", err)
			}
			if existing != nil {
				total := existing.Quantity + gi.Quantity
				if total > maxCartQuantity {
					total = maxCartQuantity
				}
				if err := cs.cartRepo.UpdateQuantity(ctx, tx, existing.ID, total); err != nil {
					return fmt.Errorf("merge cart item: %w", err)
				}
				continue
			}
			moved := &types.CartItem{
				ID:        uuid.New(),
				UserID:    &userID,
				ProductID: gi.ProductID,
				Quantity:  gi.Quantity,
			}
			if _, err := cs.cartRepo.Create(ctx, tx, []*types.CartItem{moved}); err != nil {
				return fmt.Errorf("move cart item: %w", err)
			}
		}
		if err := cs.cartRepo.ClearOwner(ctx, tx, guest); err != nil {
			return fmt.Errorf("clear guest cart: %w", err)
		}
		return nil
	})
}
