package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

// ShippingInfo is stored on the order as a JSON snapshot.
type ShippingInfo struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Note     string `json:"note,omitempty"`
}

type CheckoutInput struct {
	PaymentMethod string
	Shipping      ShippingInfo
}

type OrderService interface {
	// Checkout converts the caller's cart into an order: snapshots names and
	// prices, decrements stock, and empties the cart in one transaction.
	Checkout(ctx context.Context, input CheckoutInput) (*types.Order, error)
	ListMine(ctx context.Context, limit int) ([]*types.Order, error)
	GetMine(ctx context.Context, orderID uuid.UUID) (*types.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*types.Order, error)
	// UpdateStatus is admin-only and enforces the forward transition chain
	// PENDING -> PROCESSING -> SHIPPED -> COMPLETED.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*types.Order, error)
}

type orderService struct {
	db          *gorm.DB
	log         *logger.Logger
	orderRepo   repos.OrderRepo
	cartRepo    repos.CartRepo
	productRepo repos.ProductRepo
}

func NewOrderService(
	db *gorm.DB,
	baseLog *logger.Logger,
	orderRepo repos.OrderRepo,
	cartRepo repos.CartRepo,
	productRepo repos.ProductRepo,
) OrderService {
	return &orderService{
		db:          db,
		log:         baseLog.With("service", "OrderService"),
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

var statusNext = map[string]string{
	types.OrderStatusPending:    types.OrderStatusProcessing,
	types.OrderStatusProcessing: types.OrderStatusShipped,
	types.OrderStatusShipped:    types.OrderStatusCompleted,
}

func generateOrderCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 1000000)
	}
	return fmt.Sprintf("ORD%s%06d", time.Now().Format("20060102"), n.Int64())
}

func (os *orderService) Checkout(ctx context.Context, input CheckoutInput) (*types.Order, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("authentication required")
	}
	if input.PaymentMethod != types.PaymentMethodCOD && input.PaymentMethod != types.PaymentMethodVNPay {
		return nil, fmt.Errorf("unsupported payment method %q", input.PaymentMethod)
	}
	if input.Shipping.FullName == "" || input.Shipping.Phone == "" || input.Shipping.Address == "" {
		return nil, fmt.Errorf("shipping name, phone and address are required")
	}

	userID := rd.UserID
	owner := repos.CartOwner{UserID: &userID}

	shippingJSON, err := json.Marshal(input.Shipping)
	if err != nil {
		return nil, fmt.Errorf("encode shipping: %w", err)
	}

	var order *types.Order
	err = os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartItems, err := os.cartRepo.ListByOwner(ctx, tx, owner)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(cartItems) == 0 {
			return fmt.Errorf("cart is empty")
		}

		productIDs := make([]uuid.UUID, 0, len(cartItems))
		for _, ci := range cartItems {
			productIDs = append(productIDs, ci.ProductID)
		}
		products, err := os.productRepo.GetByIDs(ctx, tx, productIDs)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		byID := make(map[uuid.UUID]*types.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		order = &types.Order{
			ID:            uuid.New(),
			UserID:        &userID,
			Code:          generateOrderCode(),
			Status:        types.OrderStatusPending,
			PaymentMethod: input.PaymentMethod,
			Shipping:      shippingJSON,
		}

		var total int64
		items := make([]*types.OrderItem, 0, len(cartItems))
		for _, ci := range cartItems {
			p, ok := byID[ci.ProductID]
			if !ok || !p.Active {
				return fmt.Errorf("product %s is no longer available", ci.ProductID)
			}
			if err := os.productRepo.AdjustStock(ctx, tx, p.ID, -ci.Quantity); err != nil {
				return fmt.Errorf("reserve stock for %s: %w", p.Name, err)
			}
			items = append(items, &types.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: p.ID,
				Name:      p.Name,
				UnitPrice: p.Price,
				Quantity:  ci.Quantity,
			})
			total += p.Price * int64(ci.Quantity)
		}
		order.TotalAmount = total

		if _, err := os.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if _, err := os.orderRepo.CreateItems(ctx, tx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		order.Items = items

		if err := os.cartRepo.ClearOwner(ctx, tx, owner); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	os.log.Info("order created", "order_id", order.ID, "code", order.Code, "total", order.TotalAmount)
	return order, nil
}

func (os *orderService) ListMine(ctx context.Context, limit int) ([]*types.Order, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("authentication required")
	}
	return os.orderRepo.ListByUser(ctx, nil, rd.UserID, limit)
}

func (os *orderService) GetMine(ctx context.Context, orderID uuid.UUID) (*types.Order, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("authentication required")
	}
	orders, err := os.orderRepo.GetByIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order not found")
	}
	order := orders[0]
	if !rd.IsAdmin && (order.UserID == nil || *order.UserID != rd.UserID) {
		return nil, fmt.Errorf("order not found")
	}
	return order, nil
}

// Cancel is allowed only while the order is still PENDING; stock reserved at
// checkout is returned.
func (os *orderService) Cancel(ctx context.Context, orderID uuid.UUID) (*types.Order, error) {
	order, err := os.GetMine(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != types.OrderStatusPending {
		return nil, fmt.Errorf("order %s cannot be cancelled from status %s", order.Code, order.Status)
	}
	err = os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := os.productRepo.AdjustStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restock %s: %w", item.Name, err)
			}
		}
		if err := os.orderRepo.UpdateStatus(ctx, tx, order.ID, types.OrderStatusCancelled); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = types.OrderStatusCancelled
	return order, nil
}

func (os *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*types.Order, error) {
	orders, err := os.orderRepo.GetByIDs(ctx, nil, []uuid.UUID{orderID})
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order not found")
	}
	order := orders[0]

	if status == types.OrderStatusCancelled {
		if order.Status != types.OrderStatusPending {
			return nil, fmt.Errorf("order %s cannot be cancelled from status %s", order.Code, order.Status)
		}
		err = os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, item := range order.Items {
				if err := os.productRepo.AdjustStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("restock %s: %w", item.Name, err)
				}
			}
			return os.orderRepo.UpdateStatus(ctx, tx, order.ID, types.OrderStatusCancelled)
		})
		if err != nil {
			return nil, err
		}
		order.Status = types.OrderStatusCancelled
		return order, nil
	}

	if statusNext[order.Status] != status {
		return nil, fmt.Errorf("invalid transition %s -> %s", order.Status, status)
	}
	if err := os.orderRepo.UpdateStatus(ctx, nil, order.ID, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	return order, nil
}
