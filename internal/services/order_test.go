package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos/testutil"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

type orderFixture struct {
	db          *gorm.DB
	svc         OrderService
	cartSvc     CartService
	productRepo repos.ProductRepo
	cartRepo    repos.CartRepo
	user        *types.User
	product     *types.Product
	ctx         context.Context
}

func newOrderFixture(t *testing.T, stock int) *orderFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, db, "buyer@example.com")
	category := testutil.SeedCategory(t, ctx, db, "dien-thoai")
	product := testutil.SeedProduct(t, ctx, db, category.ID, "galaxy-a55", 8_000_000, stock)

	productRepo := repos.NewProductRepo(db, log)
	cartRepo := repos.NewCartRepo(db, log)
	orderRepo := repos.NewOrderRepo(db, log)

	f := &orderFixture{
		db:          db,
		svc:         NewOrderService(db, log, orderRepo, cartRepo, productRepo),
		cartSvc:     NewCartService(db, log, cartRepo, productRepo),
		productRepo: productRepo,
		cartRepo:    cartRepo,
		user:        user,
		product:     product,
		ctx:         requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: user.ID}),
	}
	return f
}

func (f *orderFixture) addToCart(t *testing.T, quantity int) {
	t.Helper()
	if _, err := f.cartSvc.AddItem(f.ctx, f.product.ID, quantity); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
}

func (f *orderFixture) currentStock(t *testing.T) int {
	t.Helper()
	products, err := f.productRepo.GetByIDs(f.ctx, nil, []uuid.UUID{f.product.ID})
	if err != nil || len(products) == 0 {
		t.Fatalf("reload product: %v", err)
	}
	return products[0].Stock
}

var testShipping = ShippingInfo{FullName: "Nguyen Van A", Phone: "0900000001", Address: "1 Le Loi, Q1, HCM"}

func TestCheckoutSnapshotsCartAndDecrementsStock(t *testing.T) {
	f := newOrderFixture(t, 5)
	f.addToCart(t, 2)

	order, err := f.svc.Checkout(f.ctx, CheckoutInput{PaymentMethod: types.PaymentMethodCOD, Shipping: testShipping})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if order.Status != types.OrderStatusPending {
		t.Errorf("order status = %q, want PENDING", order.Status)
	}
	if order.TotalAmount != 16_000_000 {
		t.Errorf("total = %d, want 16000000", order.TotalAmount)
	}
	if len(order.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(order.Items))
	}
	item := order.Items[0]
	if item.Name != f.product.Name || item.UnitPrice != f.product.Price || item.Quantity != 2 {
		t.Errorf("item snapshot = %q/%d/%d, want %q/%d/2", item.Name, item.UnitPrice, item.Quantity, f.product.Name, f.product.Price)
	}
	if got := f.currentStock(t); got != 3 {
		t.Errorf("stock after checkout = %d, want 3", got)
	}
	items, err := f.cartSvc.ListItems(f.ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("cart still has %d items after checkout", len(items))
	}

	// the snapshot survives later catalog edits
	f.product.Price = 9_000_000
	if err := f.productRepo.Update(f.ctx, nil, f.product); err != nil {
		t.Fatalf("update product: %v", err)
	}
	reloaded, err := f.svc.GetMine(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetMine: %v", err)
	}
	if reloaded.Items[0].UnitPrice != 8_000_000 {
		t.Errorf("snapshot price = %d, want 8000000", reloaded.Items[0].UnitPrice)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := newOrderFixture(t, 3)
	f.addToCart(t, 3)

	// stock drops between add-to-cart and checkout
	if err := f.productRepo.AdjustStock(f.ctx, nil, f.product.ID, -2); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}

	if _, err := f.svc.Checkout(f.ctx, CheckoutInput{PaymentMethod: types.PaymentMethodCOD, Shipping: testShipping}); err == nil {
		t.Fatal("Checkout succeeded with insufficient stock")
	}
	if got := f.currentStock(t); got != 1 {
		t.Errorf("stock after failed checkout = %d, want 1", got)
	}
	items, err := f.cartSvc.ListItems(f.ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("cart should be untouched after failed checkout, got %d items", len(items))
	}
	orders, err := f.svc.ListMine(f.ctx, 0)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("got %d orders after failed checkout, want 0", len(orders))
	}
}

func TestCheckoutValidation(t *testing.T) {
	f := newOrderFixture(t, 5)

	if _, err := f.svc.Checkout(f.ctx, CheckoutInput{PaymentMethod: types.PaymentMethodCOD, Shipping: testShipping}); err == nil {
		t.Error("empty cart checkout succeeded")
	}

	f.addToCart(t, 1)
	if _, err := f.svc.Checkout(f.ctx, CheckoutInput{PaymentMethod: "BITCOIN", Shipping: testShipping}); err == nil {
		t.Error("unknown payment method accepted")
	}
	if _, err := f.svc.Checkout(f.ctx, CheckoutInput{PaymentMethod: types.PaymentMethodCOD}); err == nil {
		t.Error("missing shipping accepted")
	}

	guestCtx := context.Background()
	if _, err := f.svc.Checkout(guestCtx, CheckoutInput{PaymentMethod: types.PaymentMethodCOD, Shipping: testShipping}); err == nil {
		t.Error("unauthenticated checkout accepted")
	}
}

func TestCancelPendingRestocks(t *testing.T) {
	f := newOrderFixture(t, 5)
	f.addToCart(t, 2)

	order, err := f.svc.Checkout(f.ctx, CheckoutInput{PaymentMethod: types.PaymentMethodCOD, Shipping: testShipping})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	cancelled, err := f.svc.Cancel(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != types.OrderStatusCancelled {
		t.Errorf("status = %q, want CANCELLED", cancelled.Status)
	}
	if got := f.currentStock(t); got != 5 {
		t.Errorf("stock after cancel = %d, want 5", got)
	}

	// cancel is only allowed out of PENDING
	if _, err := f.svc.Cancel(f.ctx, order.ID); err == nil {
		t.Error("second cancel succeeded")
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newOrderFixture(t, 5)
	f.addToCart(t, 1)
	order, err := f.svc.Checkout(f.ctx, CheckoutInput{PaymentMethod: types.PaymentMethodCOD, Shipping: testShipping})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if _, err := f.svc.UpdateStatus(f.ctx, order.ID, types.OrderStatusShipped); err == nil {
		t.Error("PENDING -> SHIPPED accepted")
	}
	for _, status := range []string{types.OrderStatusProcessing, types.OrderStatusShipped, types.OrderStatusCompleted} {
		updated, err := f.svc.UpdateStatus(f.ctx, order.ID, status)
		if err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
		if updated.Status != status {
			t.Errorf("status = %q, want %q", updated.Status, status)
		}
	}
	if _, err := f.svc.UpdateStatus(f.ctx, order.ID, types.OrderStatusCancelled); err == nil {
		t.Error("cancel of COMPLETED order accepted")
	}
}

func TestGetMineHidesOtherUsersOrders(t *testing.T) {
	f := newOrderFixture(t, 5)
	f.addToCart(t, 1)
	order, err := f.svc.Checkout(f.ctx, CheckoutInput{PaymentMethod: types.PaymentMethodCOD, Shipping: testShipping})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	other := testutil.SeedUser(t, context.Background(), f.db, "other@example.com")
	otherCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: other.ID})
	if _, err := f.svc.GetMine(otherCtx, order.ID); err == nil {
		t.Error("other user can read the order")
	}

	adminCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: other.ID, IsAdmin: true})
	if _, err := f.svc.GetMine(adminCtx, order.ID); err != nil {
		t.Errorf("admin read failed: %v", err)
	}
}
