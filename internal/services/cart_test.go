package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos/testutil"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

type cartFixture struct {
	db      *gorm.DB
	svc     CartService
	product *types.Product
	second  *types.Product
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	category := testutil.SeedCategory(t, ctx, db, "laptop")
	product := testutil.SeedProduct(t, ctx, db, category.ID, "thinkpad-x1", 30_000_000, 10)
	second := testutil.SeedProduct(t, ctx, db, category.ID, "macbook-air", 25_000_000, 4)

	return &cartFixture{
		db:      db,
		svc:     NewCartService(db, log, repos.NewCartRepo(db, log), repos.NewProductRepo(db, log)),
		product: product,
		second:  second,
	}
}

func guestCtx(sessionID string) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{SessionID: sessionID})
}

func TestCartAddUpdateRemove(t *testing.T) {
	f := newCartFixture(t)
	ctx := guestCtx("sess-cart")

	item, err := f.svc.AddItem(ctx, f.product.ID, 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if item.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", item.Quantity)
	}

	// adding the same product again merges quantities
	item, err = f.svc.AddItem(ctx, f.product.ID, 3)
	if err != nil {
		t.Fatalf("AddItem again: %v", err)
	}
	if item.Quantity != 5 {
		t.Errorf("merged quantity = %d, want 5", item.Quantity)
	}

	item, err = f.svc.UpdateItem(ctx, f.product.ID, 1)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("updated quantity = %d, want 1", item.Quantity)
	}

	// quantity 0 removes the row
	if _, err := f.svc.UpdateItem(ctx, f.product.ID, 0); err != nil {
		t.Fatalf("UpdateItem to zero: %v", err)
	}
	items, err := f.svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items after zero-quantity update, want 0", len(items))
	}
}

func TestCartStockLimit(t *testing.T) {
	f := newCartFixture(t)
	ctx := guestCtx("sess-stock")

	if _, err := f.svc.AddItem(ctx, f.second.ID, 5); err == nil {
		t.Error("added more than the available stock")
	}
	if _, err := f.svc.AddItem(ctx, f.second.ID, 3); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	// the merged total may not exceed stock either
	if _, err := f.svc.AddItem(ctx, f.second.ID, 2); err == nil {
		t.Error("merged quantity exceeded stock")
	}
}

func TestCartRequiresIdentity(t *testing.T) {
	f := newCartFixture(t)
	if _, err := f.svc.AddItem(context.Background(), f.product.ID, 1); err == nil {
		t.Error("anonymous add accepted")
	}
	if _, err := f.svc.ListItems(context.Background()); err == nil {
		t.Error("anonymous list accepted")
	}
}

func TestMergeGuestCart(t *testing.T) {
	f := newCartFixture(t)
	sessionID := "sess-merge"
	gctx := guestCtx(sessionID)

	if _, err := f.svc.AddItem(gctx, f.product.ID, 2); err != nil {
		t.Fatalf("guest add 1: %v", err)
	}
	if _, err := f.svc.AddItem(gctx, f.second.ID, 1); err != nil {
		t.Fatalf("guest add 2: %v", err)
	}

	user := testutil.SeedUser(t, context.Background(), f.db, "merge@example.com")
	uctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: user.ID})
	// the user already has one of the products in their cart
	if _, err := f.svc.AddItem(uctx, f.product.ID, 1); err != nil {
		t.Fatalf("user add: %v", err)
	}

	if err := f.svc.MergeGuestCart(context.Background(), user.ID, sessionID); err != nil {
		t.Fatalf("MergeGuestCart: %v", err)
	}

	userItems, err := f.svc.ListItems(uctx)
	if err != nil {
		t.Fatalf("ListItems user: %v", err)
	}
	if len(userItems) != 2 {
		t.Fatalf("user cart has %d items, want 2", len(userItems))
	}
	quantities := map[string]int{}
	for _, it := range userItems {
		quantities[it.ProductID.String()] = it.Quantity
	}
	if quantities[f.product.ID.String()] != 3 {
		t.Errorf("merged quantity = %d, want 3", quantities[f.product.ID.String()])
	}
	if quantities[f.second.ID.String()] != 1 {
		t.Errorf("moved quantity = %d, want 1", quantities[f.second.ID.String()])
	}

	guestItems, err := f.svc.ListItems(gctx)
	if err != nil {
		t.Fatalf("ListItems guest: %v", err)
	}
	if len(guestItems) != 0 {
		t.Errorf("guest cart has %d items after merge, want 0", len(guestItems))
	}
}
