package services

import (
	"context"
	"testing"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos/testutil"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Điện thoại", "dien-thoai"},
		{"Laptop & Máy tính", "laptop-may-tinh"},
		{"  Tai nghe  ", "tai-nghe"},
		{"iPhone 15 Pro Max", "iphone-15-pro-max"},
		{"Đồng hồ thông minh", "dong-ho-thong-minh"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategoryCRUDAndDeleteGuard(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	categoryRepo := repos.NewCategoryRepo(db, log)
	productRepo := repos.NewProductRepo(db, log)
	svc := NewCategoryService(db, log, categoryRepo, productRepo, nil)

	category, err := svc.Create(ctx, "Điện thoại", "Smartphones")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if category.Slug != "dien-thoai" {
		t.Errorf("slug = %q, want dien-thoai", category.Slug)
	}

	updated, err := svc.Update(ctx, category.ID, "Điện thoại & Tablet", "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "dien-thoai-tablet" {
		t.Errorf("updated slug = %q, want dien-thoai-tablet", updated.Slug)
	}
	if updated.Description != "Smartphones" {
		t.Errorf("empty description overwrote existing one")
	}

	// a category with products cannot be deleted
	testutil.SeedProduct(t, ctx, db, category.ID, "galaxy-s24", 20_000_000, 3)
	if err := svc.Delete(ctx, category.ID); err == nil {
		t.Error("delete succeeded for a category with products")
	}

	empty, err := svc.Create(ctx, "Phụ kiện", "")
	if err != nil {
		t.Fatalf("Create empty: %v", err)
	}
	if err := svc.Delete(ctx, empty.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	categories, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(categories) != 1 {
		t.Errorf("got %d categories, want 1", len(categories))
	}
}
