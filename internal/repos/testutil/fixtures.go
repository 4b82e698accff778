package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      types.RoleCustomer,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string) *types.Category {
	tb.Helper()
	c := &types.Category{
		ID:   uuid.New(),
		Name: slug,
		Slug: slug,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, slug string, price int64, stock int) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       slug,
		Slug:       slug,
		Price:      price,
		Stock:      stock,
		Active:     true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, userID *uuid.UUID, sessionID string) *types.ChatConversation {
	tb.Helper()
	c := &types.ChatConversation{
		ID:        uuid.New(),
		UserID:    userID,
		SessionID: sessionID,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, userID *uuid.UUID, code string, total int64, method string) *types.Order {
	tb.Helper()
	o := &types.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Code:          code,
		Status:        types.OrderStatusPending,
		TotalAmount:   total,
		PaymentMethod: method,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}
