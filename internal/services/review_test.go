package services

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos/testutil"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

func TestSubmitReviewUpdatesAggregate(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	category := testutil.SeedCategory(t, ctx, db, "tai-nghe")
	product := testutil.SeedProduct(t, ctx, db, category.ID, "airpods-pro", 5_000_000, 10)
	alice := testutil.SeedUser(t, ctx, db, "alice@example.com")
	bob := testutil.SeedUser(t, ctx, db, "bob@example.com")

	productRepo := repos.NewProductRepo(db, log)
	svc := NewReviewService(db, log, repos.NewReviewRepo(db, log), productRepo, nil)

	aliceCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: alice.ID})
	bobCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: bob.ID})

	if _, err := svc.SubmitReview(aliceCtx, product.ID, 5, "tuyệt vời"); err != nil {
		t.Fatalf("alice review: %v", err)
	}
	if _, err := svc.SubmitReview(bobCtx, product.ID, 2, "âm bass yếu"); err != nil {
		t.Fatalf("bob review: %v", err)
	}

	reload := func() *types.Product {
		products, err := productRepo.GetByIDs(ctx, nil, []uuid.UUID{product.ID})
		if err != nil || len(products) == 0 {
			t.Fatalf("reload product: %v", err)
		}
		return products[0]
	}
	p := reload()
	if p.RatingCount != 2 || math.Abs(p.RatingAvg-3.5) > 1e-9 {
		t.Errorf("aggregate = %.2f/%d, want 3.50/2", p.RatingAvg, p.RatingCount)
	}

	// a repeat submission replaces the old rating instead of adding a row
	if _, err := svc.SubmitReview(bobCtx, product.ID, 4, "nghĩ lại thì ổn"); err != nil {
		t.Fatalf("bob re-review: %v", err)
	}
	p = reload()
	if p.RatingCount != 2 || math.Abs(p.RatingAvg-4.5) > 1e-9 {
		t.Errorf("aggregate after upsert = %.2f/%d, want 4.50/2", p.RatingAvg, p.RatingCount)
	}

	reviews, err := svc.ListByProduct(ctx, product.ID, 0)
	if err != nil {
		t.Fatalf("ListByProduct: %v", err)
	}
	if len(reviews) != 2 {
		t.Errorf("got %d reviews, want 2", len(reviews))
	}
}

func TestSubmitReviewValidation(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	category := testutil.SeedCategory(t, ctx, db, "tablet")
	product := testutil.SeedProduct(t, ctx, db, category.ID, "ipad-air", 15_000_000, 5)
	user := testutil.SeedUser(t, ctx, db, "rater@example.com")

	svc := NewReviewService(db, log, repos.NewReviewRepo(db, log), repos.NewProductRepo(db, log), nil)
	userCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: user.ID})

	if _, err := svc.SubmitReview(ctx, product.ID, 4, "ok"); err == nil {
		t.Error("anonymous review accepted")
	}
	if _, err := svc.SubmitReview(userCtx, product.ID, 0, "ok"); err == nil {
		t.Error("rating 0 accepted")
	}
	if _, err := svc.SubmitReview(userCtx, product.ID, 6, "ok"); err == nil {
		t.Error("rating 6 accepted")
	}
	if _, err := svc.SubmitReview(userCtx, uuid.New(), 4, "ok"); err == nil {
		t.Error("review for unknown product accepted")
	}
}
