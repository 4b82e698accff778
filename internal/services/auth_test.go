package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos/testutil"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

func newAuthFixture(t *testing.T) AuthService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewAuthService(db, log,
		repos.NewUserRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		"test-secret",
		time.Hour,
		24*time.Hour,
	)
}

func registerAndLogin(t *testing.T, svc AuthService) (string, string) {
	t.Helper()
	ctx := context.Background()
	user := &types.User{
		Email:     "shopper@example.com",
		FirstName: "Thanh",
		LastName:  "Nguyen",
		Password:  "s3cret-pass",
	}
	if err := svc.RegisterUser(ctx, user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	access, refresh, err := svc.LoginUser(ctx, "shopper@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	return access, refresh
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	if err := svc.RegisterUser(ctx, &types.User{Email: "bad", Password: "s3cret-pass", FirstName: "A", LastName: "B"}); err == nil {
		t.Error("invalid email accepted")
	}
	if err := svc.RegisterUser(ctx, &types.User{Email: "a@b.com", Password: "short", FirstName: "A", LastName: "B"}); err == nil {
		t.Error("short password accepted")
	}

	user := &types.User{Email: "Dup@Example.com", Password: "s3cret-pass", FirstName: "A", LastName: "B"}
	if err := svc.RegisterUser(ctx, user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Email != "dup@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Password == "s3cret-pass" {
		t.Error("password stored in plaintext")
	}
	if user.Role != types.RoleCustomer {
		t.Errorf("default role = %q, want customer", user.Role)
	}
	if err := svc.RegisterUser(ctx, &types.User{Email: "dup@example.com", Password: "s3cret-pass", FirstName: "A", LastName: "B"}); err == nil {
		t.Error("duplicate email accepted")
	}
}

func TestLoginAndTokenContext(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	access, _ := registerAndLogin(t, svc)

	authedCtx, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID == uuid.Nil {
		t.Fatal("no request data after token validation")
	}
	if rd.IsAdmin {
		t.Error("customer token marked admin")
	}

	if _, _, err := svc.LoginUser(ctx, "shopper@example.com", "wrong-pass"); err == nil {
		t.Error("wrong password accepted")
	}
	if _, err := svc.SetContextFromToken(ctx, "not-a-jwt"); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	_, refresh := registerAndLogin(t, svc)

	newAccess, newRefresh, err := svc.RefreshUser(ctx, refresh)
	if err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	if newRefresh == refresh {
		t.Error("refresh token not rotated")
	}
	if _, err := svc.SetContextFromToken(ctx, newAccess); err != nil {
		t.Errorf("new access token rejected: %v", err)
	}
	// the old refresh token died with the rotation
	if _, _, err := svc.RefreshUser(ctx, refresh); err == nil {
		t.Error("old refresh token still works")
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	access, _ := registerAndLogin(t, svc)
	authedCtx, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if err := svc.LogoutUser(authedCtx); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}
	// the JWT is still unexpired but its row is gone
	if _, err := svc.SetContextFromToken(ctx, access); err == nil {
		t.Error("token accepted after logout")
	}
}
