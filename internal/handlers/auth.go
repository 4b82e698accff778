package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/requestdata"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
	cartService services.CartService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, cartService services.CartService) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
		cartService: cartService,
	}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user := types.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
	if err := ah.authService.RegisterUser(c.Request.Context(), &user); err != nil {
		RespondError(c, http.StatusBadRequest, "register_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "login_failed", err)
		return
	}

	// a guest cart carried on X-Session-Id is folded into the user's cart
	if sessionID := c.GetHeader("X-Session-Id"); sessionID != "" {
		ctx, err := ah.authService.SetContextFromToken(c.Request.Context(), accessToken)
		if err == nil {
			if rd := requestdata.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
				if err := ah.cartService.MergeGuestCart(ctx, rd.UserID, sessionID); err != nil {
					ah.log.Warn("guest cart merge failed", "session_id", sessionID, "error", err)
				}
			}
		}
	}

	expiresIn := int(ah.authService.GetAccessTTL().Seconds())
	RespondOK(c, gin.H{"access_token": accessToken, "refresh_token": refreshToken, "expires_in": expiresIn})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	accessToken, refreshToken, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "refresh_failed", err)
		return
	}
	expiresIn := int(ah.authService.GetAccessTTL().Seconds())
	RespondOK(c, gin.H{"access_token": accessToken, "refresh_token": refreshToken, "expires_in": expiresIn})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		RespondError(c, http.StatusUnauthorized, "logout_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
