package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
)

type CartHandler struct {
	log         *logger.Logger
	cartService services.CartService
}

func NewCartHandler(log *logger.Logger, cartService services.CartService) *CartHandler {
	return &CartHandler{
		log:         log.With("handler", "CartHandler"),
		cartService: cartService,
	}
}

func (ch *CartHandler) List(c *gin.Context) {
	items, err := ch.cartService.ListItems(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "load_cart_failed", err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

func (ch *CartHandler) Add(c *gin.Context) {
	var req struct {
		ProductID uuid.UUID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := ch.cartService.AddItem(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "add_cart_item_failed", err)
		return
	}
	RespondOK(c, gin.H{"item": item})
}

func (ch *CartHandler) Update(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := ch.cartService.UpdateItem(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_cart_item_failed", err)
		return
	}
	RespondOK(c, gin.H{"item": item})
}

func (ch *CartHandler) Remove(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ch.cartService.RemoveItem(c.Request.Context(), productID); err != nil {
		RespondError(c, http.StatusBadRequest, "remove_cart_item_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (ch *CartHandler) Clear(c *gin.Context) {
	if err := ch.cartService.Clear(c.Request.Context()); err != nil {
		RespondError(c, http.StatusBadRequest, "clear_cart_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
