package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
)

type OrderHandler struct {
	log          *logger.Logger
	orderService services.OrderService
}

func NewOrderHandler(log *logger.Logger, orderService services.OrderService) *OrderHandler {
	return &OrderHandler{
		log:          log.With("handler", "OrderHandler"),
		orderService: orderService,
	}
}

func (oh *OrderHandler) Checkout(c *gin.Context) {
	var req struct {
		PaymentMethod string                `json:"payment_method"`
		Shipping      services.ShippingInfo `json:"shipping"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	order, err := oh.orderService.Checkout(c.Request.Context(), services.CheckoutInput{
		PaymentMethod: req.PaymentMethod,
		Shipping:      req.Shipping,
	})
	if err != nil {
		RespondError(c, http.StatusBadRequest, "checkout_failed", err)
		return
	}
	RespondOK(c, gin.H{"order": order})
}

func (oh *OrderHandler) ListMine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := oh.orderService.ListMine(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "load_orders_failed", err)
		return
	}
	RespondOK(c, gin.H{"orders": orders})
}

func (oh *OrderHandler) GetMine(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	order, err := oh.orderService.GetMine(c.Request.Context(), orderID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "order_not_found", err)
		return
	}
	RespondOK(c, gin.H{"order": order})
}

func (oh *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	order, err := oh.orderService.Cancel(c.Request.Context(), orderID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "cancel_order_failed", err)
		return
	}
	RespondOK(c, gin.H{"order": order})
}

func (oh *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	order, err := oh.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_status_failed", err)
		return
	}
	RespondOK(c, gin.H{"order": order})
}
