package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
)

type PaymentHandler struct {
	log            *logger.Logger
	paymentService services.PaymentService
	resultURL      string
}

// NewPaymentHandler takes resultURL, the frontend page the gateway return
// redirect lands on.
func NewPaymentHandler(log *logger.Logger, paymentService services.PaymentService, resultURL string) *PaymentHandler {
	return &PaymentHandler{
		log:            log.With("handler", "PaymentHandler"),
		paymentService: paymentService,
		resultURL:      resultURL,
	}
}

func (ph *PaymentHandler) CreatePaymentURL(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	locale := c.Query("locale")
	payURL, err := ph.paymentService.CreatePaymentURL(c.Request.Context(), orderID, c.ClientIP(), locale)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_payment_url_failed", err)
		return
	}
	RespondOK(c, gin.H{"payment_url": payURL})
}

// Return handles the browser redirect back from the gateway and forwards the
// outcome to the frontend result page.
func (ph *PaymentHandler) Return(c *gin.Context) {
	result, err := ph.handle(c)
	if err != nil {
		ph.log.Error("payment return failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "payment_callback_failed", err)
		return
	}
	q := url.Values{}
	if result.Success {
		q.Set("status", "success")
	} else {
		q.Set("status", "failed")
	}
	if result.OrderCode != "" {
		q.Set("order", result.OrderCode)
	}
	q.Set("message", result.Message)
	c.Redirect(http.StatusFound, ph.resultURL+"?"+q.Encode())
}

// IPN handles the server-to-server notification. The gateway expects a JSON
// body with RspCode "00" on success.
func (ph *PaymentHandler) IPN(c *gin.Context) {
	result, err := ph.handle(c)
	if err != nil {
		ph.log.Error("payment ipn failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"RspCode": "99", "Message": "Unknown error"})
		return
	}
	if !result.Success && result.Message == "Invalid signature" {
		c.JSON(http.StatusOK, gin.H{"RspCode": "97", "Message": "Invalid signature"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm success"})
}

func (ph *PaymentHandler) handle(c *gin.Context) (*services.CallbackResult, error) {
	params := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return ph.paymentService.HandleCallback(c.Request.Context(), params)
}
