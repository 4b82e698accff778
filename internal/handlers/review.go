package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
)

type ReviewHandler struct {
	log           *logger.Logger
	reviewService services.ReviewService
}

func NewReviewHandler(log *logger.Logger, reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		log:           log.With("handler", "ReviewHandler"),
		reviewService: reviewService,
	}
}

func (rh *ReviewHandler) ListByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	reviews, err := rh.reviewService.ListByProduct(c.Request.Context(), productID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "load_reviews_failed", err)
		return
	}
	RespondOK(c, gin.H{"reviews": reviews})
}

func (rh *ReviewHandler) Submit(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	review, err := rh.reviewService.SubmitReview(c.Request.Context(), productID, req.Rating, req.Comment)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "submit_review_failed", err)
		return
	}
	RespondOK(c, gin.H{"review": review})
}
