package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
)

type CategoryHandler struct {
	log             *logger.Logger
	categoryService services.CategoryService
}

func NewCategoryHandler(log *logger.Logger, categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		log:             log.With("handler", "CategoryHandler"),
		categoryService: categoryService,
	}
}

func (ch *CategoryHandler) List(c *gin.Context) {
	categories, err := ch.categoryService.List(c.Request.Context())
	if err != nil {
		ch.log.Error("list categories failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_categories_failed", err)
		return
	}
	RespondOK(c, gin.H{"categories": categories})
}

func (ch *CategoryHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	category, err := ch.categoryService.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_category_failed", err)
		return
	}
	RespondOK(c, gin.H{"category": category})
}

func (ch *CategoryHandler) Update(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	category, err := ch.categoryService.Update(c.Request.Context(), categoryID, req.Name, req.Description)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_category_failed", err)
		return
	}
	RespondOK(c, gin.H{"category": category})
}

func (ch *CategoryHandler) Delete(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ch.categoryService.Delete(c.Request.Context(), categoryID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_category_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
