package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
)

type ProductHandler struct {
	log            *logger.Logger
	productService services.ProductService
}

func NewProductHandler(log *logger.Logger, productService services.ProductService) *ProductHandler {
	return &ProductHandler{
		log:            log.With("handler", "ProductHandler"),
		productService: productService,
	}
}

func (ph *ProductHandler) List(c *gin.Context) {
	filter := repos.ProductFilter{
		Brand:  c.Query("brand"),
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
			return
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("price_min"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_price_min", err)
			return
		}
		filter.PriceMin = &v
	}
	if raw := c.Query("price_max"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_price_max", err)
			return
		}
		filter.PriceMax = &v
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("page_size"))

	products, total, err := ph.productService.List(c.Request.Context(), filter)
	if err != nil {
		ph.log.Error("list products failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_products_failed", err)
		return
	}
	RespondOK(c, gin.H{"products": products, "total": total})
}

func (ph *ProductHandler) GetBySlug(c *gin.Context) {
	detail, err := ph.productService.GetDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "product_not_found", err)
		return
	}
	RespondOK(c, detail)
}

type productRequest struct {
	CategoryID  uuid.UUID      `json:"category_id"`
	Name        string         `json:"name"`
	Brand       string         `json:"brand"`
	Description string         `json:"description"`
	Price       int64          `json:"price"`
	Stock       int            `json:"stock"`
	Specs       datatypes.JSON `json:"specs"`
}

func (r productRequest) toInput() services.ProductInput {
	return services.ProductInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Brand:       r.Brand,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Specs:       r.Specs,
	}
}

func (ph *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	product, err := ph.productService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_product_failed", err)
		return
	}
	RespondOK(c, gin.H{"product": product})
}

func (ph *ProductHandler) Update(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	product, err := ph.productService.Update(c.Request.Context(), productID, req.toInput())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_product_failed", err)
		return
	}
	RespondOK(c, gin.H{"product": product})
}

func (ph *ProductHandler) Delete(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ph.productService.Delete(c.Request.Context(), productID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_product_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (ph *ProductHandler) UploadImage(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_file", err)
		return
	}
	defer f.Close()

	product, err := ph.productService.UploadImage(c.Request.Context(), productID, filepath.Base(fileHeader.Filename), f)
	if err != nil {
		ph.log.Error("product image upload failed", "product_id", productID, "error", err)
		RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	RespondOK(c, gin.H{"product": product})
}
