package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/models"
	"github.com/KunArthit/petterrain-api-sub000/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type (
	CategoryHandler = LocalizedHandler[models.Category, models.CategoryTranslation, models.CreateCategoryRequest]
	BlogPostHandler = LocalizedHandler[models.BlogPost, models.BlogPostTranslation, models.CreateBlogPostRequest]
)

// ProductHandler adds price and stock endpoints to the localized product
// routes.
type ProductHandler struct {
	*LocalizedHandler[models.Product, models.ProductTranslation, models.CreateProductRequest]
	catalog *services.ProductCatalog
	stock   *services.StockService
}

func NewProductHandler(catalog *services.ProductCatalog, stock *services.StockService, defaultLang string, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		LocalizedHandler: NewLocalizedHandler[models.Product, models.ProductTranslation, models.CreateProductRequest](
			catalog, catalog.CreateProduct, defaultLang, logger),
		catalog: catalog,
		stock:   stock,
	}
}

func NewCategoryHandler(store *services.LocalizedStore[models.Category, models.CategoryTranslation], defaultLang string, logger *zap.Logger) *CategoryHandler {
	create := func(ctx context.Context, req models.CreateCategoryRequest) (models.LocalizedCategory, error) {
		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}
		return store.Create(ctx, models.Category{ParentID: req.ParentID, IsActive: active}, req.Translations)
	}
	return NewLocalizedHandler[models.Category, models.CategoryTranslation, models.CreateCategoryRequest](
		store, create, defaultLang, logger)
}

func NewBlogPostHandler(store *services.LocalizedStore[models.BlogPost, models.BlogPostTranslation], defaultLang string, logger *zap.Logger) *BlogPostHandler {
	create := func(ctx context.Context, req models.CreateBlogPostRequest) (models.LocalizedBlogPost, error) {
		post := models.BlogPost{AuthorID: req.AuthorID, CategoryID: req.CategoryID, IsPublished: req.IsPublished}
		if post.IsPublished {
			now := time.Now().UTC()
			post.PublishedAt = &now
		}
		return store.Create(ctx, post, req.Translations)
	}
	return NewLocalizedHandler[models.BlogPost, models.BlogPostTranslation, models.CreateBlogPostRequest](
		store, create, defaultLang, logger)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CheckStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.StockRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	available, err := h.stock.CheckAvailability(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.StockAvailability{ProductID: id, Quantity: req.Quantity, Available: available})
}

func (h *ProductHandler) ReduceStock(c *gin.Context) {
	h.adjustStock(c, h.stock.Reduce)
}

func (h *ProductHandler) RestoreStock(c *gin.Context) {
	h.adjustStock(c, h.stock.Restore)
}

func (h *ProductHandler) adjustStock(c *gin.Context, adjust func(context.Context, int64, int) (models.StockChange, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	change, err := adjust(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, change)
}
