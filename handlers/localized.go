package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// LocalizedService is the store surface the localized handlers need.
// *services.LocalizedStore and *services.ProductCatalog both satisfy it.
type LocalizedService[B any, T any] interface {
	Get(ctx context.Context, id int64, lang string) (models.Localized[B, T], error)
	List(ctx context.Context, lang string, limit, offset int, publicOnly bool) ([]models.Localized[B, T], error)
	Translations(ctx context.Context, id int64) ([]T, error)
	UpsertTranslation(ctx context.Context, id int64, tr T) (T, error)
	Delete(ctx context.Context, id int64) error
}

// LocalizedHandler serves any base+translation entity. R is the create
// request body.
type LocalizedHandler[B any, T any, R any] struct {
	svc         LocalizedService[B, T]
	create      func(context.Context, R) (models.Localized[B, T], error)
	defaultLang string
	logger      *zap.Logger
}

func NewLocalizedHandler[B any, T any, R any](
	svc LocalizedService[B, T],
	create func(context.Context, R) (models.Localized[B, T], error),
	defaultLang string,
	logger *zap.Logger,
) *LocalizedHandler[B, T, R] {
	return &LocalizedHandler[B, T, R]{
		svc:         svc,
		create:      create,
		defaultLang: defaultLang,
		logger:      logger,
	}
}

func (h *LocalizedHandler[B, T, R]) lang(c *gin.Context) string {
	lang := c.Query("lang")
	if lang == "" || len(lang) > 10 {
		return h.defaultLang
	}
	return lang
}

func page(c *gin.Context) (limit, offset int, ok bool) {
	limit, offset = defaultPageSize, 0
	var err error
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			bindError(c, apperr.Validation("", "limit must be a positive integer"))
			return 0, 0, false
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil || offset < 0 {
			bindError(c, apperr.Validation("", "offset must not be negative"))
			return 0, 0, false
		}
	}
	return limit, offset, true
}

func (h *LocalizedHandler[B, T, R]) List(c *gin.Context) {
	limit, offset, ok := page(c)
	if !ok {
		return
	}

	items, err := h.svc.List(c.Request.Context(), h.lang(c), limit, offset, true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *LocalizedHandler[B, T, R]) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := h.svc.Get(c.Request.Context(), id, h.lang(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *LocalizedHandler[B, T, R]) Create(c *gin.Context) {
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	created, err := h.create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LocalizedHandler[B, T, R]) Translations(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	trs, err := h.svc.Translations(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trs)
}

func (h *LocalizedHandler[B, T, R]) UpsertTranslation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var tr T
	if err := c.ShouldBindJSON(&tr); err != nil {
		bindError(c, err)
		return
	}

	saved, err := h.svc.UpsertTranslation(c.Request.Context(), id, tr)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *LocalizedHandler[B, T, R]) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
