package services

import (
	"context"
	"database/sql"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"go.uber.org/zap"
)

func ProductTable() LocalizedTable[models.Product, models.ProductTranslation] {
	return LocalizedTable[models.Product, models.ProductTranslation]{
		Entity:      "product",
		BaseTable:   "products",
		BaseColumns: []string{"sku", "price", "stock_quantity", "category_id", "is_active"},
		BaseValues: func(p models.Product) []any {
			return []any{p.SKU, p.Price, p.StockQuantity, p.CategoryID, p.IsActive}
		},
		ScanBase: func(p *models.Product) []any {
			return []any{&p.ID, &p.SKU, &p.Price, &p.StockQuantity, &p.CategoryID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt}
		},
		BaseID:             func(p models.Product) int64 { return p.ID },
		ListWhere:          "b.is_active",
		TranslationTable:   "product_translations",
		ForeignKey:         "product_id",
		TranslationColumns: []string{"name", "slug", "description"},
		TranslationValues: func(t models.ProductTranslation) (string, []string) {
			return t.Lang, []string{t.Name, t.Slug, t.Description}
		},
		NewTranslation: func(id int64, lang string, v []string) models.ProductTranslation {
			return models.ProductTranslation{ProductID: id, Lang: lang, Name: v[0], Slug: v[1], Description: v[2]}
		},
	}
}

func CategoryTable() LocalizedTable[models.Category, models.CategoryTranslation] {
	return LocalizedTable[models.Category, models.CategoryTranslation]{
		Entity:      "category",
		BaseTable:   "categories",
		BaseColumns: []string{"parent_id", "is_active"},
		BaseValues: func(c models.Category) []any {
			return []any{c.ParentID, c.IsActive}
		},
		ScanBase: func(c *models.Category) []any {
			return []any{&c.ID, &c.ParentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt}
		},
		BaseID:             func(c models.Category) int64 { return c.ID },
		ListWhere:          "b.is_active",
		TranslationTable:   "category_translations",
		ForeignKey:         "category_id",
		TranslationColumns: []string{"name", "slug", "description"},
		TranslationValues: func(t models.CategoryTranslation) (string, []string) {
			return t.Lang, []string{t.Name, t.Slug, t.Description}
		},
		NewTranslation: func(id int64, lang string, v []string) models.CategoryTranslation {
			return models.CategoryTranslation{CategoryID: id, Lang: lang, Name: v[0], Slug: v[1], Description: v[2]}
		},
	}
}

func BlogPostTable() LocalizedTable[models.BlogPost, models.BlogPostTranslation] {
	return LocalizedTable[models.BlogPost, models.BlogPostTranslation]{
		Entity:      "blog_post",
		BaseTable:   "blog_posts",
		BaseColumns: []string{"author_id", "category_id", "is_published", "published_at"},
		BaseValues: func(p models.BlogPost) []any {
			return []any{p.AuthorID, p.CategoryID, p.IsPublished, p.PublishedAt}
		},
		ScanBase: func(p *models.BlogPost) []any {
			return []any{&p.ID, &p.AuthorID, &p.CategoryID, &p.IsPublished, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt}
		},
		BaseID:             func(p models.BlogPost) int64 { return p.ID },
		ListWhere:          "b.is_published",
		TranslationTable:   "blog_post_translations",
		ForeignKey:         "post_id",
		TranslationColumns: []string{"title", "slug", "excerpt", "content"},
		TranslationValues: func(t models.BlogPostTranslation) (string, []string) {
			return t.Lang, []string{t.Title, t.Slug, t.Excerpt, t.Content}
		},
		NewTranslation: func(id int64, lang string, v []string) models.BlogPostTranslation {
			return models.BlogPostTranslation{PostID: id, Lang: lang, Title: v[0], Slug: v[1], Excerpt: v[2], Content: v[3]}
		},
	}
}

// ProductReadCache caches localized product reads per language.
type ProductReadCache interface {
	ProductCache
	GetProduct(ctx context.Context, id int64, lang string) (models.LocalizedProduct, bool, error)
	ProductVersion(ctx context.Context, id int64) (int64, error)
	// SetProduct must not store p if the product was invalidated after
	// version was read.
	SetProduct(ctx context.Context, lang string, p models.LocalizedProduct, version int64) error
}

// ProductCatalog is the product store with a read-through cache. Every write
// drops the cached entry.
type ProductCatalog struct {
	*LocalizedStore[models.Product, models.ProductTranslation]
	db     *sql.DB
	cache  ProductReadCache
	logger *zap.Logger
}

func NewProductCatalog(db *sql.DB, cache ProductReadCache, logger *zap.Logger) *ProductCatalog {
	return &ProductCatalog{
		LocalizedStore: NewLocalizedStore(db, ProductTable()),
		db:             db,
		cache:          cache,
		logger:         logger,
	}
}

func (c *ProductCatalog) CreateProduct(ctx context.Context, req models.CreateProductRequest) (models.LocalizedProduct, error) {
	if req.Price.IsNegative() {
		return models.LocalizedProduct{}, apperr.Validation("product.create", "price must not be negative")
	}
	if req.StockQuantity < 0 {
		return models.LocalizedProduct{}, apperr.Validation("product.create", "stock_quantity must not be negative")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	product := models.Product{
		SKU:           req.SKU,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		IsActive:      active,
	}

	created, err := c.Create(ctx, product, req.Translations)
	if err != nil {
		return created, err
	}
	c.logger.Info("Product created", zap.Int64("product_id", created.Base.ID), zap.String("sku", created.Base.SKU))
	return created, nil
}

func (c *ProductCatalog) Get(ctx context.Context, id int64, lang string) (models.LocalizedProduct, error) {
	fill := false
	var version int64
	if c.cache != nil {
		cached, ok, err := c.cache.GetProduct(ctx, id, lang)
		if err != nil {
			c.logger.Warn("Product cache read failed", zap.Int64("product_id", id), zap.Error(err))
		} else if ok {
			return cached, nil
		}

		// The version is read before the row so a write that lands in
		// between makes the fill a no-op.
		version, err = c.cache.ProductVersion(ctx, id)
		if err != nil {
			c.logger.Warn("Product cache version read failed", zap.Int64("product_id", id), zap.Error(err))
		} else {
			fill = true
		}
	}

	p, err := c.LocalizedStore.Get(ctx, id, lang)
	if err != nil {
		return p, err
	}

	if fill {
		if err := c.cache.SetProduct(ctx, lang, p, version); err != nil {
			c.logger.Warn("Product cache write failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}
	return p, nil
}

// Update changes the allow-listed base columns of a product.
func (c *ProductCatalog) Update(ctx context.Context, id int64, req models.UpdateProductRequest) (models.Product, error) {
	const op = "product.update"

	set := newSetBuilder()
	if req.Price != nil {
		if req.Price.IsNegative() {
			return models.Product{}, apperr.Validation(op, "price must not be negative")
		}
		set.add("price", *req.Price)
	}
	if req.CategoryID != nil {
		set.add("category_id", *req.CategoryID)
	}
	if req.IsActive != nil {
		set.add("is_active", *req.IsActive)
	}
	if set.empty() {
		return models.Product{}, apperr.Validation(op, "nothing to update")
	}

	query, args := set.build("products", id)
	query += " RETURNING id, sku, price, stock_quantity, category_id, is_active, created_at, updated_at"

	var p models.Product
	err := c.db.QueryRowContext(ctx, query, args...).Scan(ProductTable().ScanBase(&p)...)
	switch {
	case database.IsNoRows(err):
		return models.Product{}, apperr.NotFound(op, "product %d not found", id)
	case database.IsForeignKeyViolation(err):
		return models.Product{}, apperr.Validation(op, "category does not exist")
	case err != nil:
		return models.Product{}, apperr.Internal(op, err)
	}

	c.invalidate(ctx, id)
	return p, nil
}

func (c *ProductCatalog) UpsertTranslation(ctx context.Context, id int64, tr models.ProductTranslation) (models.ProductTranslation, error) {
	saved, err := c.LocalizedStore.UpsertTranslation(ctx, id, tr)
	if err != nil {
		return saved, err
	}
	c.invalidate(ctx, id)
	return saved, nil
}

func (c *ProductCatalog) Delete(ctx context.Context, id int64) error {
	if err := c.LocalizedStore.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *ProductCatalog) invalidate(ctx context.Context, id int64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateProduct(ctx, id); err != nil {
		c.logger.Warn("Failed to invalidate product cache", zap.Int64("product_id", id), zap.Error(err))
	}
}
