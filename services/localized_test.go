package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var productJoinCols = []string{
	"id", "sku", "price", "stock_quantity", "category_id", "is_active", "created_at", "updated_at",
	"lang", "name", "slug", "description",
}

type memoryProductCache struct {
	entries     map[string]models.LocalizedProduct
	versions    map[int64]int64
	invalidated []int64
	// beforeSet runs at the start of SetProduct.
	beforeSet func()
}

func newMemoryProductCache() *memoryProductCache {
	return &memoryProductCache{
		entries:  map[string]models.LocalizedProduct{},
		versions: map[int64]int64{},
	}
}

func (c *memoryProductCache) key(id int64, lang string) string {
	return lang + ":" + strconv.FormatInt(id, 10)
}

func (c *memoryProductCache) GetProduct(_ context.Context, id int64, lang string) (models.LocalizedProduct, bool, error) {
	p, ok := c.entries[c.key(id, lang)]
	return p, ok, nil
}

func (c *memoryProductCache) ProductVersion(_ context.Context, id int64) (int64, error) {
	return c.versions[id], nil
}

func (c *memoryProductCache) SetProduct(_ context.Context, lang string, p models.LocalizedProduct, version int64) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	if c.versions[p.Base.ID] != version {
		return nil
	}
	c.entries[c.key(p.Base.ID, lang)] = p
	return nil
}

func (c *memoryProductCache) InvalidateProduct(_ context.Context, id int64) error {
	c.invalidated = append(c.invalidated, id)
	c.versions[id]++
	for k, p := range c.entries {
		if p.Base.ID == id {
			delete(c.entries, k)
		}
	}
	return nil
}

func newProductCatalog(t *testing.T) (*ProductCatalog, sqlmock.Sqlmock, *memoryProductCache) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache := newMemoryProductCache()
	return NewProductCatalog(db, cache, zaptest.NewLogger(t)), mock, cache
}

func TestCreateProductWritesBaseAndTranslations(t *testing.T) {
	catalog, mock, _ := newProductCatalog(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products (sku, price, stock_quantity, category_id, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING id, sku, price, stock_quantity, category_id, is_active, created_at, updated_at")).
		WithArgs("SKU-1", sqlmock.AnyArg(), 10, nil, true).
		WillReturnRows(sqlmock.NewRows(productJoinCols[:8]).AddRow(5, "SKU-1", "50.00", 10, nil, true, now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_translations (product_id, lang, name, slug, description) VALUES ($1, $2, $3, $4, $5)")).
		WithArgs(int64(5), "en", "Cat food", "cat-food", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO product_translations").
		WithArgs(int64(5), "th", "อาหารแมว", "cat-food-th", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := catalog.CreateProduct(context.Background(), models.CreateProductRequest{
		SKU:           "SKU-1",
		Price:         decimal.NewFromInt(50),
		StockQuantity: 10,
		Translations: []models.ProductTranslation{
			{Lang: "en", Name: "Cat food", Slug: "cat-food"},
			{Lang: "th", Name: "อาหารแมว", Slug: "cat-food-th"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), created.Base.ID)
	require.NotNil(t, created.Translation)
	assert.Equal(t, int64(5), created.Translation.ProductID)
	assert.Equal(t, "en", created.Translation.Lang)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProductRequiresTranslation(t *testing.T) {
	catalog, mock, _ := newProductCatalog(t)

	_, err := catalog.CreateProduct(context.Background(), models.CreateProductRequest{SKU: "SKU-1"})

	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProductRejectsDuplicateLanguages(t *testing.T) {
	catalog, _, _ := newProductCatalog(t)

	_, err := catalog.CreateProduct(context.Background(), models.CreateProductRequest{
		SKU: "SKU-1",
		Translations: []models.ProductTranslation{
			{Lang: "en", Name: "A", Slug: "a"},
			{Lang: "en", Name: "B", Slug: "b"},
		},
	})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestCreateProductDuplicateSKURollsBack(t *testing.T) {
	catalog, mock, _ := newProductCatalog(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO products").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "products_sku_key"})
	mock.ExpectRollback()

	_, err := catalog.CreateProduct(context.Background(), models.CreateProductRequest{
		SKU:          "SKU-1",
		Translations: []models.ProductTranslation{{Lang: "en", Name: "A", Slug: "a"}},
	})

	require.True(t, errors.Is(err, apperr.ErrDuplicateReference))
	e, _ := apperr.As(err)
	assert.Equal(t, "products_sku_key", e.Details["value"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProductUnknownCategory(t *testing.T) {
	catalog, mock, _ := newProductCatalog(t)
	categoryID := int64(99)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO products").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "products_category_id_fkey"})
	mock.ExpectRollback()

	_, err := catalog.CreateProduct(context.Background(), models.CreateProductRequest{
		SKU:          "SKU-1",
		CategoryID:   &categoryID,
		Translations: []models.ProductTranslation{{Lang: "en", Name: "A", Slug: "a"}},
	})

	require.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
	e, _ := apperr.As(err)
	assert.Equal(t, "products_category_id_fkey", e.Details["constraint"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBlogPostUnknownAuthor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewLocalizedStore(db, BlogPostTable())

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO blog_posts").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "blog_posts_author_id_fkey"})
	mock.ExpectRollback()

	_, err = store.Create(context.Background(), models.BlogPost{AuthorID: 404},
		[]models.BlogPostTranslation{{Lang: "en", Title: "Hello", Slug: "hello"}})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductWithoutTranslationHasNoFallback(t *testing.T) {
	catalog, mock, cache := newProductCatalog(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN product_translations t ON t.product_id = b.id AND t.lang = $2 WHERE b.id = $1")).
		WithArgs(int64(5), "fr").
		WillReturnRows(sqlmock.NewRows(productJoinCols).
			AddRow(5, "SKU-1", "50.00", 10, nil, true, now, now, nil, nil, nil, nil))

	p, err := catalog.Get(context.Background(), 5, "fr")
	require.NoError(t, err)

	assert.Equal(t, "SKU-1", p.Base.SKU)
	assert.Nil(t, p.Translation)
	assert.False(t, p.Translated())
	assert.Len(t, cache.entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductServedFromCache(t *testing.T) {
	catalog, mock, cache := newProductCatalog(t)
	now := time.Now()

	mock.ExpectQuery("FROM products b LEFT JOIN product_translations").
		WithArgs(int64(5), "en").
		WillReturnRows(sqlmock.NewRows(productJoinCols).
			AddRow(5, "SKU-1", "50.00", 10, nil, true, now, now, "en", "Cat food", "cat-food", ""))

	first, err := catalog.Get(context.Background(), 5, "en")
	require.NoError(t, err)
	second, err := catalog.Get(context.Background(), 5, "en")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Cat food", second.Translation.Name)
	assert.Len(t, cache.entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductSkipsFillAfterConcurrentWrite(t *testing.T) {
	catalog, mock, cache := newProductCatalog(t)
	now := time.Now()

	// A price update commits between the row read and the cache fill.
	cache.beforeSet = func() {
		cache.beforeSet = nil
		require.NoError(t, cache.InvalidateProduct(context.Background(), 5))
	}

	mock.ExpectQuery("FROM products b LEFT JOIN product_translations").
		WithArgs(int64(5), "en").
		WillReturnRows(sqlmock.NewRows(productJoinCols).
			AddRow(5, "SKU-1", "50.00", 10, nil, true, now, now, "en", "Cat food", "cat-food", ""))
	mock.ExpectQuery("FROM products b LEFT JOIN product_translations").
		WithArgs(int64(5), "en").
		WillReturnRows(sqlmock.NewRows(productJoinCols).
			AddRow(5, "SKU-1", "45.00", 10, nil, true, now, now, "en", "Cat food", "cat-food", ""))

	stale, err := catalog.Get(context.Background(), 5, "en")
	require.NoError(t, err)
	assert.Equal(t, "50", stale.Base.Price.String())
	assert.Empty(t, cache.entries)

	fresh, err := catalog.Get(context.Background(), 5, "en")
	require.NoError(t, err)
	assert.Equal(t, "45", fresh.Base.Price.String())
	assert.Len(t, cache.entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductNotFound(t *testing.T) {
	catalog, mock, _ := newProductCatalog(t)

	mock.ExpectQuery("FROM products b").
		WillReturnRows(sqlmock.NewRows(productJoinCols))

	_, err := catalog.Get(context.Background(), 404, "en")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListProductsPublicOnly(t *testing.T) {
	catalog, mock, _ := newProductCatalog(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("AND t.lang = $1 WHERE b.is_active ORDER BY b.id LIMIT $2 OFFSET $3")).
		WithArgs("en", 20, 0).
		WillReturnRows(sqlmock.NewRows(productJoinCols).
			AddRow(5, "SKU-1", "50.00", 10, nil, true, now, now, "en", "Cat food", "cat-food", "").
			AddRow(6, "SKU-2", "20.00", 0, nil, true, now, now, nil, nil, nil, nil))

	list, err := catalog.List(context.Background(), "en", 20, 0, true)
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.NotNil(t, list[0].Translation)
	assert.Nil(t, list[1].Translation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertTranslationInvalidatesCache(t *testing.T) {
	catalog, mock, cache := newProductCatalog(t)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (product_id, lang) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description")).
		WithArgs(int64(5), "th", "อาหารแมว", "cat-food-th", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tr, err := catalog.UpsertTranslation(context.Background(), 5,
		models.ProductTranslation{Lang: "th", Name: "อาหารแมว", Slug: "cat-food-th"})
	require.NoError(t, err)

	assert.Equal(t, int64(5), tr.ProductID)
	assert.Equal(t, []int64{5}, cache.invalidated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertTranslationUnknownEntity(t *testing.T) {
	catalog, mock, _ := newProductCatalog(t)

	mock.ExpectExec("INSERT INTO product_translations").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := catalog.UpsertTranslation(context.Background(), 404,
		models.ProductTranslation{Lang: "en", Name: "X", Slug: "x"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUpdateProductAllowList(t *testing.T) {
	catalog, mock, cache := newProductCatalog(t)
	now := time.Now()
	price := decimal.NewFromInt(55)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products SET price = $1, updated_at = NOW() WHERE id = $2 RETURNING")).
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnRows(sqlmock.NewRows(productJoinCols[:8]).AddRow(5, "SKU-1", "55.00", 10, nil, true, now, now))

	p, err := catalog.Update(context.Background(), 5, models.UpdateProductRequest{Price: &price})
	require.NoError(t, err)

	assert.True(t, price.Equal(p.Price))
	assert.Equal(t, []int64{5}, cache.invalidated)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewLocalizedStore(db, CategoryTable())

	mock.ExpectExec("DELETE FROM categories WHERE id = \\$1").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.Delete(context.Background(), 9)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestBlogPostTranslations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewLocalizedStore(db, BlogPostTable())

	mock.ExpectQuery("SELECT lang, title, slug, excerpt, content FROM blog_post_translations WHERE post_id = \\$1 ORDER BY lang").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"lang", "title", "slug", "excerpt", "content"}).
			AddRow("en", "Hello", "hello", "", "body").
			AddRow("th", "สวัสดี", "hello-th", "", "เนื้อหา"))

	trs, err := store.Translations(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, trs, 2)
	assert.Equal(t, int64(3), trs[1].PostID)
	assert.Equal(t, "สวัสดี", trs[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
