package cache

import (
	"context"
	"testing"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewProductCache(rdb, ttl), mr
}

func sampleProduct(lang string) models.LocalizedProduct {
	return models.LocalizedProduct{
		Base: models.Product{ID: 5, SKU: "SKU-5", Price: decimal.RequireFromString("50.00"), StockQuantity: 3, IsActive: true},
		Translation: &models.ProductTranslation{
			ProductID: 5, Lang: lang, Name: "Cat food", Slug: "cat-food-" + lang,
		},
	}
}

func TestProductCacheMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	_, ok, err := c.GetProduct(context.Background(), 5, "en")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductCacheRoundTripPerLanguage(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetProduct(ctx, "en", sampleProduct("en"), 0))
	require.NoError(t, c.SetProduct(ctx, "th", sampleProduct("th"), 0))

	en, ok, err := c.GetProduct(ctx, 5, "en")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cat-food-en", en.Translation.Slug)
	assert.True(t, decimal.RequireFromString("50").Equal(en.Base.Price))

	th, ok, err := c.GetProduct(ctx, 5, "th")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "th", th.Translation.Lang)

	assert.Equal(t, time.Minute, mr.TTL("product:5"))
}

func TestProductCacheUntranslatedEntry(t *testing.T) {
	c, _ := newTestCache(t, 0)
	ctx := context.Background()

	p := sampleProduct("en")
	p.Translation = nil
	require.NoError(t, c.SetProduct(ctx, "fr", p, 0))

	got, ok, err := c.GetProduct(ctx, 5, "fr")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, got.Translation)
}

func TestProductCacheInvalidateDropsAllLanguages(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetProduct(ctx, "en", sampleProduct("en"), 0))
	require.NoError(t, c.SetProduct(ctx, "th", sampleProduct("th"), 0))
	require.NoError(t, c.InvalidateProduct(ctx, 5))

	assert.False(t, mr.Exists("product:5"))
	_, ok, err := c.GetProduct(ctx, 5, "th")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductCacheSkipsFillAfterInvalidate(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	version, err := c.ProductVersion(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, c.InvalidateProduct(ctx, 5))
	require.NoError(t, c.SetProduct(ctx, "en", sampleProduct("en"), version))
	assert.False(t, mr.Exists("product:5"))

	version, err = c.ProductVersion(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, c.SetProduct(ctx, "en", sampleProduct("en"), version))
	_, ok, err := c.GetProduct(ctx, 5, "en")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProductCacheCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.HSet("product:5", "en", "{not json")

	_, ok, err := c.GetProduct(context.Background(), 5, "en")
	assert.Error(t, err)
	assert.False(t, ok)
}
