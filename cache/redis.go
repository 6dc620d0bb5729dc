package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/config"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func InitRedis(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", cfg.Addr()))
	return rdb, nil
}

// ProductCache stores localized product reads in one hash per product, one
// field per language, so a single DEL drops every language at once.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func productKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

func versionKey(id int64) string {
	return productKey(id) + ":version"
}

func (c *ProductCache) GetProduct(ctx context.Context, id int64, lang string) (models.LocalizedProduct, bool, error) {
	var p models.LocalizedProduct

	data, err := c.rdb.HGet(ctx, productKey(id), lang).Bytes()
	if errors.Is(err, redis.Nil) {
		return p, false, nil
	}
	if err != nil {
		return p, false, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, false, fmt.Errorf("decode cached product %d: %w", id, err)
	}
	return p, true, nil
}

// ProductVersion returns the invalidation counter of a product. A fill that
// read the database after observing version v is only stored while the
// counter is still v.
func (c *ProductCache) ProductVersion(ctx context.Context, id int64) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetProduct stores p for lang unless the product was invalidated since
// version was read. A skipped write is not an error.
func (c *ProductCache) SetProduct(ctx context.Context, lang string, p models.LocalizedProduct, version int64) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	key := productKey(p.Base.ID)
	vkey := versionKey(p.Base.ID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, lang, data)
			if c.ttl > 0 {
				pipe.Expire(ctx, key, c.ttl)
			}
			return nil
		})
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// InvalidateProduct drops every language of a product and bumps its version
// so in-flight fills that read the old row are discarded.
func (c *ProductCache) InvalidateProduct(ctx context.Context, id int64) error {
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, versionKey(id))
	pipe.Del(ctx, productKey(id))
	_, err := pipe.Exec(ctx)
	return err
}
