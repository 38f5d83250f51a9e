// Package cache caché en Redis del directorio de catálogo.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

const keyPrefix = "catalog:"

var _ repository.CatalogRepository = (*CatalogCache)(nil)

// CatalogCache lectura a través de Redis sobre el catálogo en BD.
// Los negativos (código inexistente) no se cachean. Si Redis falla se lee directo de la BD.
type CatalogCache struct {
	next repository.CatalogRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewCatalogCache envuelve next con una caché de ttl.
func NewCatalogCache(next repository.CatalogRepository, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CatalogCache {
	return &CatalogCache{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CatalogCache) GetProduct(ctx context.Context, code string) (*entity.Product, error) {
	return cached(ctx, c, "product:"+code, func() (*entity.Product, error) { return c.next.GetProduct(ctx, code) })
}

func (c *CatalogCache) GetState(ctx context.Context, code string) (*entity.State, error) {
	return cached(ctx, c, "state:"+code, func() (*entity.State, error) { return c.next.GetState(ctx, code) })
}

func (c *CatalogCache) GetOEM(ctx context.Context, code string) (*entity.OEM, error) {
	return cached(ctx, c, "oem:"+code, func() (*entity.OEM, error) { return c.next.GetOEM(ctx, code) })
}

func (c *CatalogCache) GetDealer(ctx context.Context, id string) (*entity.Dealer, error) {
	return cached(ctx, c, "dealer:"+id, func() (*entity.Dealer, error) { return c.next.GetDealer(ctx, id) })
}

func (c *CatalogCache) GetRTO(ctx context.Context, code string) (*entity.RTO, error) {
	return cached(ctx, c, "rto:"+code, func() (*entity.RTO, error) { return c.next.GetRTO(ctx, code) })
}

// IsOEMAuthorized cachea solo autorizaciones positivas.
func (c *CatalogCache) IsOEMAuthorized(ctx context.Context, oemCode, stateCode string) (bool, error) {
	key := keyPrefix + "auth:" + oemCode + ":" + stateCode
	if n, err := c.rdb.Exists(ctx, key).Result(); err == nil && n == 1 {
		return true, nil
	}
	ok, err := c.next.IsOEMAuthorized(ctx, oemCode, stateCode)
	if err != nil || !ok {
		return ok, err
	}
	if err := c.rdb.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("catalog cache: set")
	}
	return true, nil
}

// Invalidate borra todas las entradas del catálogo (tras un seed).
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func cached[T any](ctx context.Context, c *CatalogCache, key string, load func() (*T, error)) (*T, error) {
	key = keyPrefix + key
	val, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out T
		if jerr := json.Unmarshal(val, &out); jerr == nil {
			return &out, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("catalog cache: get")
	}

	out, err := load()
	if err != nil || out == nil {
		return out, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("catalog cache: set")
	}
	return out, nil
}
