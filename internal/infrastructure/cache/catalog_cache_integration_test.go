//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/memory"
)

func TestCatalogCache_LeeDeRedisTrasPrimeraCarga(t *testing.T) {
	ctx := context.Background()
	rdC, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	store := memory.New()
	cat := store.Catalog()
	cat.AddDealer(entity.Dealer{ID: "D1", Name: "Motores KA", StateCode: "KA", OEMCodes: []string{"TATA"}, Active: true})
	cat.Authorize("TATA", "KA")

	c := NewCatalogCache(cat, rdb, time.Minute, zerolog.Nop())

	d, err := c.GetDealer(ctx, "D1")
	require.NoError(t, err)
	require.NotNil(t, d)

	// Cambiar la fuente: la caché sigue devolviendo la copia guardada.
	cat.AddDealer(entity.Dealer{ID: "D1", Name: "Renombrado", StateCode: "KA", Active: true})
	d, err = c.GetDealer(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Motores KA", d.Name)
	assert.Equal(t, []string{"TATA"}, d.OEMCodes)

	missing, err := c.GetDealer(ctx, "D9")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := c.IsOEMAuthorized(ctx, "TATA", "KA")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Invalidate(ctx))
	d, err = c.GetDealer(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Renombrado", d.Name)
}
