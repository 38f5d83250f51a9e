package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("QUEUE_DRIVER", "local")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, int64(1000), cfg.Issuance.MaxQuantity)
	assert.Equal(t, 100, cfg.Issuance.LogPageSize)
	assert.Equal(t, 4, cfg.Worker.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.Worker.SweepInterval)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Setenv("QUEUE_DRIVER", "local")
	t.Setenv("ISSUANCE_MAX_QUANTITY", "250")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(250), cfg.Issuance.MaxQuantity)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_RedisObligatorioConColaRedis(t *testing.T) {
	t.Setenv("QUEUE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "qrcert", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/qrcert?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
