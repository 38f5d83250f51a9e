// migrate aplica las migraciones embebidas (goose) sobre la base configurada y termina.
// Si hay REDIS_URL, invalida la caché de catálogo: las migraciones pueden traer un seed nuevo.
//
// Uso: go run ./cmd/migrate
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/infrastructure/cache"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/postgres"
	"github.com/jhoicas/qrcert-api/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
		fmt.Fprintf(os.Stderr, "Migrar: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Migraciones aplicadas")

	if cfg.Redis.URL == "" {
		return
	}
	if err := invalidateCatalog(cfg.Redis.URL); err != nil {
		fmt.Fprintf(os.Stderr, "Invalidar caché de catálogo: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Caché de catálogo invalidada")
}

func invalidateCatalog(url string) error {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(opt)
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return cache.NewCatalogCache(nil, rdb, 0, zerolog.Nop()).Invalidate(ctx)
}
