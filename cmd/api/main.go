package main

import (
	"context"
	nethttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/qrcert-api/internal/application/issuance"
	"github.com/jhoicas/qrcert-api/internal/application/ledger"
	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/application/processing"
	"github.com/jhoicas/qrcert-api/internal/application/redemption"
	"github.com/jhoicas/qrcert-api/internal/domain/qrvalue"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/cache"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/catalogcsv"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/memory"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/qrcert-api/internal/infrastructure/pdf"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/postgres"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/queue"
	httpRouter "github.com/jhoicas/qrcert-api/internal/interfaces/http"
	"github.com/jhoicas/qrcert-api/internal/interfaces/ws"
	"github.com/jhoicas/qrcert-api/pkg/config"
	"github.com/jhoicas/qrcert-api/pkg/logger"
)

// storage repositorios compartidos por los casos de uso, según STORAGE_DRIVER.
type storage struct {
	txRunner     ports.TxRunner
	batches      repository.BatchRepository
	qrCodes      repository.QrCodeRepository
	certificates repository.CertificateRepository
	logs         repository.InventoryLogRepository
	catalog      repository.CatalogRepository
	migrated     bool // se aplicaron migraciones (pueden incluir el seed del catálogo)
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Str("queue", cfg.Worker.QueueDriver).
		Msg("iniciando aplicación")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer st.close()

	// Redis: cola de lotes, DLQ, lock del barrido y caché de catálogo.
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("REDIS_URL inválido")
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer func() { _ = rdb.Close() }()
	}

	catalog := st.catalog
	if rdb != nil && cfg.Catalog.CacheTTL > 0 {
		cc := cache.NewCatalogCache(st.catalog, rdb, cfg.Catalog.CacheTTL, log.Component("catalog_cache"))
		if st.migrated {
			if err := cc.Invalidate(ctx); err != nil {
				log.Warn().Err(err).Msg("no se pudo invalidar la caché de catálogo")
			}
		}
		catalog = cc
	}

	var m ports.Metrics = ports.NopMetrics{}
	var prom *metrics.Prometheus
	var metricsHandler nethttp.Handler
	if cfg.App.MetricsEnabled {
		prom = metrics.New()
		m, metricsHandler = prom, prom.Handler()
	}

	var (
		batchQueue ports.BatchQueue
		source     queue.Source
		dlq        ports.DeadLetterSink
		leader     queue.Leader
	)
	if cfg.Worker.QueueDriver == "redis" {
		rq := queue.NewRedisQueue(rdb)
		rdlq := queue.NewRedisDLQ(rdb, log.Component("dlq"))
		batchQueue, source, dlq = rq, rq, rdlq
		leader = queue.NewRedisLeader(rdb)
		if prom != nil {
			if err := prom.RegisterQueueDepth(queue.QueueBatchMaterialize, rq.Length); err != nil {
				log.Fatal().Err(err).Msg("métrica de cola")
			}
			if err := prom.RegisterQueueDepth(queue.DLQPrefix+queue.QueueBatchMaterialize, rdlq.Length); err != nil {
				log.Fatal().Err(err).Msg("métrica de DLQ")
			}
		}
	} else {
		lq := queue.NewLocalQueue(0)
		batchQueue, source = lq, lq
		dlq = queue.NewLogDLQ(log.Component("dlq"))
		leader = queue.LocalLeader{}
	}

	signer, err := qrvalue.NewSigner(cfg.Issuance.QRSigningSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("QR_SIGNING_SECRET")
	}

	hub := ws.NewHub(256, log.Component("ws"))
	processor := processing.NewBatchProcessor(st.txRunner, st.batches, signer, dlq, hub, m, log.Component("processor"))
	workers := queue.NewWorkerPool(source, processor, cfg.Worker.PoolSize, log.Component("worker_pool"))
	sweeper := queue.NewSweeper(st.batches, batchQueue, leader, cfg.Worker.SweepInterval, cfg.Worker.StaleAfter, log.Component("sweeper"))

	var background sync.WaitGroup
	background.Add(3)
	go func() { defer background.Done(); hub.Run(ctx) }()
	go func() { defer background.Done(); _ = workers.Run(ctx) }()
	go func() { defer background.Done(); sweeper.Run(ctx) }()

	issuanceUC := issuance.NewReserveBatchUseCase(
		st.txRunner, st.batches, st.qrCodes, catalog, batchQueue, m,
		issuance.Config{MaxQuantity: cfg.Issuance.MaxQuantity}, log.Component("issuance"),
	)
	// PDF: certificado imprimible con el QR redimido
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)
	redeemUC := redemption.NewRedeemUseCase(st.txRunner, st.certificates, catalog, signer, pdfGenerator, m, log.Component("redemption"))
	ledgerUC := ledger.NewLedgerUseCase(st.txRunner, st.logs, st.batches, catalog, m, cfg.Issuance.LogPageSize, log.Component("ledger"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "QR Cert API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Issuance:   issuanceUC,
		Redemption: redeemUC,
		Ledger:     ledgerUC,
		Hub:        hub,
		Metrics:    metricsHandler,
		JWTSecret:  cfg.JWT.Secret,
		AppName:    cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Los lotes en curso quedan PENDING y el barrido los retoma en el próximo arranque.
	cancel()
	background.Wait()

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.StorageDriver == "memory" {
		store := memory.New()
		cat := store.Catalog()
		// Los CSVs ausentes se omiten: sin directorio el catálogo queda vacío.
		seed, err := catalogcsv.Load(cfg.Catalog.SeedDir, cfg.Catalog.Charset)
		if err != nil {
			return nil, err
		}
		seed.Apply(cat)
		log.Info().Str("dir", cfg.Catalog.SeedDir).Int("dealers", len(seed.Dealers)).Msg("catálogo en memoria cargado")
		return &storage{
			txRunner:     store,
			batches:      store.Batches(),
			qrCodes:      store.QrCodes(),
			certificates: store.Certificates(),
			logs:         store.InventoryLogs(),
			catalog:      cat,
			close:        func() {},
		}, nil
	}

	migrated := false
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			return nil, err
		}
		migrated = true
		log.Info().Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		txRunner:     postgres.NewTxRunner(pool),
		batches:      postgres.NewBatchRepository(pool),
		qrCodes:      postgres.NewQrCodeRepository(pool),
		certificates: postgres.NewCertificateRepository(pool),
		logs:         postgres.NewInventoryLogRepository(pool),
		catalog:      postgres.NewCatalogRepository(pool),
		migrated:     migrated,
		close:        pool.Close,
	}, nil
}
