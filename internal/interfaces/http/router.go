package http

import (
	nethttp "net/http"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/qrcert-api/internal/application/issuance"
	"github.com/jhoicas/qrcert-api/internal/application/ledger"
	"github.com/jhoicas/qrcert-api/internal/application/redemption"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/interfaces/ws"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Issuance   *issuance.ReserveBatchUseCase
	Redemption *redemption.RedeemUseCase
	Ledger     *ledger.LedgerUseCase
	Hub        *ws.Hub         // nil = sin /ws/batches
	Metrics    nethttp.Handler // nil = sin /metrics
	JWTSecret  string
	AppName    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	// Push de estado de lotes. El navegador no envía headers en el upgrade: el token va en ?token=.
	if deps.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if !websocket.IsWebSocketUpgrade(c) {
				return fiber.ErrUpgradeRequired
			}
			if c.Get("Authorization") == "" && c.Query("token") != "" {
				c.Request().Header.Set("Authorization", "Bearer "+c.Query("token"))
			}
			return c.Next()
		}, AuthMiddleware(deps.JWTSecret))
		app.Get("/ws/batches", deps.Hub.Handler(LocalActor))
	}

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Lotes
	batches := protected.Group("/batches")
	batchHandler := NewBatchHandler(deps.Issuance)
	batches.Post("/", batchHandler.Reserve)
	batches.Get("/", batchHandler.List)
	batches.Get("/:id", batchHandler.Get)
	batches.Get("/:id/codes", batchHandler.ListCodes)

	// Certificados
	certificates := protected.Group("/certificates")
	certificateHandler := NewCertificateHandler(deps.Redemption)
	certificates.Post("/", certificateHandler.Redeem)
	certificates.Get("/:id", certificateHandler.Get)
	certificates.Get("/:id/pdf", certificateHandler.PDF)

	// Inventario
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	inv.Get("/stats", inventoryHandler.Stats)
	inv.Post("/outward", inventoryHandler.Outward)
	inv.Post("/inward", inventoryHandler.Inward)
	inv.Get("/logs", inventoryHandler.Logs)
	inv.Patch("/logs/:id", RequireRole(entity.RoleSuperAdmin), inventoryHandler.CorrectLog)
	inv.Delete("/logs/:id", RequireRole(entity.RoleSuperAdmin), inventoryHandler.PurgeLog)
}
