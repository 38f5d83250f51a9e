package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/ledger"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
	"github.com/jhoicas/qrcert-api/pkg/daterange"
)

// InventoryHandler reportes y movimientos del libro de inventario (protegido).
type InventoryHandler struct {
	uc *ledger.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *ledger.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// Stats godoc
// @Summary      Cifras de inventario
// @Description  inward/outward/used dentro del rango; in_stock siempre con toda la historia.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        state_code    query  string  false  "Estado"
// @Param        oem_code      query  string  false  "OEM"
// @Param        product_code  query  string  false  "Producto"
// @Param        from          query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to            query  string  false  "Hasta (inclusivo)"
// @Success      200  {object}  dto.StatsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stats [get]
func (h *InventoryHandler) Stats(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var q dto.StatsQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	filter, err := statsFilter(q)
	if err != nil {
		return writeError(c, err)
	}
	s, err := h.uc.ComputeStats(c.UserContext(), actor, filter)
	if err != nil {
		return writeError(c, err)
	}
	products := make([]dto.ProductStatsDTO, 0, len(s.Products))
	for _, p := range s.Products {
		products = append(products, dto.ToProductStatsDTO(p))
	}
	return c.JSON(dto.StatsResponse{
		StateCode: s.Filter.StateCode,
		OEMCode:   s.Filter.OEMCode,
		From:      s.Filter.From,
		To:        s.Filter.To,
		Products:  products,
		Total:     dto.ToProductStatsDTO(s.Total),
	})
}

// Outward godoc
// @Summary      Registrar salida (despacho)
// @Description  Rechaza con 409 si la cantidad supera el stock disponible del alcance.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "product_code, state_code, oem_code, quantity, dealer_id, serial_from/serial_to"
// @Success      201   {object}  dto.LedgerRowResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/outward [post]
func (h *InventoryHandler) Outward(c *fiber.Ctx) error {
	return h.movement(c, h.uc.CreateOutwardMovement)
}

// Inward godoc
// @Summary      Registrar entrada manual
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "product_code, state_code, oem_code, quantity"
// @Success      201   {object}  dto.LedgerRowResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/inventory/inward [post]
func (h *InventoryHandler) Inward(c *fiber.Ctx) error {
	return h.movement(c, h.uc.CreateInwardMovement)
}

type movementFunc func(context.Context, entity.Actor, dto.MovementRequest) (*entity.InventoryLogEntry, error)

func (h *InventoryHandler) movement(c *fiber.Ctx, create movementFunc) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	e, err := create(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLogEntryResponse(e))
}

// Logs godoc
// @Summary      Feed de movimientos
// @Description  Movimientos manuales más lotes COMPLETED como entradas, más recientes primero, con tope fijo.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        type          query  string  false  "INWARD | OUTWARD"
// @Param        state_code    query  string  false  "Estado"
// @Param        oem_code      query  string  false  "OEM"
// @Param        product_code  query  string  false  "Producto"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Success      200  {array}   dto.LedgerRowResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/logs [get]
func (h *InventoryHandler) Logs(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var q dto.LogQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	filter, err := statsFilter(q.StatsQuery)
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.uc.ListLogs(c.UserContext(), actor, filter, q.Type)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LedgerRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ToLedgerRowResponse(r))
	}
	return c.JSON(out)
}

// CorrectLog godoc
// @Summary      Corregir movimiento manual (SUPER_ADMIN)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del movimiento"
// @Param        body  body  dto.CorrectLogRequest  true  "quantity y/o remark"
// @Success      200   {object}  dto.LedgerRowResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/logs/{id} [patch]
func (h *InventoryHandler) CorrectLog(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CorrectLogRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	e, err := h.uc.CorrectLogEntry(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToLogEntryResponse(e))
}

// PurgeLog godoc
// @Summary      Eliminar movimiento manual (SUPER_ADMIN)
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del movimiento"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/logs/{id} [delete]
func (h *InventoryHandler) PurgeLog(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.uc.PurgeLogEntry(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// statsFilter traduce la query a repository.StatsFilter. Fechas mal formadas son ErrValidation.
func statsFilter(q dto.StatsQuery) (repository.StatsFilter, error) {
	from, to, err := daterange.Parse(q.From, q.To)
	if err != nil {
		return repository.StatsFilter{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return repository.StatsFilter{
		StateCode:   q.StateCode,
		OEMCode:     q.OEMCode,
		ProductCode: q.ProductCode,
		From:        from,
		To:          to,
	}, nil
}
