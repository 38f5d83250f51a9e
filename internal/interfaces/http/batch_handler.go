package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/issuance"
)

// BatchHandler emisión y consulta de lotes de códigos QR (protegido).
type BatchHandler struct {
	uc *issuance.ReserveBatchUseCase
}

// NewBatchHandler construye el handler.
func NewBatchHandler(uc *issuance.ReserveBatchUseCase) *BatchHandler {
	return &BatchHandler{uc: uc}
}

// Reserve godoc
// @Summary      Reservar un lote de códigos QR
// @Description  Reserva un rango contiguo de seriales y encola su materialización. El lote nace PENDING.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveBatchRequest  true  "product_code, state_code, oem_code, quantity (1..máximo)"
// @Success      202   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) Reserve(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReserveBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	b, err := h.uc.ReserveBatch(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.ToBatchResponse(b))
}

// Get godoc
// @Summary      Estado de un lote
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) Get(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.uc.GetBatch(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToBatchResponse(b))
}

// List godoc
// @Summary      Listar lotes
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        state_code    query  string  false  "Estado"
// @Param        oem_code      query  string  false  "OEM"
// @Param        product_code  query  string  false  "Producto"
// @Param        status        query  string  false  "PENDING | COMPLETED | FAILED"
// @Param        from          query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to            query  string  false  "Hasta (inclusivo)"
// @Param        limit         query  int     false  "Tamaño de página"
// @Param        offset        query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var q dto.BatchQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	list, err := h.uc.ListBatches(c.UserContext(), actor, q)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		items = append(items, dto.ToBatchResponse(b))
	}
	return c.JSON(fiber.Map{"items": items, "page": dto.PageResponse{Limit: q.Limit, Offset: q.Offset}})
}

// ListCodes godoc
// @Summary      Códigos de un lote COMPLETED
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del lote"
// @Param        limit   query  int     false  "Tamaño de página"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.QrCodeResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/codes [get]
func (h *BatchHandler) ListCodes(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	codes, err := h.uc.ListCodes(c.UserContext(), actor, c.Params("id"), page)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.QrCodeResponse, 0, len(codes))
	for _, q := range codes {
		out = append(out, dto.QrCodeResponse{Serial: q.Serial, Value: q.Value, Redeemed: q.Redeemed()})
	}
	return c.JSON(out)
}
