package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/redemption"
)

// CertificateHandler redención de códigos y consulta de certificados (protegido).
type CertificateHandler struct {
	uc *redemption.RedeemUseCase
}

// NewCertificateHandler construye el handler.
func NewCertificateHandler(uc *redemption.RedeemUseCase) *CertificateHandler {
	return &CertificateHandler{uc: uc}
}

// Redeem godoc
// @Summary      Redimir un código QR
// @Description  Consume el código una sola vez y emite el certificado. Un segundo intento responde 409.
// @Tags         certificates
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RedeemRequest  true  "qr_value, vehicle, owner, photos, dealer_overrides"
// @Success      201   {object}  dto.CertificateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/certificates [post]
func (h *CertificateHandler) Redeem(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.RedeemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	cert, err := h.uc.Redeem(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToCertificateResponse(cert))
}

// Get godoc
// @Summary      Obtener certificado
// @Tags         certificates
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del certificado"
// @Success      200  {object}  dto.CertificateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/certificates/{id} [get]
func (h *CertificateHandler) Get(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	cert, err := h.uc.GetCertificate(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCertificateResponse(cert))
}

// PDF godoc
// @Summary      Certificado en PDF
// @Tags         certificates
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del certificado"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/certificates/{id}/pdf [get]
func (h *CertificateHandler) PDF(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	id := c.Params("id")
	out, err := h.uc.RenderPDF(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="certificado-`+id+`.pdf"`)
	return c.Send(out)
}
