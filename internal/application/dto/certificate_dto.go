package dto

import (
	"time"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// RedeemRequest body para POST /api/certificates.
// DealerID solo lo usan los administradores que redimen a nombre de un dealer.
type RedeemRequest struct {
	QrValue         string           `json:"qr_value" validate:"required,max=128"`
	DealerID        string           `json:"dealer_id,omitempty" validate:"omitempty,max=64"`
	Vehicle         VehicleInput     `json:"vehicle"`
	Owner           OwnerInput       `json:"owner"`
	Photos          PhotosInput      `json:"photos"`
	DealerOverrides *DealerOverrides `json:"dealer_overrides,omitempty"`
}

// VehicleInput datos del vehículo.
type VehicleInput struct {
	RegistrationNumber string `json:"registration_number" validate:"required,registration"`
	ChassisNumber      string `json:"chassis_number" validate:"required,alphanum,min=6,max=25"`
	EngineNumber       string `json:"engine_number" validate:"required,alphanum,min=5,max=25"`
	Make               string `json:"make" validate:"required,max=60"`
	Model              string `json:"model" validate:"required,max=60"`
	RTOCode            string `json:"rto_code" validate:"required,max=16"`
}

// OwnerInput datos del propietario.
type OwnerInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,phone"`
	Address string `json:"address" validate:"required,max=300"`
}

// PhotosInput referencias de las fotos obligatorias ya cargadas.
type PhotosInput struct {
	Front string `json:"front" validate:"required,max=512"`
	Rear  string `json:"rear" validate:"required,max=512"`
	Plate string `json:"plate" validate:"required,max=512"`
}

// DealerOverrides datos del dealer que reemplazan los registrados, solo para este certificado.
type DealerOverrides struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Address *string `json:"address,omitempty" validate:"omitempty,min=1,max=300"`
	TaxID   *string `json:"tax_id,omitempty" validate:"omitempty,max=32"`
}

// Apply devuelve d con los campos presentes reemplazados.
func (o *DealerOverrides) Apply(d entity.DealerDetails) entity.DealerDetails {
	if o == nil {
		return d
	}
	if o.Name != nil {
		d.Name = *o.Name
	}
	if o.Phone != nil {
		d.Phone = *o.Phone
	}
	if o.Address != nil {
		d.Address = *o.Address
	}
	if o.TaxID != nil {
		d.TaxID = *o.TaxID
	}
	return d
}

// CertificateResponse representación de un certificado.
type CertificateResponse struct {
	ID            string                   `json:"id"`
	QrCodeID      string                   `json:"qr_code_id"`
	QrValue       string                   `json:"qr_value"`
	ProductCode   string                   `json:"product_code"`
	StateCode     string                   `json:"state_code"`
	OEMCode       string                   `json:"oem_code"`
	DealerID      string                   `json:"dealer_id"`
	DealerDetails entity.DealerDetails     `json:"dealer_details"`
	Vehicle       entity.VehicleDetails    `json:"vehicle"`
	Owner         entity.OwnerDetails      `json:"owner"`
	Photos        entity.CertificatePhotos `json:"photos"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

// ToCertificateResponse convierte la entidad.
func ToCertificateResponse(c *entity.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:            c.ID,
		QrCodeID:      c.QrCodeID,
		QrValue:       c.QrValue,
		ProductCode:   c.ProductCode,
		StateCode:     c.StateCode,
		OEMCode:       c.OEMCode,
		DealerID:      c.DealerID,
		DealerDetails: c.DealerDetails,
		Vehicle:       c.Vehicle,
		Owner:         c.Owner,
		Photos:        c.Photos,
		GeneratedAt:   c.GeneratedAt,
	}
}
