package dto

import (
	"time"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/inventory"
)

// MovementRequest body para POST /api/inventory/outward y /api/inventory/inward.
// SerialFrom/SerialTo describen opcionalmente el rango físico despachado o recibido.
type MovementRequest struct {
	ProductCode string  `json:"product_code" validate:"required,max=32"`
	StateCode   string  `json:"state_code" validate:"required,max=32"`
	OEMCode     string  `json:"oem_code" validate:"required,max=32"`
	Quantity    int64   `json:"quantity" validate:"required,gt=0"`
	DealerID    *string `json:"dealer_id,omitempty" validate:"omitempty,min=1,max=64"`
	SerialFrom  *int64  `json:"serial_from,omitempty" validate:"omitempty,gt=0"`
	SerialTo    *int64  `json:"serial_to,omitempty" validate:"omitempty,gt=0"`
	Remark      string  `json:"remark" validate:"max=500"`
}

// CorrectLogRequest body para PATCH /api/inventory/logs/:id (solo SUPER_ADMIN).
type CorrectLogRequest struct {
	Quantity *int64  `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Remark   *string `json:"remark,omitempty" validate:"omitempty,max=500"`
}

// StatsQuery filtros de GET /api/inventory/stats.
type StatsQuery struct {
	DateRangeQuery
	StateCode   string `query:"state_code"`
	OEMCode     string `query:"oem_code"`
	ProductCode string `query:"product_code"`
}

// LogQuery filtros de GET /api/inventory/logs.
type LogQuery struct {
	StatsQuery
	Type string `query:"type"`
}

// ProductStatsDTO cifras por producto.
type ProductStatsDTO struct {
	ProductCode string `json:"product_code"`
	Inward      int64  `json:"inward"`
	Outward     int64  `json:"outward"`
	InStock     int64  `json:"in_stock"`
	Used        int64  `json:"used"`
}

// StatsResponse respuesta de GET /api/inventory/stats.
type StatsResponse struct {
	StateCode string            `json:"state_code,omitempty"`
	OEMCode   string            `json:"oem_code,omitempty"`
	From      *time.Time        `json:"from,omitempty"`
	To        *time.Time        `json:"to,omitempty"`
	Products  []ProductStatsDTO `json:"products"`
	Total     ProductStatsDTO   `json:"total"`
}

// ToProductStatsDTO convierte las cifras de dominio.
func ToProductStatsDTO(s inventory.ProductStats) ProductStatsDTO {
	return ProductStatsDTO{
		ProductCode: s.ProductCode,
		Inward:      s.Inward,
		Outward:     s.Outward,
		InStock:     s.InStock,
		Used:        s.Used,
	}
}

// LedgerRowResponse fila del feed de movimientos.
type LedgerRowResponse struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Type        string    `json:"type"`
	ProductCode string    `json:"product_code"`
	StateCode   string    `json:"state_code"`
	OEMCode     string    `json:"oem_code"`
	Quantity    int64     `json:"quantity"`
	DealerID    *string   `json:"dealer_id,omitempty"`
	SerialFrom  *int64    `json:"serial_from,omitempty"`
	SerialTo    *int64    `json:"serial_to,omitempty"`
	Remark      string    `json:"remark,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToLedgerRowResponse convierte la fila de dominio.
func ToLedgerRowResponse(r entity.LedgerRow) LedgerRowResponse {
	return LedgerRowResponse{
		ID:          r.ID,
		Source:      r.Source,
		Type:        r.Type,
		ProductCode: r.ProductCode,
		StateCode:   r.StateCode,
		OEMCode:     r.OEMCode,
		Quantity:    r.Quantity,
		DealerID:    r.DealerID,
		SerialFrom:  r.SerialFrom,
		SerialTo:    r.SerialTo,
		Remark:      r.Remark,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

// LogEntryResponse movimiento manual recién creado o corregido.
type LogEntryResponse = LedgerRowResponse

// ToLogEntryResponse convierte un movimiento manual.
func ToLogEntryResponse(e *entity.InventoryLogEntry) LogEntryResponse {
	return LedgerRowResponse{
		ID:          e.ID,
		Source:      entity.LogSourceManual,
		Type:        e.Type,
		ProductCode: e.ProductCode,
		StateCode:   e.StateCode,
		OEMCode:     e.OEMCode,
		Quantity:    e.Quantity,
		DealerID:    e.DealerID,
		SerialFrom:  e.SerialFrom,
		SerialTo:    e.SerialTo,
		Remark:      e.Remark,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}
