package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// ReserveBatchRequest body para POST /api/batches.
// Quantity se recibe crudo: acepta número o texto y la validación ocurre en el caso de uso.
type ReserveBatchRequest struct {
	ProductCode string          `json:"product_code"`
	StateCode   string          `json:"state_code"`
	OEMCode     string          `json:"oem_code"`
	Quantity    json.RawMessage `json:"quantity"`
}

// QuantityText devuelve la cantidad como texto ("10" para 10 o "10").
func (r ReserveBatchRequest) QuantityText() string {
	raw := strings.TrimSpace(string(r.Quantity))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(r.Quantity, &s); err == nil {
			return s
		}
	}
	return raw
}

// BatchQuery filtros de GET /api/batches.
type BatchQuery struct {
	PageRequest
	DateRangeQuery
	StateCode   string `query:"state_code"`
	OEMCode     string `query:"oem_code"`
	ProductCode string `query:"product_code"`
	Status      string `query:"status"`
}

// BatchResponse representación de un lote.
type BatchResponse struct {
	ID            string     `json:"id"`
	ProductCode   string     `json:"product_code"`
	StateCode     string     `json:"state_code"`
	OEMCode       string     `json:"oem_code"`
	Quantity      int64      `json:"quantity"`
	SerialStart   int64      `json:"serial_start"`
	SerialEnd     int64      `json:"serial_end"`
	Status        string     `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// ToBatchResponse convierte la entidad.
func ToBatchResponse(b *entity.Batch) BatchResponse {
	return BatchResponse{
		ID:            b.ID,
		ProductCode:   b.ProductCode,
		StateCode:     b.StateCode,
		OEMCode:       b.OEMCode,
		Quantity:      b.Quantity,
		SerialStart:   b.SerialStart,
		SerialEnd:     b.SerialEnd,
		Status:        b.Status,
		FailureReason: b.FailureReason,
		CreatedBy:     b.CreatedBy,
		CreatedAt:     b.CreatedAt,
		CompletedAt:   b.CompletedAt,
	}
}

// QrCodeResponse código materializado (para impresión).
type QrCodeResponse struct {
	Serial   int64  `json:"serial"`
	Value    string `json:"value"`
	Redeemed bool   `json:"redeemed"`
}
