package entity

import "time"

// Tipos de movimiento manual de inventario.
const (
	LogTypeInward  = "INWARD"  // entrada
	LogTypeOutward = "OUTWARD" // salida (despacho a dealer)
)

// Origen de una fila del feed de movimientos.
const (
	LogSourceManual = "MANUAL"
	LogSourceBatch  = "BATCH" // lote COMPLETED presentado como entrada
)

// InventoryLogEntry movimiento manual INWARD u OUTWARD para un alcance.
// Solo se modifica por corrección administrativa y solo se elimina por purga administrativa.
type InventoryLogEntry struct {
	ID          string
	Type        string
	ProductCode string
	StateCode   string
	OEMCode     string
	Quantity    int64
	DealerID    *string
	SerialFrom  *int64
	SerialTo    *int64
	Remark      string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Scope devuelve el alcance del movimiento.
func (e *InventoryLogEntry) Scope() Scope {
	return Scope{StateCode: e.StateCode, OEMCode: e.OEMCode, ProductCode: e.ProductCode}
}

// SignedQuantity devuelve la cantidad con signo según el tipo (OUTWARD negativo).
func (e *InventoryLogEntry) SignedQuantity() int64 {
	if e.Type == LogTypeOutward {
		return -e.Quantity
	}
	return e.Quantity
}

// LedgerRow fila del feed unificado: movimiento manual o lote sintetizado como entrada.
type LedgerRow struct {
	ID          string
	Source      string
	Type        string
	ProductCode string
	StateCode   string
	OEMCode     string
	Quantity    int64
	DealerID    *string
	SerialFrom  *int64
	SerialTo    *int64
	Remark      string
	CreatedBy   string
	CreatedAt   time.Time
}
