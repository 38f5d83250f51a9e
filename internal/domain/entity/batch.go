package entity

import "time"

// Estados de un lote de códigos QR.
const (
	BatchStatusPending   = "PENDING"   // rango reservado, códigos aún no materializados
	BatchStatusCompleted = "COMPLETED" // todos los códigos del rango existen
	BatchStatusFailed    = "FAILED"    // materialización fallida; el rango no se recicla
)

// Batch representa un lote de códigos QR numerados para un alcance (estado, OEM, producto).
// SerialEnd - SerialStart + 1 == Quantity. El rango es inmutable una vez asignado.
type Batch struct {
	ID            string
	ProductCode   string
	StateCode     string
	OEMCode       string
	Quantity      int64
	SerialStart   int64
	SerialEnd     int64 // inclusivo
	Status        string
	FailureReason string
	CreatedBy     string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// Scope devuelve el alcance de numeración del lote.
func (b *Batch) Scope() Scope {
	return Scope{StateCode: b.StateCode, OEMCode: b.OEMCode, ProductCode: b.ProductCode}
}

// IsTerminal indica si el lote ya no admite transiciones.
func (b *Batch) IsTerminal() bool {
	return b.Status == BatchStatusCompleted || b.Status == BatchStatusFailed
}

// Serials devuelve la cantidad de seriales del rango reservado.
func (b *Batch) Serials() int64 {
	return b.SerialEnd - b.SerialStart + 1
}
