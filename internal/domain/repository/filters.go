package repository

import "time"

// StatsFilter filtro explícito de alcance y rango de fechas para reportes de inventario.
// Se pasa por valor: los casos de uso lo copian y ajustan sin efectos sobre el llamador.
// From y To son inclusivos; nil significa sin límite.
type StatsFilter struct {
	StateCode   string
	OEMCode     string
	ProductCode string
	From        *time.Time
	To          *time.Time
}

// AllTime devuelve el mismo alcance sin rango de fechas (base del stock puntual).
func (f StatsFilter) AllTime() StatsFilter {
	f.From = nil
	f.To = nil
	return f
}

// InRange indica si t cae dentro del rango del filtro.
func (f StatsFilter) InRange(t time.Time) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}

// Matches indica si el alcance (estado, OEM, producto) pasa el filtro; vacío = todos.
func (f StatsFilter) Matches(stateCode, oemCode, productCode string) bool {
	return (f.StateCode == "" || f.StateCode == stateCode) &&
		(f.OEMCode == "" || f.OEMCode == oemCode) &&
		(f.ProductCode == "" || f.ProductCode == productCode)
}

// BatchFilter filtro para listar lotes.
type BatchFilter struct {
	Scope  StatsFilter
	Status string
	Limit  int
	Offset int
}

// LogFilter filtro para el feed de movimientos.
type LogFilter struct {
	Scope StatsFilter
	Type  string // INWARD | OUTWARD | vacío
	Limit int
}
