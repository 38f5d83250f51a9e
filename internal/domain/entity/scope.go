package entity

import "strings"

// Scope es la clave (estado, OEM, producto) que delimita la numeración de seriales
// y el cálculo de stock.
type Scope struct {
	StateCode   string
	OEMCode     string
	ProductCode string
}

// Key devuelve una representación estable del alcance, usada como clave de bloqueo.
func (s Scope) Key() string {
	return strings.Join([]string{s.StateCode, s.OEMCode, s.ProductCode}, ":")
}

// Complete indica si los tres códigos están presentes.
func (s Scope) Complete() bool {
	return s.StateCode != "" && s.OEMCode != "" && s.ProductCode != ""
}
