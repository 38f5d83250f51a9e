package entity

// Product producto certificable del catálogo (p. ej. lámina reflectiva).
type Product struct {
	Code   string
	Name   string
	Active bool
}

// State estado o provincia emisora.
type State struct {
	Code   string
	Name   string
	Active bool
}

// OEM fabricante autorizado a emitir lotes.
type OEM struct {
	Code   string
	Name   string
	Active bool
}

// Dealer distribuidor que redime códigos y emite certificados.
type Dealer struct {
	ID        string
	Name      string
	Phone     string
	Address   string
	TaxID     string
	StateCode string
	OEMCodes  []string
	Active    bool
}

// ServesOEM indica si el dealer distribuye para el OEM dado.
func (d *Dealer) ServesOEM(oemCode string) bool {
	for _, c := range d.OEMCodes {
		if c == oemCode {
			return true
		}
	}
	return false
}

// Details devuelve los datos del dealer para imprimir en un certificado.
func (d *Dealer) Details() DealerDetails {
	return DealerDetails{Name: d.Name, Phone: d.Phone, Address: d.Address, TaxID: d.TaxID}
}

// RTO oficina regional de tránsito.
type RTO struct {
	Code      string
	Name      string
	StateCode string
}
