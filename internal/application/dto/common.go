package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto y el tope máximo.
func (p *PageRequest) DefaultPage(max int) {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if max > 0 && p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DateRangeQuery rango de fechas inclusivo en query string (RFC3339 o YYYY-MM-DD).
type DateRangeQuery struct {
	From string `query:"from"`
	To   string `query:"to"`
}
