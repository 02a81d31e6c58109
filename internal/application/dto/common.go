package dto

// PageRequest paginación por query string (?limit=&offset=).
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage completa el límite cuando no viene en la query.
func (p *PageRequest) DefaultPage() {
	if p.Limit == 0 {
		p.Limit = 20
	}
}

// PageResponse metadatos de página; Count es el número de elementos devueltos.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"` // campo -> regla incumplida
}
