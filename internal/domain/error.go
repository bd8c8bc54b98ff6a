package domain

// ErrorResponse é o corpo de erro devolvido pelo backend.
// O backend atual envia {"detail": "..."}; versões antigas enviavam {"code", "category", "message"}.
type ErrorResponse struct {
	Detail   string `json:"detail,omitempty"`
	Code     int    `json:"code,omitempty"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Text devolve a melhor mensagem disponível no corpo de erro.
func (e ErrorResponse) Text() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
