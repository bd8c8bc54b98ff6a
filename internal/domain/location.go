package domain

// Location representa um local de armazenamento nomeado ("warehouse" na API).
// Itens referenciam um Location pelo ID no momento da criação.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"location,omitempty"` // descrição livre do endereço físico
	CreatedAt Timestamp `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// CreateLocationRequest é o payload de criação de um local.
type CreateLocationRequest struct {
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"location,omitempty"`
}

// UpdateLocationRequest é o payload parcial (PATCH) de um local; campos nil não mudam.
type UpdateLocationRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Address  *string `json:"location,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
