package domain

// Item representa uma unidade física de estoque com etiqueta.
// Code é o token impresso na etiqueta e a única chave usada na leitura por câmera.
// IsActive começa true e vira false exatamente uma vez, na baixa (checkout).
type Item struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Quantity   *string   `json:"quantity"`
	LocationID *int64    `json:"warehouse_id"`
	CreatedAt  Timestamp `json:"created_at"`
	IsActive   bool      `json:"is_active"`
}

// CreateItemRequest é o payload de criação; o backend atribui ID, Code e CreatedAt.
type CreateItemRequest struct {
	Name       string  `json:"name" validate:"required"`
	Quantity   *string `json:"quantity"`
	LocationID *int64  `json:"warehouse_id" validate:"omitempty,gt=0"`
}

// ItemFilter define os parâmetros de listagem.
type ItemFilter struct {
	Search          string // substring no nome, aplicada no servidor
	IncludeInactive bool   // inclui itens já baixados
}
