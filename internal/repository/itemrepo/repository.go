package itemrepo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"lagerscan/internal/domain"
	"lagerscan/internal/pkg/apiclient"
	"lagerscan/internal/pkg/logger"
)

// ItemRepository acessa os itens no backend remoto via HTTP.
// Não guarda estado além das requisições em andamento.
type ItemRepository struct {
	API    *apiclient.Client
	logger logger.Logger
}

// NewItemRepository cria e retorna uma nova instância do Repositório de Itens.
func NewItemRepository(api *apiclient.Client, logger logger.Logger) *ItemRepository {
	return &ItemRepository{API: api, logger: logger}
}

// createResponse cobre a resposta do POST /items, que em alguns backends não traz todos os campos do item.
type createResponse struct {
	domain.Item
	IsActive *bool `json:"is_active"`
}

// CreateItem envia o item para o backend, que gera ID e Code.
func (r *ItemRepository) CreateItem(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	r.logger.Debug("Iniciando CreateItem no repositório.", map[string]interface{}{"name": req.Name})

	var resp createResponse
	if err := r.API.Do(ctx, http.MethodPost, "/items", nil, req, &resp); err != nil {
		r.logger.Warn("Falha ao criar item no backend.", map[string]interface{}{"name": req.Name, "error": err.Error()})
		return domain.Item{}, err
	}

	item := resp.Item
	// Um item recém-criado está sempre ativo; completa campos omitidos pelo backend.
	item.IsActive = resp.IsActive == nil || *resp.IsActive
	if item.Name == "" {
		item.Name = req.Name
	}
	if item.Quantity == nil {
		item.Quantity = req.Quantity
	}
	if item.LocationID == nil {
		item.LocationID = req.LocationID
	}

	r.logger.Info("Item criado com sucesso.", map[string]interface{}{"id": item.ID, "code": item.Code})
	return item, nil
}

// GetItemByCode busca um item pelo código da etiqueta.
func (r *ItemRepository) GetItemByCode(ctx context.Context, code string) (domain.Item, error) {
	r.logger.Debug("Iniciando GetItemByCode no repositório.", map[string]interface{}{"code": code})

	var item domain.Item
	if err := r.API.Do(ctx, http.MethodGet, "/items/"+url.PathEscape(code), nil, nil, &item); err != nil {
		return domain.Item{}, err
	}

	r.logger.Debug("Item encontrado.", map[string]interface{}{"code": code, "id": item.ID, "active": item.IsActive})
	return item, nil
}

// CheckoutItem marca o item como baixado (inativo).
func (r *ItemRepository) CheckoutItem(ctx context.Context, code string) error {
	r.logger.Debug("Iniciando CheckoutItem no repositório.", map[string]interface{}{"code": code})

	if err := r.API.Do(ctx, http.MethodPost, "/items/"+url.PathEscape(code)+"/checkout", nil, struct{}{}, nil); err != nil {
		return err
	}

	r.logger.Info("Item baixado com sucesso.", map[string]interface{}{"code": code})
	return nil
}

// GetAllItems lista itens, com busca opcional por substring no nome (aplicada no servidor).
func (r *ItemRepository) GetAllItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	r.logger.Debug("Iniciando GetAllItems no repositório.", map[string]interface{}{"search": filter.Search})

	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.IncludeInactive {
		query.Set("active_only", "false")
	}

	var items []domain.Item
	if err := r.API.Do(ctx, http.MethodGet, "/items", query, nil, &items); err != nil {
		return nil, err
	}

	r.logger.Info("GetAllItems concluído com sucesso.", map[string]interface{}{"total_items": len(items)})
	return items, nil
}

// DeleteItem remove um item pelo ID (operação administrativa).
func (r *ItemRepository) DeleteItem(ctx context.Context, id int64) error {
	r.logger.Debug("Iniciando DeleteItem no repositório.", map[string]interface{}{"id": id})

	path := "/items/" + strconv.FormatInt(id, 10)
	if err := r.API.Do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}

	r.logger.Info("Item deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// MoveItem associa o item a outro local; locationID nil desassocia.
func (r *ItemRepository) MoveItem(ctx context.Context, code string, locationID *int64) (domain.Item, error) {
	r.logger.Debug("Iniciando MoveItem no repositório.", map[string]interface{}{"code": code})

	query := url.Values{}
	if locationID != nil {
		query.Set("warehouse_id", strconv.FormatInt(*locationID, 10))
	}

	var item domain.Item
	path := fmt.Sprintf("/items/%s/move", url.PathEscape(code))
	if err := r.API.Do(ctx, http.MethodPost, path, query, struct{}{}, &item); err != nil {
		return domain.Item{}, err
	}
	item.LocationID = locationID

	r.logger.Info("Item movido com sucesso.", map[string]interface{}{"code": code})
	return item, nil
}
