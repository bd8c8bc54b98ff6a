package locationrepo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"lagerscan/internal/domain"
	"lagerscan/internal/pkg/apiclient"
	"lagerscan/internal/pkg/logger"
)

// LocationRepository implementa as operações CRUD de locais ("warehouses" na API).
type LocationRepository struct {
	API    *apiclient.Client
	logger logger.Logger
}

// NewLocationRepository cria e retorna uma nova instância do Repositório de Locais.
func NewLocationRepository(api *apiclient.Client, logger logger.Logger) *LocationRepository {
	return &LocationRepository{API: api, logger: logger}
}

func locationPath(id int64) string {
	return "/warehouses/" + strconv.FormatInt(id, 10)
}

// CreateLocation cria um novo local no backend.
func (r *LocationRepository) CreateLocation(ctx context.Context, req domain.CreateLocationRequest) (domain.Location, error) {
	r.logger.Debug("Iniciando CreateLocation no repositório.", map[string]interface{}{"name": req.Name})

	var location domain.Location
	if err := r.API.Do(ctx, http.MethodPost, "/warehouses", nil, req, &location); err != nil {
		return domain.Location{}, err
	}

	r.logger.Info("Local criado com sucesso.", map[string]interface{}{"id": location.ID, "name": location.Name})
	return location, nil
}

// GetLocationByID busca um local pelo ID.
func (r *LocationRepository) GetLocationByID(ctx context.Context, id int64) (domain.Location, error) {
	r.logger.Debug("Iniciando GetLocationByID no repositório.", map[string]interface{}{"id": id})

	var location domain.Location
	if err := r.API.Do(ctx, http.MethodGet, locationPath(id), nil, nil, &location); err != nil {
		return domain.Location{}, err
	}
	return location, nil
}

// GetAllLocations busca os locais; o backend ordena por nome.
func (r *LocationRepository) GetAllLocations(ctx context.Context, includeInactive bool) ([]domain.Location, error) {
	r.logger.Debug("Iniciando GetAllLocations no repositório.", nil)

	query := url.Values{}
	if includeInactive {
		query.Set("active_only", "false")
	}

	var locations []domain.Location
	if err := r.API.Do(ctx, http.MethodGet, "/warehouses", query, nil, &locations); err != nil {
		return nil, err
	}

	r.logger.Info("GetAllLocations concluído com sucesso.", map[string]interface{}{"total_locations": len(locations)})
	return locations, nil
}

// UpdateLocation aplica uma atualização parcial (PATCH).
func (r *LocationRepository) UpdateLocation(ctx context.Context, id int64, req domain.UpdateLocationRequest) (domain.Location, error) {
	r.logger.Debug("Iniciando UpdateLocation no repositório.", map[string]interface{}{"id": id})

	var location domain.Location
	if err := r.API.Do(ctx, http.MethodPatch, locationPath(id), nil, req, &location); err != nil {
		return domain.Location{}, err
	}

	r.logger.Info("Local atualizado com sucesso.", map[string]interface{}{"id": location.ID, "name": location.Name})
	return location, nil
}

// DeleteLocation remove um local; o backend desassocia os itens que o referenciavam.
func (r *LocationRepository) DeleteLocation(ctx context.Context, id int64) error {
	r.logger.Debug("Iniciando DeleteLocation no repositório.", map[string]interface{}{"id": id})

	if err := r.API.Do(ctx, http.MethodDelete, locationPath(id), nil, nil, nil); err != nil {
		return err
	}

	r.logger.Info("Local deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// GetLocationItems lista os itens associados a um local.
func (r *LocationRepository) GetLocationItems(ctx context.Context, id int64, includeInactive bool) ([]domain.Item, error) {
	r.logger.Debug("Iniciando GetLocationItems no repositório.", map[string]interface{}{"id": id})

	query := url.Values{}
	if includeInactive {
		query.Set("active_only", "false")
	}

	var items []domain.Item
	if err := r.API.Do(ctx, http.MethodGet, locationPath(id)+"/items", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}
