package locationservice

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
)

// LocationRepository define o contrato que o Serviço de Locais espera da camada de acesso ao backend.
type LocationRepository interface {
	CreateLocation(ctx context.Context, req domain.CreateLocationRequest) (domain.Location, error)
	GetLocationByID(ctx context.Context, id int64) (domain.Location, error)
	GetAllLocations(ctx context.Context, includeInactive bool) ([]domain.Location, error)
	UpdateLocation(ctx context.Context, id int64, req domain.UpdateLocationRequest) (domain.Location, error)
	DeleteLocation(ctx context.Context, id int64) error
	GetLocationItems(ctx context.Context, id int64, includeInactive bool) ([]domain.Item, error)
}

// Service implementa o Diretório de Locais.
type Service struct {
	repo     LocationRepository
	validate *validator.Validate
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Locais.
func NewService(repo LocationRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

// CreateLocation cria um novo local após validações de negócio.
func (s *Service) CreateLocation(ctx context.Context, req domain.CreateLocationRequest) (domain.Location, error) {
	s.logger.Debug("Iniciando criação de local no serviço.", map[string]interface{}{"name": req.Name})

	req.Name = strings.TrimSpace(req.Name)
	if req.Address != nil {
		addr := strings.TrimSpace(*req.Address)
		if addr == "" {
			req.Address = nil
		} else {
			req.Address = &addr
		}
	}
	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("Falha na validação do nome do local.", map[string]interface{}{"name": req.Name, "error": err.Error()})
		return domain.Location{}, apperror.NewValidationError("O nome do local não pode ser vazio.")
	}

	created, err := s.repo.CreateLocation(ctx, req)
	if err != nil {
		s.logger.Error("Falha ao criar local no backend.", err)
		return domain.Location{}, apperror.Wrap(err, "Falha interna ao criar local.")
	}

	s.logger.Info("Local criado com sucesso.", map[string]interface{}{"id": created.ID, "name": created.Name})
	return created, nil
}

// GetLocationByID busca um local pelo ID.
func (s *Service) GetLocationByID(ctx context.Context, id int64) (domain.Location, error) {
	s.logger.Debug("Iniciando busca de local por ID no serviço.", map[string]interface{}{"id": id})

	if err := validateID(id); err != nil {
		return domain.Location{}, err
	}

	location, err := s.repo.GetLocationByID(ctx, id)
	if err != nil {
		s.logger.Error("Falha ao buscar local no backend.", err)
		return domain.Location{}, apperror.Wrap(err, "Falha interna ao buscar local.")
	}
	return location, nil
}

// GetAllLocations busca os locais; por padrão somente os ativos.
func (s *Service) GetAllLocations(ctx context.Context, includeInactive bool) ([]domain.Location, error) {
	s.logger.Debug("Iniciando busca de todos os locais no serviço.", nil)

	locations, err := s.repo.GetAllLocations(ctx, includeInactive)
	if err != nil {
		s.logger.Error("Falha ao buscar todos os locais no backend.", err)
		return nil, apperror.Wrap(err, "Falha interna ao buscar locais.")
	}

	s.logger.Info("Todos os locais encontrados com sucesso.", map[string]interface{}{"count": len(locations)})
	return locations, nil
}

// UpdateLocation altera parcialmente um local (nome, endereço, ativo).
func (s *Service) UpdateLocation(ctx context.Context, id int64, req domain.UpdateLocationRequest) (domain.Location, error) {
	s.logger.Debug("Iniciando atualização de local no serviço.", map[string]interface{}{"id": id})

	if err := validateID(id); err != nil {
		return domain.Location{}, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("Falha na validação da atualização do local.", map[string]interface{}{"id": id, "error": err.Error()})
		return domain.Location{}, apperror.NewValidationError("O nome do local não pode ser vazio.")
	}

	updated, err := s.repo.UpdateLocation(ctx, id, req)
	if err != nil {
		s.logger.Error("Falha ao atualizar local no backend.", err)
		return domain.Location{}, apperror.Wrap(err, "Falha interna ao atualizar local.")
	}

	s.logger.Info("Local atualizado com sucesso.", map[string]interface{}{"id": updated.ID, "name": updated.Name})
	return updated, nil
}

// DeleteLocation remove um local. Itens que o referenciam ficam sem local (regra do backend).
func (s *Service) DeleteLocation(ctx context.Context, id int64) error {
	s.logger.Debug("Iniciando exclusão de local no serviço.", map[string]interface{}{"id": id})

	if err := validateID(id); err != nil {
		return err
	}

	if err := s.repo.DeleteLocation(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar local no backend.", err)
		return apperror.Wrap(err, "Falha interna ao deletar local.")
	}

	s.logger.Info("Local deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// GetLocationItems lista os itens de um local.
func (s *Service) GetLocationItems(ctx context.Context, id int64, includeInactive bool) ([]domain.Item, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	items, err := s.repo.GetLocationItems(ctx, id, includeInactive)
	if err != nil {
		s.logger.Error("Falha ao buscar itens do local no backend.", err)
		return nil, apperror.Wrap(err, "Falha interna ao buscar itens do local.")
	}
	return items, nil
}

func validateID(id int64) error {
	if id <= 0 {
		return apperror.NewValidationError("O ID do local deve ser um número positivo.")
	}
	return nil
}
