package itemservice

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
)

// ItemRepository define o contrato que o Serviço de Itens espera da camada de acesso ao backend.
type ItemRepository interface {
	CreateItem(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error)
	GetItemByCode(ctx context.Context, code string) (domain.Item, error)
	CheckoutItem(ctx context.Context, code string) error
	GetAllItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	MoveItem(ctx context.Context, code string, locationID *int64) (domain.Item, error)
}

// Service é o cliente do registro de itens usado pelos fluxos de criação, leitura e listagem.
// Não impõe limite de concorrência: cada chamada é independente.
type Service struct {
	repo     ItemRepository
	validate *validator.Validate
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Itens.
func NewService(repo ItemRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

// Create valida o pedido localmente e registra o item. O código é gerado pelo backend.
func (s *Service) Create(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	s.logger.Debug("Iniciando criação de item no serviço.", map[string]interface{}{"name": req.Name})

	req.Name = strings.TrimSpace(req.Name)
	if req.Quantity != nil {
		qty := strings.TrimSpace(*req.Quantity)
		if qty == "" {
			req.Quantity = nil
		} else {
			req.Quantity = &qty
		}
	}

	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("Falha na validação do item.", map[string]interface{}{"name": req.Name, "error": err.Error()})
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				if fieldErr.Field() == "LocationID" {
					return domain.Item{}, apperror.NewValidationError("O ID do local deve ser um número positivo.")
				}
			}
		}
		return domain.Item{}, apperror.NewValidationError("O nome do item não pode ser vazio.")
	}

	item, err := s.repo.CreateItem(ctx, req)
	if err != nil {
		s.logger.Error("Falha ao criar item no backend.", err)
		return domain.Item{}, apperror.Wrap(err, "Falha interna ao criar item.")
	}

	s.logger.Info("Item criado com sucesso.", map[string]interface{}{"id": item.ID, "code": item.Code})
	return item, nil
}

// Lookup resolve o código lido de uma etiqueta no estado atual do item.
func (s *Service) Lookup(ctx context.Context, code string) (domain.Item, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return domain.Item{}, err
	}

	item, err := s.repo.GetItemByCode(ctx, code)
	if err != nil {
		s.logger.Debug("Código não resolvido.", map[string]interface{}{"code": code, "error": err.Error()})
		return domain.Item{}, apperror.Wrap(err, "Falha interna ao buscar item.")
	}
	return item, nil
}

// Checkout baixa o item. Um item já inativo resulta em Conflict, nunca em sucesso silencioso.
func (s *Service) Checkout(ctx context.Context, code string) error {
	code, err := normalizeCode(code)
	if err != nil {
		return err
	}

	if err := s.repo.CheckoutItem(ctx, code); err != nil {
		s.logger.Warn("Falha ao baixar item.", map[string]interface{}{"code": code, "error": err.Error()})
		return apperror.Wrap(err, "Falha interna ao baixar item.")
	}

	s.logger.Info("Item baixado.", map[string]interface{}{"code": code})
	return nil
}

// List devolve os itens, com filtro opcional por substring no nome. A ordem não é garantida.
func (s *Service) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	filter.Search = strings.TrimSpace(filter.Search)

	items, err := s.repo.GetAllItems(ctx, filter)
	if err != nil {
		s.logger.Error("Falha ao listar itens no backend.", err)
		return nil, apperror.Wrap(err, "Falha interna ao listar itens.")
	}
	return items, nil
}

// Delete remove um item pelo ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.NewValidationError("O ID do item deve ser um número positivo.")
	}

	if err := s.repo.DeleteItem(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar item no backend.", err)
		return apperror.Wrap(err, "Falha interna ao deletar item.")
	}

	s.logger.Info("Item deletado.", map[string]interface{}{"id": id})
	return nil
}

// Move associa o item a outro local; locationID nil o deixa sem local.
func (s *Service) Move(ctx context.Context, code string, locationID *int64) (domain.Item, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return domain.Item{}, err
	}
	if locationID != nil && *locationID <= 0 {
		return domain.Item{}, apperror.NewValidationError("O ID do local deve ser um número positivo.")
	}

	item, err := s.repo.MoveItem(ctx, code, locationID)
	if err != nil {
		s.logger.Error("Falha ao mover item no backend.", err)
		return domain.Item{}, apperror.Wrap(err, "Falha interna ao mover item.")
	}

	s.logger.Info("Item movido.", map[string]interface{}{"code": code})
	return item, nil
}

func normalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", apperror.NewValidationError("O código do item não pode ser vazio.")
	}
	return code, nil
}
