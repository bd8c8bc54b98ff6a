package location

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"lagerscan/internal/cli/item"
	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
)

// LocationService define o contrato que o Handler espera do diretório de locais.
type LocationService interface {
	CreateLocation(ctx context.Context, req domain.CreateLocationRequest) (domain.Location, error)
	GetLocationByID(ctx context.Context, id int64) (domain.Location, error)
	GetAllLocations(ctx context.Context, includeInactive bool) ([]domain.Location, error)
	UpdateLocation(ctx context.Context, id int64, req domain.UpdateLocationRequest) (domain.Location, error)
	DeleteLocation(ctx context.Context, id int64) error
	GetLocationItems(ctx context.Context, id int64, includeInactive bool) ([]domain.Item, error)
}

// Handler agrupa os subcomandos de "locations".
type Handler struct {
	Service  LocationService
	Notifier notify.Notifier
	Logger   logger.Logger
	Out      io.Writer
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc LocationService, notifier notify.Notifier, out io.Writer, log logger.Logger) *Handler {
	return &Handler{Service: svc, Notifier: notifier, Logger: log, Out: out}
}

const usage = "uso: locations [list|show|create|rename|address|activate|deactivate|delete|items] ..."

// Command despacha "locations SUBCOMANDO ...". Sem subcomando, lista os locais ativos.
func (h *Handler) Command(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return h.list(ctx, nil)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return h.list(ctx, rest)
	case "show":
		return h.show(ctx, rest)
	case "create":
		return h.create(ctx, rest)
	case "rename":
		return h.rename(ctx, rest)
	case "address":
		return h.address(ctx, rest)
	case "activate":
		return h.setActive(ctx, rest, true)
	case "deactivate":
		return h.setActive(ctx, rest, false)
	case "delete":
		return h.delete(ctx, rest)
	case "items":
		return h.items(ctx, rest)
	}
	return h.report(apperror.NewValidationError(usage), "")
}

// report registra o erro e o converte em aviso curto.
func (h *Handler) report(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if apperror.Is(err, apperror.KindInternal) || apperror.Is(err, apperror.KindTransport) {
		h.Logger.Error(fmt.Sprintf("Erro: %s", apperror.KindOf(err)), err)
	} else {
		h.Logger.Debug("Comando rejeitado.", map[string]interface{}{"category": apperror.KindOf(err).String(), "error": err.Error()})
	}
	h.Notifier.Notify(apperror.Notice(err, fallback))
	return err
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("locations "+name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// parseID lê o ID do local do primeiro argumento posicional.
func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, apperror.NewValidationError("Informe o ID do local.")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, apperror.NewValidationError(fmt.Sprintf("ID de local inválido: %q", args[0]))
	}
	return id, nil
}

func (h *Handler) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list", h.Out)
	all := fs.Bool("all", false, "inclui locais inativos")
	if err := fs.Parse(args); err != nil {
		return apperror.NewValidationError(err.Error())
	}

	locs, err := h.Service.GetAllLocations(ctx, *all)
	if err != nil {
		return h.report(err, "Erro ao carregar os locais.")
	}
	WriteLocations(h.Out, locs)
	return nil
}

func (h *Handler) show(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return h.report(err, "")
	}
	loc, err := h.Service.GetLocationByID(ctx, id)
	if err != nil {
		return h.report(err, "Erro ao buscar o local.")
	}
	WriteLocations(h.Out, []domain.Location{loc})
	return nil
}

func (h *Handler) create(ctx context.Context, args []string) error {
	fs := newFlagSet("create", h.Out)
	address := fs.String("address", "", "endereço físico (texto livre)")
	if err := fs.Parse(args); err != nil {
		return apperror.NewValidationError(err.Error())
	}

	req := domain.CreateLocationRequest{Name: strings.Join(fs.Args(), " ")}
	if *address != "" {
		req.Address = address
	}
	loc, err := h.Service.CreateLocation(ctx, req)
	if err != nil {
		return h.report(err, "Erro ao criar o local.")
	}
	h.Notifier.Notify(fmt.Sprintf("Local %q criado (ID %d).", loc.Name, loc.ID))
	return nil
}

func (h *Handler) rename(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return h.report(err, "")
	}
	name := strings.Join(args[1:], " ")
	return h.update(ctx, id, domain.UpdateLocationRequest{Name: &name}, "Local renomeado.")
}

func (h *Handler) address(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return h.report(err, "")
	}
	addr := strings.Join(args[1:], " ")
	return h.update(ctx, id, domain.UpdateLocationRequest{Address: &addr}, "Endereço atualizado.")
}

func (h *Handler) setActive(ctx context.Context, args []string, active bool) error {
	id, err := parseID(args)
	if err != nil {
		return h.report(err, "")
	}
	msg := "Local desativado."
	if active {
		msg = "Local reativado."
	}
	return h.update(ctx, id, domain.UpdateLocationRequest{IsActive: &active}, msg)
}

func (h *Handler) update(ctx context.Context, id int64, req domain.UpdateLocationRequest, success string) error {
	if _, err := h.Service.UpdateLocation(ctx, id, req); err != nil {
		return h.report(err, "Erro ao atualizar o local.")
	}
	h.Notifier.Notify(success)
	return nil
}

func (h *Handler) delete(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return h.report(err, "")
	}
	if err := h.Service.DeleteLocation(ctx, id); err != nil {
		return h.report(err, "Erro ao remover o local.")
	}
	h.Notifier.Notify("Local removido.")
	return nil
}

func (h *Handler) items(ctx context.Context, args []string) error {
	fs := newFlagSet("items", h.Out)
	all := fs.Bool("all", false, "inclui itens baixados")
	if err := fs.Parse(args); err != nil {
		return apperror.NewValidationError(err.Error())
	}
	id, err := parseID(fs.Args())
	if err != nil {
		return h.report(err, "")
	}

	items, err := h.Service.GetLocationItems(ctx, id, *all)
	if err != nil {
		return h.report(err, "Erro ao carregar os itens do local.")
	}
	item.WriteItems(h.Out, items)
	return nil
}

// WriteLocations imprime uma tabela de locais.
func WriteLocations(w io.Writer, locs []domain.Location) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOME\tENDEREÇO\tSTATUS")
	for _, loc := range locs {
		addr, status := "-", "ativo"
		if loc.Address != nil && *loc.Address != "" {
			addr = *loc.Address
		}
		if !loc.IsActive {
			status = "inativo"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", loc.ID, loc.Name, addr, status)
	}
	tw.Flush()
}
