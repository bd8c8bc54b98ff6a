package item

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
	"lagerscan/internal/service/creationservice"
	"lagerscan/internal/service/listingservice"
)

// ItemService define o contrato que o Handler espera do cliente do registro de itens.
type ItemService interface {
	Create(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error)
	Lookup(ctx context.Context, code string) (domain.Item, error)
	Checkout(ctx context.Context, code string) error
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	Delete(ctx context.Context, id int64) error
	Move(ctx context.Context, code string, locationID *int64) (domain.Item, error)
}

// Handler agrupa os comandos de itens.
type Handler struct {
	Service  ItemService
	NewFlow  func() *creationservice.Flow
	NewView  func() *listingservice.View
	Notifier notify.Notifier
	Logger   logger.Logger
	Out      io.Writer
}

// NewHandler cria uma nova instância do Handler, injetando o Service, as fábricas de fluxo e o Logger.
func NewHandler(svc ItemService, newFlow func() *creationservice.Flow, newView func() *listingservice.View, notifier notify.Notifier, out io.Writer, log logger.Logger) *Handler {
	return &Handler{
		Service:  svc,
		NewFlow:  newFlow,
		NewView:  newView,
		Notifier: notifier,
		Logger:   log,
		Out:      out,
	}
}

// report registra o erro e o converte em aviso curto. Nenhum erro de registro é fatal.
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
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// CreateCommand lida com "create": preenche o formulário, envia e grava a etiqueta.
func (h *Handler) CreateCommand(ctx context.Context, args []string) error {
	fs := newFlagSet("create", h.Out)
	name := fs.String("name", "", "nome do item")
	quantity := fs.String("quantity", "", "quantidade (texto livre)")
	location := fs.String("location", "", "ID ou nome do local")
	dictateName := fs.Bool("dictate-name", false, "ditar o nome")
	dictateQty := fs.Bool("dictate-quantity", false, "ditar a quantidade")
	if err := fs.Parse(args); err != nil {
		return apperror.NewValidationError(err.Error())
	}
	if *name == "" && fs.NArg() > 0 {
		*name = strings.Join(fs.Args(), " ")
	}

	flow := h.NewFlow()
	flow.Enter(ctx)
	flow.Form.Name = *name
	flow.Form.Quantity = *quantity
	if err := flow.SelectLocation(*location); err != nil {
		return h.report(err, "Local inválido.")
	}

	if *dictateName {
		fmt.Fprintln(h.Out, "Fale o nome do item...")
		if err := flow.Dictate(ctx, creationservice.FieldName); err != nil {
			return err
		}
	}
	if *dictateQty {
		fmt.Fprintln(h.Out, "Fale a quantidade...")
		if err := flow.Dictate(ctx, creationservice.FieldQuantity); err != nil {
			return err
		}
	}

	// Submit já avisa o operador sobre falhas.
	res, err := flow.Submit(ctx)
	if err != nil {
		h.Logger.Debug("Criação não concluída.", map[string]interface{}{"error": err.Error()})
		return err
	}

	fmt.Fprintf(h.Out, "Item:   %s\n", res.Item.Name)
	fmt.Fprintf(h.Out, "Código: %s\n", res.Item.Code)
	if res.Item.Quantity != nil {
		fmt.Fprintf(h.Out, "Qtd.:   %s\n", *res.Item.Quantity)
	}
	if res.Location != nil {
		fmt.Fprintf(h.Out, "Local:  %s\n", res.Location.Name)
	}
	if res.LabelPath != "" {
		fmt.Fprintf(h.Out, "Etiqueta: %s\n", res.LabelPath)
	}
	return nil
}

// LookupCommand lida com "lookup CODE".
func (h *Handler) LookupCommand(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return h.report(apperror.NewValidationError("uso: lookup CÓDIGO"), "")
	}
	it, err := h.Service.Lookup(ctx, args[0])
	if err != nil {
		return h.report(err, "Erro ao buscar o item.")
	}
	WriteItem(h.Out, it)
	return nil
}

// CheckoutCommand lida com "checkout CODE".
func (h *Handler) CheckoutCommand(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return h.report(apperror.NewValidationError("uso: checkout CÓDIGO"), "")
	}
	if err := h.Service.Checkout(ctx, args[0]); err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindNotFound:
			h.Logger.Debug("Item não encontrado para baixa.", map[string]interface{}{"code": args[0]})
			h.Notifier.Notify("Item não encontrado.")
			return err
		case apperror.KindConflict:
			h.Logger.Debug("Item já baixado.", map[string]interface{}{"code": args[0]})
			h.Notifier.Notify("Item já foi baixado.")
			return err
		}
		return h.report(err, "Falha ao baixar o item.")
	}
	h.Notifier.Notify("Item baixado!")
	return nil
}

// MoveCommand lida com "move CODE [-location ID]"; sem -location o item fica sem local.
func (h *Handler) MoveCommand(ctx context.Context, args []string) error {
	fs := newFlagSet("move", h.Out)
	location := fs.Int64("location", 0, "ID do local de destino (0 = sem local)")
	if err := fs.Parse(args); err != nil {
		return apperror.NewValidationError(err.Error())
	}
	if fs.NArg() != 1 {
		return h.report(apperror.NewValidationError("uso: move [-location ID] CÓDIGO"), "")
	}

	var target *int64
	if *location != 0 {
		target = location
	}
	it, err := h.Service.Move(ctx, fs.Arg(0), target)
	if err != nil {
		return h.report(err, "Falha ao mover o item.")
	}
	h.Notifier.Notify("Item movido.")
	WriteItem(h.Out, it)
	return nil
}

// ItemsCommand lida com "items": lista, filtra, ordena e opcionalmente remove um item.
func (h *Handler) ItemsCommand(ctx context.Context, args []string) error {
	fs := newFlagSet("items", h.Out)
	search := fs.String("search", "", "filtro por nome")
	sortBy := fs.String("sort", "name", "ordenação: name ou date")
	desc := fs.Bool("desc", false, "ordem decrescente")
	all := fs.Bool("all", false, "inclui itens baixados")
	deleteID := fs.Int64("delete", 0, "remove o item com este ID")
	if err := fs.Parse(args); err != nil {
		return apperror.NewValidationError(err.Error())
	}

	key, err := listingservice.ParseSortKey(*sortBy)
	if err != nil {
		return h.report(err, "")
	}

	view := h.NewView()
	view.IncludeInactive = *all
	if err := view.Load(ctx); err != nil {
		return err
	}
	view.SetSearch(*search)
	if key == listingservice.SortNone {
		key = listingservice.SortName
	}
	view.SetSort(key, *desc)
	if *deleteID != 0 {
		if err := view.Delete(ctx, *deleteID); err != nil {
			return err
		}
	}

	WriteItems(h.Out, view.Items())
	return nil
}

// LabelCommand lida com "label CODE": gera novamente a etiqueta imprimível de um item existente.
func (h *Handler) LabelCommand(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return h.report(apperror.NewValidationError("uso: label CÓDIGO"), "")
	}
	it, err := h.Service.Lookup(ctx, args[0])
	if err != nil {
		return h.report(err, "Erro ao buscar o item.")
	}

	flow := h.NewFlow()
	var loc *domain.Location
	if it.LocationID != nil {
		flow.Enter(ctx)
		for _, l := range flow.Locations() {
			if l.ID == *it.LocationID {
				l := l
				loc = &l
				break
			}
		}
	}

	// PrintLabel já avisa o operador sobre falhas.
	path, err := flow.PrintLabel(ctx, it, loc)
	if err != nil {
		return err
	}
	fmt.Fprintf(h.Out, "Etiqueta: %s\n", path)
	return nil
}

// WriteItem imprime um item em formato de ficha.
func WriteItem(w io.Writer, it domain.Item) {
	status := "ativo"
	if !it.IsActive {
		status = "baixado"
	}
	fmt.Fprintf(w, "ID:     %d\n", it.ID)
	fmt.Fprintf(w, "Código: %s\n", it.Code)
	fmt.Fprintf(w, "Nome:   %s\n", it.Name)
	if it.Quantity != nil {
		fmt.Fprintf(w, "Qtd.:   %s\n", *it.Quantity)
	}
	if it.LocationID != nil {
		fmt.Fprintf(w, "Local:  %d\n", *it.LocationID)
	}
	if !it.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Criado: %s\n", it.CreatedAt.Local().Format("02.01.2006 15:04"))
	}
	fmt.Fprintf(w, "Status: %s\n", status)
}

// WriteItems imprime uma tabela de itens.
func WriteItems(w io.Writer, items []domain.Item) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCÓDIGO\tNOME\tQTD.\tLOCAL\tCRIADO\tSTATUS")
	for _, it := range items {
		qty, loc, created, status := "-", "-", "-", "ativo"
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		if it.LocationID != nil {
			loc = strconv.FormatInt(*it.LocationID, 10)
		}
		if !it.CreatedAt.IsZero() {
			created = it.CreatedAt.Local().Format("02.01.2006 15:04")
		}
		if !it.IsActive {
			status = "baixado"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", it.ID, it.Code, it.Name, qty, loc, created, status)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d item(ns)\n", len(items))
}
