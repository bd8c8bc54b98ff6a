package creationservice

import (
	"context"
	"strconv"
	"strings"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
	"lagerscan/internal/pkg/printer"
	"lagerscan/internal/repository/labelrepo"
)

// ItemCreator registra itens no backend.
type ItemCreator interface {
	Create(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error)
}

// LocationLister fornece a lista de locais disponíveis.
type LocationLister interface {
	GetAllLocations(ctx context.Context, includeInactive bool) ([]domain.Location, error)
}

// LabelSource devolve a imagem escaneável de um código.
type LabelSource interface {
	GetLabel(ctx context.Context, code string) (labelrepo.Label, error)
}

// LabelPrinter grava a etiqueta imprimível.
type LabelPrinter interface {
	Print(a printer.Artifact) (string, error)
}

// Dictation preenche campos de texto por voz.
type Dictation interface {
	Listen(ctx context.Context, apply func(text string)) (<-chan struct{}, error)
	Stop()
}

// Field é um campo do formulário que aceita ditado.
type Field string

const (
	FieldName     Field = "name"
	FieldQuantity Field = "quantity"
)

// Form é o estado do formulário de criação.
type Form struct {
	Name       string
	Quantity   string
	LocationID *int64
}

// Result é o que a criação entrega ao operador.
type Result struct {
	Item      domain.Item
	Location  *domain.Location
	LabelPath string // vazio se a etiqueta não pôde ser gerada
}

// Flow é o fluxo de criação de item: formulário, envio e etiqueta.
// A lista de locais é uma cópia privada carregada uma vez em Enter.
type Flow struct {
	items     ItemCreator
	locations LocationLister
	labels    LabelSource
	printer   LabelPrinter
	dictation Dictation
	notifier  notify.Notifier
	logger    logger.Logger

	Form Form

	snapshot []domain.Location
	loaded   bool
}

// NewFlow cria o fluxo. dictation pode ser nil.
func NewFlow(items ItemCreator, locations LocationLister, labels LabelSource, p LabelPrinter, d Dictation, notifier notify.Notifier, logger logger.Logger) *Flow {
	return &Flow{
		items:     items,
		locations: locations,
		labels:    labels,
		printer:   p,
		dictation: d,
		notifier:  notifier,
		logger:    logger,
	}
}

// Enter carrega os locais uma única vez. Falhas deixam a lista vazia e geram um aviso.
func (f *Flow) Enter(ctx context.Context) {
	if f.loaded {
		return
	}
	f.loaded = true

	locs, err := f.locations.GetAllLocations(ctx, false)
	if err != nil {
		f.logger.Warn("Falha ao carregar locais.", map[string]interface{}{"error": err.Error()})
		f.snapshot = nil
		f.notifier.Notify("Erro ao carregar os locais.")
		return
	}
	f.snapshot = locs
}

// Locations devolve uma cópia da lista carregada em Enter.
func (f *Flow) Locations() []domain.Location {
	out := make([]domain.Location, len(f.snapshot))
	copy(out, f.snapshot)
	return out
}

// SelectLocation escolhe o local por ID ou por nome. Vazio deixa o item sem local.
// Um ID fora da lista é aceito; o backend decide se ele ainda existe.
func (f *Flow) SelectLocation(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		f.Form.LocationID = nil
		return nil
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		f.Form.LocationID = &id
		return nil
	}
	for _, loc := range f.snapshot {
		if strings.EqualFold(loc.Name, ref) {
			id := loc.ID
			f.Form.LocationID = &id
			return nil
		}
	}
	return apperror.NewValidationError("Local \"" + ref + "\" não está na lista.")
}

// Dictate preenche field por voz e bloqueia até a escuta terminar.
func (f *Flow) Dictate(ctx context.Context, field Field) error {
	if f.dictation == nil {
		f.notifier.Notify("Ditado não é suportado neste ambiente.")
		return apperror.NewCapabilityUnavailableError("ditado não suportado", nil)
	}

	done, err := f.dictation.Listen(ctx, func(text string) {
		switch field {
		case FieldName:
			f.Form.Name = text
		case FieldQuantity:
			f.Form.Quantity = text
		}
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		f.dictation.Stop()
		<-done
		return ctx.Err()
	}
}

// Submit envia o formulário. Nome vazio é rejeitado antes de qualquer chamada.
func (f *Flow) Submit(ctx context.Context) (Result, error) {
	name := strings.TrimSpace(f.Form.Name)
	if name == "" {
		f.notifier.Notify("Informe um nome válido.")
		return Result{}, apperror.NewValidationError("O nome do item não pode ser vazio.")
	}

	req := domain.CreateItemRequest{Name: name, LocationID: f.Form.LocationID}
	if qty := strings.TrimSpace(f.Form.Quantity); qty != "" {
		req.Quantity = &qty
	}

	item, err := f.items.Create(ctx, req)
	if err != nil {
		f.notifier.Notify(createNotice(err))
		return Result{}, err
	}
	f.notifier.Notify("Etiqueta criada com sucesso.")

	res := Result{Item: item, Location: f.lookupLocation(item.LocationID)}
	path, err := f.PrintLabel(ctx, item, res.Location)
	if err == nil {
		res.LabelPath = path
	}
	return res, nil
}

// PrintLabel obtém a imagem do código e grava a etiqueta imprimível.
func (f *Flow) PrintLabel(ctx context.Context, item domain.Item, loc *domain.Location) (string, error) {
	label, err := f.labels.GetLabel(ctx, item.Code)
	if err != nil {
		f.logger.Error("Falha ao obter imagem da etiqueta.", err)
		f.notifier.Notify("Falha ao gerar a etiqueta.")
		return "", err
	}

	artifact := printer.Artifact{Code: item.Code, Name: item.Name, PNG: label.PNG}
	if item.Quantity != nil {
		artifact.Quantity = *item.Quantity
	}
	if loc != nil {
		artifact.Location = loc.Name
	}

	path, err := f.printer.Print(artifact)
	if err != nil {
		f.logger.Error("Falha ao gravar etiqueta.", err)
		f.notifier.Notify("Falha ao gerar a etiqueta.")
		return "", err
	}
	return path, nil
}

func (f *Flow) lookupLocation(id *int64) *domain.Location {
	if id == nil {
		return nil
	}
	for _, loc := range f.snapshot {
		if loc.ID == *id {
			l := loc
			return &l
		}
	}
	return nil
}

func createNotice(err error) string {
	const generic = "Erro ao criar a etiqueta."
	if apperror.Is(err, apperror.KindNotFound) {
		return "Local selecionado não encontrado ou inativo."
	}
	return apperror.Notice(err, generic)
}
