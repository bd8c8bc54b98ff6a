package listingservice

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
)

// SortKey é a chave de ordenação da listagem.
type SortKey string

const (
	SortNone SortKey = ""
	SortName SortKey = "name"
	SortDate SortKey = "date"
)

// ParseSortKey aceita "name" ou "date" (e vazio).
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortNone:
		return SortNone, nil
	case SortName:
		return SortName, nil
	case SortDate:
		return SortDate, nil
	}
	return SortNone, apperror.NewValidationError("Ordenação deve ser \"name\" ou \"date\".")
}

// ItemLister é o que a listagem usa do cliente do registro de itens.
type ItemLister interface {
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	Delete(ctx context.Context, id int64) error
}

// View mantém a coleção completa e a visão derivada (filtrada e ordenada).
// Não compartilha estado com outros fluxos.
type View struct {
	items    ItemLister
	notifier notify.Notifier
	logger   logger.Logger

	// IncludeInactive inclui itens baixados na próxima carga.
	IncludeInactive bool

	all     []domain.Item
	visible []domain.Item
	search  string
	key     SortKey
	desc    bool

	collator *collate.Collator
	fold     cases.Caser
}

// NewView cria a listagem, ordenada por nome em ordem ascendente.
// tag define a colação usada na ordenação por nome.
func NewView(items ItemLister, notifier notify.Notifier, logger logger.Logger, tag language.Tag) *View {
	return &View{
		items:    items,
		notifier: notifier,
		logger:   logger,
		key:      SortName,
		collator: collate.New(tag, collate.IgnoreCase),
		fold:     cases.Fold(),
	}
}

// Load busca a coleção completa. Falhas esvaziam a coleção e geram um aviso.
func (v *View) Load(ctx context.Context) error {
	items, err := v.items.List(ctx, domain.ItemFilter{IncludeInactive: v.IncludeInactive})
	if err != nil {
		v.all = nil
		v.refresh()
		v.notifier.Notify(apperror.Notice(err, "Erro ao carregar os itens."))
		return err
	}

	v.all = items
	v.refresh()
	v.logger.Debug("Listagem carregada.", map[string]interface{}{"total": len(items)})
	return nil
}

// SetSearch define o filtro: substring do nome, sem diferenciar maiúsculas.
func (v *View) SetSearch(term string) {
	v.search = strings.TrimSpace(term)
	v.refresh()
}

// ToggleSort alterna a ordenação. A mesma chave inverte a direção; uma chave nova começa ascendente.
func (v *View) ToggleSort(key SortKey) {
	if key == v.key {
		v.desc = !v.desc
	} else {
		v.key = key
		v.desc = false
	}
	v.refresh()
}

// SetSort define chave e direção diretamente. SortNone mantém a ordem do backend.
func (v *View) SetSort(key SortKey, desc bool) {
	v.key = key
	v.desc = desc
	v.refresh()
}

// Sort devolve a chave e a direção atuais.
func (v *View) Sort() (SortKey, bool) {
	return v.key, v.desc
}

// Items devolve uma cópia da visão derivada.
func (v *View) Items() []domain.Item {
	out := make([]domain.Item, len(v.visible))
	copy(out, v.visible)
	return out
}

// Total devolve o tamanho da coleção completa.
func (v *View) Total() int {
	return len(v.all)
}

// Delete remove o item no backend e, em caso de sucesso, das duas coleções sem recarregar.
func (v *View) Delete(ctx context.Context, id int64) error {
	if err := v.items.Delete(ctx, id); err != nil {
		v.notifier.Notify(apperror.Notice(err, "Erro ao remover o item."))
		return err
	}

	v.all = without(v.all, id)
	v.visible = without(v.visible, id)
	v.notifier.Notify("Item removido.")
	return nil
}

func without(items []domain.Item, id int64) []domain.Item {
	out := items[:0:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// refresh recalcula a visão derivada a partir da coleção completa.
func (v *View) refresh() {
	needle := v.fold.String(v.search)
	visible := make([]domain.Item, 0, len(v.all))
	for _, it := range v.all {
		if needle == "" || strings.Contains(v.fold.String(it.Name), needle) {
			visible = append(visible, it)
		}
	}

	var less func(a, b domain.Item) bool
	switch v.key {
	case SortName:
		less = func(a, b domain.Item) bool { return v.collator.CompareString(a.Name, b.Name) < 0 }
	case SortDate:
		less = func(a, b domain.Item) bool { return a.CreatedAt.Before(b.CreatedAt.Time) }
	}
	if less != nil {
		sort.SliceStable(visible, func(i, j int) bool {
			if v.desc {
				return less(visible[j], visible[i])
			}
			return less(visible[i], visible[j])
		})
	}
	v.visible = visible
}
