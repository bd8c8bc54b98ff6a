package listingservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/pkg/notify"
	"lagerscan/internal/service/listingservice"
)

type MockItemLister struct {
	mock.Mock
}

func (m *MockItemLister) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *MockItemLister) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var t1 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleItems() []domain.Item {
	return []domain.Item{
		{ID: 1, Code: "b1", Name: "Bolt", CreatedAt: domain.Timestamp{Time: t1}, IsActive: true},
		{ID: 2, Code: "a2", Name: "anchor", CreatedAt: domain.Timestamp{Time: t1.Add(time.Hour)}, IsActive: true},
		{ID: 3, Code: "c3", Name: "Äpfel", CreatedAt: domain.Timestamp{Time: t1.Add(-time.Hour)}, IsActive: true},
	}
}

func names(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func newLoadedView(t *testing.T, items []domain.Item) (*listingservice.View, *MockItemLister, *notify.Recorder) {
	t.Helper()
	lister := new(MockItemLister)
	lister.On("List", mock.Anything, domain.ItemFilter{}).Return(items, nil)
	notices := &notify.Recorder{}
	v := listingservice.NewView(lister, notices, logger.NewNopLogger(), language.German)
	require.NoError(t, v.Load(context.Background()))
	return v, lister, notices
}

func TestNewView_StartsSortedByNameAscending(t *testing.T) {
	v, _, _ := newLoadedView(t, sampleItems())

	key, desc := v.Sort()
	assert.Equal(t, listingservice.SortName, key)
	assert.False(t, desc)
	assert.Equal(t, []string{"anchor", "Äpfel", "Bolt"}, names(v.Items()))
}

func TestToggleSort_CurrentKeyReversesOnFirstToggle(t *testing.T) {
	v, _, _ := newLoadedView(t, sampleItems())

	v.ToggleSort(listingservice.SortName)

	key, desc := v.Sort()
	assert.Equal(t, listingservice.SortName, key)
	assert.True(t, desc)
	assert.Equal(t, []string{"Bolt", "Äpfel", "anchor"}, names(v.Items()))
}

func TestSetSort_SelectsKeyAndDirection(t *testing.T) {
	v, _, _ := newLoadedView(t, sampleItems())

	v.SetSort(listingservice.SortDate, true)
	assert.Equal(t, []string{"anchor", "Bolt", "Äpfel"}, names(v.Items()))

	v.SetSort(listingservice.SortNone, false)
	assert.Equal(t, []string{"Bolt", "anchor", "Äpfel"}, names(v.Items()), "ordem do backend")
}

func TestSortByDate_ToggleReversesDirection(t *testing.T) {
	v, _, _ := newLoadedView(t, sampleItems()[:2])

	v.ToggleSort(listingservice.SortDate)
	assert.Equal(t, []string{"Bolt", "anchor"}, names(v.Items()))

	v.ToggleSort(listingservice.SortDate)
	assert.Equal(t, []string{"anchor", "Bolt"}, names(v.Items()), "data descendente: t2 antes de t1")
}

func TestToggleSort_NewKeyResetsToAscending(t *testing.T) {
	v, _, _ := newLoadedView(t, sampleItems())

	v.ToggleSort(listingservice.SortDate)
	v.ToggleSort(listingservice.SortDate)
	v.ToggleSort(listingservice.SortName)

	_, desc := v.Sort()
	assert.False(t, desc)
	assert.Equal(t, []string{"anchor", "Äpfel", "Bolt"}, names(v.Items()))
}

func TestSetSearch_CaseInsensitiveSubstring(t *testing.T) {
	v, _, _ := newLoadedView(t, sampleItems())

	v.SetSearch("BOL")
	assert.Equal(t, []string{"Bolt"}, names(v.Items()))

	v.SetSearch("äpf")
	assert.Equal(t, []string{"Äpfel"}, names(v.Items()))

	v.SetSearch("")
	assert.Len(t, v.Items(), 3)
}

func TestDelete_RemovesFromBothWithoutReload(t *testing.T) {
	v, lister, notices := newLoadedView(t, sampleItems())
	lister.On("Delete", mock.Anything, int64(1)).Return(nil)
	v.SetSearch("o")

	require.NoError(t, v.Delete(context.Background(), 1))

	assert.Equal(t, []string{"anchor"}, names(v.Items()))
	assert.Equal(t, 2, v.Total())
	v.SetSearch("")
	assert.Equal(t, 2, len(v.Items()))
	assert.Equal(t, "Item removido.", notices.Last())
	lister.AssertNumberOfCalls(t, "List", 1)
}

func TestDelete_FailureKeepsItem(t *testing.T) {
	v, lister, notices := newLoadedView(t, sampleItems())
	lister.On("Delete", mock.Anything, int64(9)).Return(apperror.NewNotFoundError("Item not found"))

	err := v.Delete(context.Background(), 9)

	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, 3, v.Total())
	assert.Equal(t, "Item not found", notices.Last())
}

func TestLoad_FailureEmptiesCollection(t *testing.T) {
	lister := new(MockItemLister)
	lister.On("List", mock.Anything, domain.ItemFilter{IncludeInactive: true}).
		Return([]domain.Item{}, apperror.NewTransportError("Backend inacessível", 0, nil))
	notices := &notify.Recorder{}
	v := listingservice.NewView(lister, notices, logger.NewNopLogger(), language.German)
	v.IncludeInactive = true

	err := v.Load(context.Background())

	assert.Error(t, err)
	assert.Empty(t, v.Items())
	assert.Equal(t, "Erro ao carregar os itens.", notices.Last())
}

func TestParseSortKey(t *testing.T) {
	key, err := listingservice.ParseSortKey(" Name ")
	require.NoError(t, err)
	assert.Equal(t, listingservice.SortName, key)

	_, err = listingservice.ParseSortKey("size")
	assert.IsType(t, &apperror.ValidationError{}, err)
}
